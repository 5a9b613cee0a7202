package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenBalance represents a single token position inside a portfolio.
// The weight denominator is bound to the owning portfolio's total value
// at construction time via NewPortfolio.
type TokenBalance struct {
	Mint     string
	Symbol   string
	Decimals int
	Amount   decimal.Decimal
	USDValue decimal.Decimal

	portfolioTotal decimal.Decimal
}

// Weight returns the position's share of the owning portfolio's total
// value. Returns zero when the portfolio total is not positive.
func (b *TokenBalance) Weight() decimal.Decimal {
	if b.portfolioTotal.Sign() <= 0 {
		return decimal.Zero
	}
	return b.USDValue.Div(b.portfolioTotal)
}

// Portfolio is an immutable snapshot of a wallet's USD-valued holdings.
type Portfolio struct {
	TotalValueUSD decimal.Decimal
	Balances      map[string]*TokenBalance // keyed by mint
	Timestamp     time.Time
}

// NewPortfolio creates a portfolio snapshot and binds every balance's
// weight denominator to the portfolio total.
func NewPortfolio(totalValueUSD decimal.Decimal, balances map[string]*TokenBalance, ts time.Time) *Portfolio {
	if balances == nil {
		balances = make(map[string]*TokenBalance)
	}
	for _, b := range balances {
		b.portfolioTotal = totalValueUSD
	}
	return &Portfolio{
		TotalValueUSD: totalValueUSD,
		Balances:      balances,
		Timestamp:     ts,
	}
}

// Weight returns the weight of a mint in the portfolio, zero if absent
// or if the portfolio total is not positive.
func (p *Portfolio) Weight(mint string) decimal.Decimal {
	b, ok := p.Balances[mint]
	if !ok || p.TotalValueUSD.Sign() <= 0 {
		return decimal.Zero
	}
	return b.USDValue.Div(p.TotalValueUSD)
}

// Balance returns the balance for a mint if present.
func (p *Portfolio) Balance(mint string) (*TokenBalance, bool) {
	b, ok := p.Balances[mint]
	return b, ok
}
