// Package portfolio builds USD-valued portfolio snapshots of on-chain
// wallets from RPC balances, the price API and the token registry.
package portfolio

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/metadata"
	"solana-copy-trader/internal/solana"
)

// PriceSource provides batch USD prices by mint.
type PriceSource interface {
	GetTokenPrices(ctx context.Context, mints []string) (map[string]decimal.Decimal, error)
}

var lamportsPerSOL = decimal.NewFromInt(solana.LamportsPerSOL)

// Analyzer snapshots wallet holdings as portfolios.
type Analyzer struct {
	rpc      solana.RPCClient
	prices   PriceSource
	resolver *metadata.Resolver
	logger   *log.Logger
	now      func() time.Time
}

// AnalyzerOption configures Analyzer.
type AnalyzerOption func(*Analyzer)

// WithLogger sets the analyzer's logger.
func WithLogger(l *log.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.logger = l }
}

// WithClock overrides the snapshot time source.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates a portfolio analyzer.
func NewAnalyzer(rpc solana.RPCClient, prices PriceSource, resolver *metadata.Resolver, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		rpc:      rpc,
		prices:   prices,
		resolver: resolver,
		logger:   log.New(io.Discard, "", 0),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetWalletPortfolio snapshots a wallet's SPL token holdings plus its
// native SOL balance (reported under the wrapped SOL mint). A wallet
// with no on-chain presence yields an empty portfolio, not an error.
// Positions without a known price are kept at zero USD value so the
// token amounts remain visible to the planner.
func (a *Analyzer) GetWalletPortfolio(ctx context.Context, wallet string) (*domain.Portfolio, error) {
	accounts, err := a.rpc.GetTokenAccountsByOwner(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("get token accounts for %s: %w", wallet, err)
	}

	lamports, err := a.rpc.GetBalance(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("get balance for %s: %w", wallet, err)
	}

	// Wallets can hold several accounts for the same mint.
	amounts := make(map[string]decimal.Decimal)
	decimalsByMint := make(map[string]int)
	for _, acc := range accounts {
		if acc.Amount.Sign() <= 0 {
			continue
		}
		amounts[acc.Mint] = amounts[acc.Mint].Add(acc.Amount)
		decimalsByMint[acc.Mint] = acc.Decimals
	}

	if lamports > 0 {
		sol := decimal.NewFromInt(int64(lamports)).Div(lamportsPerSOL)
		amounts[domain.SOLMint] = amounts[domain.SOLMint].Add(sol)
		decimalsByMint[domain.SOLMint] = 9
	}

	if len(amounts) == 0 {
		return domain.NewPortfolio(decimal.Zero, nil, a.now()), nil
	}

	mints := make([]string, 0, len(amounts))
	for mint := range amounts {
		mints = append(mints, mint)
	}
	sort.Strings(mints)

	prices, err := a.prices.GetTokenPrices(ctx, mints)
	if err != nil {
		return nil, fmt.Errorf("get prices for %s: %w", wallet, err)
	}
	metas := a.resolver.ResolveMany(ctx, mints)

	balances := make(map[string]*domain.TokenBalance, len(mints))
	total := decimal.Zero
	for _, mint := range mints {
		amount := amounts[mint]

		price, ok := prices[mint]
		if !ok {
			a.logger.Printf("[portfolio] no price for %s, valuing at zero", mint)
			price = decimal.Zero
		}
		usd := amount.Mul(price)

		symbol := domain.ShortMint(mint)
		if meta := metas[mint]; meta != nil && meta.Symbol != "" {
			symbol = meta.Symbol
		}

		balances[mint] = &domain.TokenBalance{
			Mint:     mint,
			Symbol:   symbol,
			Decimals: decimalsByMint[mint],
			Amount:   amount,
			USDValue: usd,
		}
		total = total.Add(usd)
	}

	return domain.NewPortfolio(total, balances, a.now()), nil
}
