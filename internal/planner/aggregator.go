package planner

import (
	"sort"

	"github.com/shopspring/decimal"

	"solana-copy-trader/internal/domain"
)

var (
	one          = decimal.NewFromInt(1)
	secondsPerHr = decimal.NewFromInt(3600)
)

// CreateTargetPortfolio combines source portfolios into a single target
// allocation scaled to currentTotalUSD. Fresher snapshots dominate via
// a time-decay weight of 1/(1 + age_hours); allocations below the
// minimum trade size are dropped and the rest capped at the maximum
// portfolio allocation, then renormalized so the balances sum back to
// currentTotalUSD.
//
// Zero sources yield an empty target at the caller's total, which the
// diff engine interprets as "liquidate everything non-reference".
func (p *Planner) CreateTargetPortfolio(sources map[string]*domain.Portfolio, currentTotalUSD decimal.Decimal) *domain.Portfolio {
	now := p.now()
	if len(sources) == 0 {
		return domain.NewPortfolio(currentTotalUSD, nil, now)
	}

	addrs := make([]string, 0, len(sources))
	for addr := range sources {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	decay := make(map[string]decimal.Decimal, len(addrs))
	decaySum := decimal.Zero
	for _, addr := range addrs {
		src := sources[addr]
		if src == nil {
			continue
		}
		age := now.Sub(src.Timestamp)
		if age < 0 {
			age = 0
		}
		w := one.Div(one.Add(decimal.NewFromFloat(age.Seconds()).Div(secondsPerHr)))
		decay[addr] = w
		decaySum = decaySum.Add(w)
		p.debugf("source %s: age=%s decay=%s", addr, age, w)
	}
	if decaySum.Sign() <= 0 {
		return domain.NewPortfolio(currentTotalUSD, nil, now)
	}

	type acc struct {
		symbol   string
		decimals int
		amount   decimal.Decimal
		usd      decimal.Decimal
	}
	accs := make(map[string]*acc)
	var order []string
	total := decimal.Zero

	for _, addr := range addrs {
		src := sources[addr]
		if src == nil {
			continue
		}
		w := decay[addr].Div(decaySum)
		for _, mint := range sortedMints(src.Balances) {
			b := src.Balances[mint]
			a, ok := accs[mint]
			if !ok {
				a = &acc{symbol: b.Symbol, decimals: b.Decimals}
				accs[mint] = a
				order = append(order, mint)
			}
			contrib := b.USDValue.Mul(w)
			a.usd = a.usd.Add(contrib)
			a.amount = a.amount.Add(b.Amount.Mul(w))
			total = total.Add(contrib)
		}
	}
	if total.Sign() <= 0 {
		return domain.NewPortfolio(currentTotalUSD, nil, now)
	}

	// Rescale the aggregate to the wallet's own total.
	scale := currentTotalUSD.Div(total)
	for _, a := range accs {
		a.usd = a.usd.Mul(scale)
		a.amount = a.amount.Mul(scale)
	}

	// Drop allocations too small to act on, cap the rest.
	maxUSD := p.cfg.MaxPortfolioAllocation.Mul(currentTotalUSD)
	kept := order[:0]
	for _, mint := range order {
		a := accs[mint]
		if a.usd.LessThan(p.cfg.MinTradeSizeUSD) {
			p.debugf("target: dropping dust allocation %s ($%s)", mint, a.usd)
			delete(accs, mint)
			continue
		}
		if a.usd.GreaterThan(maxUSD) {
			p.debugf("target: capping %s from $%s to $%s", mint, a.usd, maxUSD)
			a.amount = a.amount.Mul(maxUSD).Div(a.usd)
			a.usd = maxUSD
		}
		kept = append(kept, mint)
	}

	keptTotal := decimal.Zero
	for _, mint := range kept {
		keptTotal = keptTotal.Add(accs[mint].usd)
	}
	if keptTotal.Sign() > 0 {
		renorm := currentTotalUSD.Div(keptTotal)
		for _, mint := range kept {
			a := accs[mint]
			a.usd = a.usd.Mul(renorm)
			a.amount = a.amount.Mul(renorm)
		}
	}

	balances := make(map[string]*domain.TokenBalance, len(kept))
	for _, mint := range kept {
		a := accs[mint]
		balances[mint] = &domain.TokenBalance{
			Mint:     mint,
			Symbol:   a.symbol,
			Decimals: a.decimals,
			Amount:   a.amount,
			USDValue: a.usd,
		}
	}
	return domain.NewPortfolio(currentTotalUSD, balances, now)
}

func sortedMints(balances map[string]*domain.TokenBalance) []string {
	mints := make([]string, 0, len(balances))
	for mint := range balances {
		mints = append(mints, mint)
	}
	sort.Strings(mints)
	return mints
}
