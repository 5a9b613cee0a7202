// Package planner implements the portfolio rebalancing and
// trade-planning engine: time-decay aggregation of source portfolios
// into a target allocation, risk-bounded diffing of current vs. target
// weights into trade intents, and the netting optimizer that converts
// intents into a minimal sequence of direct swaps.
//
// The pipeline is synchronous, pure and deterministic given fixed
// inputs; it holds no cross-call state and may be invoked concurrently
// for independent wallets.
package planner

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"solana-copy-trader/internal/domain"
)

// PriceSource supplies best-effort USD prices for a set of mints.
// Missing entries are absent from the result, never an error.
type PriceSource interface {
	GetTokenPrices(ctx context.Context, mints []string) (map[string]decimal.Decimal, error)
}

// Planner plans rebalancing trades for one wallet.
type Planner struct {
	cfg      domain.RiskConfig
	aliases  *domain.AliasResolver
	prices   PriceSource
	excluded map[string]bool
	logger   *log.Logger
	verbose  bool
	now      func() time.Time
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the planner's logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// WithVerbose enables debug-level planning output.
func WithVerbose(v bool) Option {
	return func(p *Planner) { p.verbose = v }
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// WithExcludedMints marks additional mints the diff engine must never
// trade (e.g. the gas asset). The reference asset is always excluded.
func WithExcludedMints(mints ...string) Option {
	return func(p *Planner) {
		for _, m := range mints {
			p.excluded[m] = true
		}
	}
}

// New creates a Planner. The risk config must already be validated;
// New validates it again and returns an error on any out-of-range field.
func New(cfg domain.RiskConfig, aliases *domain.AliasResolver, prices PriceSource, opts ...Option) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Planner{
		cfg:      cfg,
		aliases:  aliases,
		prices:   prices,
		excluded: make(map[string]bool),
		logger:   log.New(io.Discard, "", 0),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// CreateTradePlan compares the current portfolio against the target and
// returns an ordered list of executable swaps, each sized within
// [min_trade_size_usd, max_trade_size_usd]. Any internal error discards
// the whole plan; a partially-computed trade list is never returned.
func (p *Planner) CreateTradePlan(ctx context.Context, current, target *domain.Portfolio) ([]domain.SwapTrade, error) {
	if current == nil || target == nil {
		return nil, fmt.Errorf("create trade plan: nil portfolio")
	}

	mints := p.canonicalMints(current, target)
	prices, err := p.prices.GetTokenPrices(ctx, mints)
	if err != nil {
		return nil, fmt.Errorf("resolve prices: %w", err)
	}
	if prices == nil {
		prices = make(map[string]decimal.Decimal)
	}
	// The reference asset is the unit of account.
	prices[domain.USDCMint] = decimal.NewFromInt(1)

	intents := p.diffIntents(current, target, prices)
	return p.netIntents(intents), nil
}

// canonicalMints returns the sorted union of canonical mints appearing
// in either portfolio.
func (p *Planner) canonicalMints(current, target *domain.Portfolio) []string {
	seen := make(map[string]bool)
	for mint := range current.Balances {
		seen[p.aliases.Resolve(mint)] = true
	}
	for mint := range target.Balances {
		seen[p.aliases.Resolve(mint)] = true
	}
	mints := make([]string, 0, len(seen))
	for mint := range seen {
		mints = append(mints, mint)
	}
	sort.Strings(mints)
	return mints
}

func (p *Planner) debugf(format string, args ...interface{}) {
	if p.verbose {
		p.logger.Printf(format, args...)
	}
}

func (p *Planner) warnf(format string, args ...interface{}) {
	p.logger.Printf(format, args...)
}
