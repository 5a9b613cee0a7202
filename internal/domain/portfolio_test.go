package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTokenBalanceWeight(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	balances := map[string]*TokenBalance{
		"mint1": {Mint: "mint1", Symbol: "ONE", Amount: decimal.NewFromInt(10), USDValue: decimal.NewFromInt(250)},
		"mint2": {Mint: "mint2", Symbol: "TWO", Amount: decimal.NewFromInt(5), USDValue: decimal.NewFromInt(750)},
	}
	p := NewPortfolio(decimal.NewFromInt(1000), balances, ts)

	if w := p.Weight("mint1"); !w.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("weight(mint1) = %s, want 0.25", w)
	}
	if w := balances["mint2"].Weight(); !w.Equal(decimal.RequireFromString("0.75")) {
		t.Errorf("balance weight = %s, want 0.75", w)
	}
	if w := p.Weight("missing"); !w.IsZero() {
		t.Errorf("weight(missing) = %s, want 0", w)
	}
}

func TestTokenBalanceWeightZeroTotal(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	balances := map[string]*TokenBalance{
		"mint1": {Mint: "mint1", USDValue: decimal.NewFromInt(100)},
	}
	p := NewPortfolio(decimal.Zero, balances, ts)

	if w := p.Weight("mint1"); !w.IsZero() {
		t.Errorf("weight with zero total = %s, want 0", w)
	}
	if w := balances["mint1"].Weight(); !w.IsZero() {
		t.Errorf("balance weight with zero total = %s, want 0", w)
	}
}

func TestNewPortfolioNilBalances(t *testing.T) {
	p := NewPortfolio(decimal.NewFromInt(100), nil, time.Now())
	if p.Balances == nil {
		t.Fatal("balances map should be initialized")
	}
	if _, ok := p.Balance("anything"); ok {
		t.Error("empty portfolio should have no balances")
	}
}
