package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-copy-trader/internal/domain"
)

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := domain.DefaultRiskConfig()
	cfg.MinTradeSizeUSD = d("5000") // above max
	_, err := New(cfg, domain.NewAliasResolver(nil), stubPrices{})
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestCreateTradePlan_RebalanceScenario(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPlanner(t, now, map[string]decimal.Decimal{
		mintA: d("2"),
		mintB: d("4"),
	})

	// 50/50 -> 25/75 on a $1000 book: a single $250 swap A -> B.
	current := makePortfolio(now, map[string]*domain.TokenBalance{
		mintA: bal(mintA, "AAA", 9, "250", "500"),
		mintB: bal(mintB, "BBB", 6, "125", "500"),
	})
	target := makePortfolio(now, map[string]*domain.TokenBalance{
		mintA: bal(mintA, "AAA", 9, "125", "250"),
		mintB: bal(mintB, "BBB", 6, "187.5", "750"),
	})

	trades, err := p.CreateTradePlan(context.Background(), current, target)
	if err != nil {
		t.Fatalf("CreateTradePlan: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected one swap, got %d: %+v", len(trades), trades)
	}
	tr := trades[0]
	if tr.FromMint != mintA || tr.ToMint != mintB {
		t.Errorf("pair = %s -> %s, want A -> B", tr.FromMint, tr.ToMint)
	}
	if !tr.USDValue.Equal(d("250")) {
		t.Errorf("usd = %s, want 250", tr.USDValue)
	}
	// $250 at $2 per A and $4 per B.
	if !tr.FromAmount.Equal(d("125")) || !tr.ToAmount.Equal(d("62.5")) {
		t.Errorf("amounts = %s/%s, want 125/62.5", tr.FromAmount, tr.ToAmount)
	}
}

func TestCreateTradePlan_EmptyTargetLiquidatesEverything(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPlanner(t, now, map[string]decimal.Decimal{
		mintA: d("2"),
		mintB: d("4"),
	})

	current := makePortfolio(now, map[string]*domain.TokenBalance{
		mintA:           bal(mintA, "AAA", 9, "250", "500"),
		mintB:           bal(mintB, "BBB", 6, "75", "300"),
		domain.USDCMint: bal(domain.USDCMint, "USDC", 6, "200", "200"),
	})
	target := p.CreateTargetPortfolio(nil, current.TotalValueUSD)

	trades, err := p.CreateTradePlan(context.Background(), current, target)
	if err != nil {
		t.Fatalf("CreateTradePlan: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 liquidation trades, got %d: %+v", len(trades), trades)
	}
	for _, tr := range trades {
		if tr.ToMint != domain.USDCMint {
			t.Errorf("liquidation should settle into the reference asset, got %s -> %s",
				tr.FromMint, tr.ToMint)
		}
	}
	// Full positions, not partial trims.
	if !trades[0].USDValue.Equal(d("500")) || !trades[0].FromAmount.Equal(d("250")) {
		t.Errorf("A leg = $%s / %s, want $500 / 250", trades[0].USDValue, trades[0].FromAmount)
	}
	if !trades[1].USDValue.Equal(d("300")) || !trades[1].FromAmount.Equal(d("75")) {
		t.Errorf("B leg = $%s / %s, want $300 / 75", trades[1].USDValue, trades[1].FromAmount)
	}
}

func TestCreateTradePlan_NilPortfolio(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := newTestPlanner(t, now, nil)

	if _, err := p.CreateTradePlan(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for nil portfolios")
	}
}

func TestCreateTradePlan_PriceLookupErrorDiscardsPlan(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p, err := New(
		domain.DefaultRiskConfig(),
		domain.NewAliasResolver(nil),
		stubPrices{err: errors.New("rate limited")},
		WithClock(func() time.Time { return now }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	current := makePortfolio(now, map[string]*domain.TokenBalance{
		mintA: bal(mintA, "AAA", 9, "250", "500"),
	})
	target := makePortfolio(now, map[string]*domain.TokenBalance{
		mintB: bal(mintB, "BBB", 6, "125", "500"),
	})

	trades, err := p.CreateTradePlan(context.Background(), current, target)
	if err == nil {
		t.Fatal("expected terminal error when price lookup fails")
	}
	if trades != nil {
		t.Errorf("expected no partial plan, got %+v", trades)
	}
}
