package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/metadata"
	"solana-copy-trader/internal/solana"
	"solana-copy-trader/internal/solana/stub"
	"solana-copy-trader/internal/storage/memory"
)

type stubPrices struct {
	prices map[string]decimal.Decimal
	err    error
}

func (s *stubPrices) GetTokenPrices(_ context.Context, mints []string) (map[string]decimal.Decimal, error) {
	if s.err != nil {
		return nil, s.err
	}
	result := make(map[string]decimal.Decimal)
	for _, mint := range mints {
		if p, ok := s.prices[mint]; ok {
			result[mint] = p
		}
	}
	return result, nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestAnalyzer(rpc solana.RPCClient, prices map[string]decimal.Decimal, metas ...*domain.TokenMetadata) *Analyzer {
	store := memory.NewTokenMetadataStore()
	for _, m := range metas {
		if err := store.Upsert(context.Background(), m); err != nil {
			panic(err)
		}
	}
	resolver := metadata.NewResolver(store)
	now := func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return NewAnalyzer(rpc, &stubPrices{prices: prices}, resolver, WithClock(now))
}

func TestGetWalletPortfolio_TokensAndSOL(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Balances["wallet1"] = 2_000_000_000 // 2 SOL
	rpc.TokenAccounts["wallet1"] = []solana.TokenAccount{
		{Pubkey: "acc1", Mint: "mintA", Owner: "wallet1", Amount: d("10"), Decimals: 6},
	}

	a := newTestAnalyzer(rpc, map[string]decimal.Decimal{
		"mintA":        d("5"),
		domain.SOLMint: d("100"),
	}, &domain.TokenMetadata{Mint: "mintA", Symbol: "AAA", Decimals: 6, UpdatedAt: time.Now()})

	p, err := a.GetWalletPortfolio(context.Background(), "wallet1")
	if err != nil {
		t.Fatalf("GetWalletPortfolio failed: %v", err)
	}

	if !p.TotalValueUSD.Equal(d("250")) {
		t.Errorf("expected total 250, got %s", p.TotalValueUSD)
	}

	tokenBal, ok := p.Balance("mintA")
	if !ok {
		t.Fatal("expected mintA balance")
	}
	if tokenBal.Symbol != "AAA" {
		t.Errorf("expected symbol AAA, got %s", tokenBal.Symbol)
	}
	if !tokenBal.USDValue.Equal(d("50")) {
		t.Errorf("expected mintA value 50, got %s", tokenBal.USDValue)
	}

	solBal, ok := p.Balance(domain.SOLMint)
	if !ok {
		t.Fatal("expected SOL balance")
	}
	if !solBal.Amount.Equal(d("2")) {
		t.Errorf("expected 2 SOL, got %s", solBal.Amount)
	}
	if !solBal.USDValue.Equal(d("200")) {
		t.Errorf("expected SOL value 200, got %s", solBal.USDValue)
	}
	if solBal.Decimals != 9 {
		t.Errorf("expected 9 decimals for SOL, got %d", solBal.Decimals)
	}
}

func TestGetWalletPortfolio_EmptyWallet(t *testing.T) {
	a := newTestAnalyzer(stub.NewRPCClient(), nil)

	p, err := a.GetWalletPortfolio(context.Background(), "emptywallet")
	if err != nil {
		t.Fatalf("GetWalletPortfolio failed: %v", err)
	}
	if !p.TotalValueUSD.IsZero() {
		t.Errorf("expected zero total, got %s", p.TotalValueUSD)
	}
	if len(p.Balances) != 0 {
		t.Errorf("expected no balances, got %d", len(p.Balances))
	}
	if p.Timestamp.IsZero() {
		t.Error("expected snapshot timestamp to be set")
	}
}

func TestGetWalletPortfolio_MergesDuplicateMintAccounts(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.TokenAccounts["wallet1"] = []solana.TokenAccount{
		{Pubkey: "acc1", Mint: "mintA", Owner: "wallet1", Amount: d("3"), Decimals: 6},
		{Pubkey: "acc2", Mint: "mintA", Owner: "wallet1", Amount: d("7"), Decimals: 6},
	}

	a := newTestAnalyzer(rpc, map[string]decimal.Decimal{"mintA": d("2")})

	p, err := a.GetWalletPortfolio(context.Background(), "wallet1")
	if err != nil {
		t.Fatalf("GetWalletPortfolio failed: %v", err)
	}

	bal, ok := p.Balance("mintA")
	if !ok {
		t.Fatal("expected mintA balance")
	}
	if !bal.Amount.Equal(d("10")) {
		t.Errorf("expected merged amount 10, got %s", bal.Amount)
	}
	if !p.TotalValueUSD.Equal(d("20")) {
		t.Errorf("expected total 20, got %s", p.TotalValueUSD)
	}
}

func TestGetWalletPortfolio_UnknownPriceValuedZero(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.TokenAccounts["wallet1"] = []solana.TokenAccount{
		{Pubkey: "acc1", Mint: "mintA", Owner: "wallet1", Amount: d("10"), Decimals: 6},
		{Pubkey: "acc2", Mint: "mintB", Owner: "wallet1", Amount: d("4"), Decimals: 9},
	}

	a := newTestAnalyzer(rpc, map[string]decimal.Decimal{"mintA": d("1")})

	p, err := a.GetWalletPortfolio(context.Background(), "wallet1")
	if err != nil {
		t.Fatalf("GetWalletPortfolio failed: %v", err)
	}

	if !p.TotalValueUSD.Equal(d("10")) {
		t.Errorf("expected total 10, got %s", p.TotalValueUSD)
	}

	bal, ok := p.Balance("mintB")
	if !ok {
		t.Fatal("expected unpriced mintB to stay in the portfolio")
	}
	if !bal.USDValue.IsZero() {
		t.Errorf("expected zero value for unpriced mint, got %s", bal.USDValue)
	}
	if !bal.Amount.Equal(d("4")) {
		t.Errorf("expected amount 4, got %s", bal.Amount)
	}
}

func TestGetWalletPortfolio_SkipsZeroAmountAccounts(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.TokenAccounts["wallet1"] = []solana.TokenAccount{
		{Pubkey: "acc1", Mint: "mintA", Owner: "wallet1", Amount: decimal.Zero, Decimals: 6},
	}

	a := newTestAnalyzer(rpc, map[string]decimal.Decimal{"mintA": d("1")})

	p, err := a.GetWalletPortfolio(context.Background(), "wallet1")
	if err != nil {
		t.Fatalf("GetWalletPortfolio failed: %v", err)
	}
	if len(p.Balances) != 0 {
		t.Errorf("expected empty portfolio, got %d balances", len(p.Balances))
	}
}
