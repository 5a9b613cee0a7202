package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
	"solana-copy-trader/internal/solana/stub"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fakeDEX is a scripted venue for executor tests.
type fakeDEX struct {
	name     string
	out      decimal.Decimal
	quoteErr error
	swapErr  error
	// swapErrOnce fails only the first ExecuteSwap call.
	swapErrOnce error
	sig         string

	quotes int
	swaps  int
}

func (f *fakeDEX) Name() string { return f.name }

func (f *fakeDEX) GetQuote(_ context.Context, trade *domain.SwapTrade, _ int) (*SwapQuote, error) {
	f.quotes++
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &SwapQuote{
		DEX:        f.name,
		InputMint:  trade.FromMint,
		OutputMint: trade.ToMint,
		InAmount:   trade.FromAmount,
		OutAmount:  f.out,
	}, nil
}

func (f *fakeDEX) ExecuteSwap(context.Context, *SwapQuote) (string, error) {
	f.swaps++
	if f.swapErrOnce != nil {
		err := f.swapErrOnce
		f.swapErrOnce = nil
		return "", err
	}
	if f.swapErr != nil {
		return "", f.swapErr
	}
	return f.sig, nil
}

func testTrade(usd string) *domain.SwapTrade {
	return &domain.SwapTrade{
		FromSymbol: "AAA", FromMint: "mintA", FromAmount: d("50"), FromDecimals: 6,
		ToSymbol: "BBB", ToMint: "mintB", ToAmount: d("25"), ToDecimals: 9,
		USDValue: d(usd),
	}
}

func newTestExecutor(t *testing.T, rpc solana.RPCClient, dexes ...DEX) *Executor {
	t.Helper()
	e, err := New(dexes, rpc,
		WithTradePacing(rate.Inf, 1),
		WithConfirmTimeout(200*time.Millisecond),
		WithPollInterval(time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func TestNew_RequiresDEX(t *testing.T) {
	if _, err := New(nil, stub.NewRPCClient()); err == nil {
		t.Fatal("expected error with no DEXes")
	}
}

func TestBestQuote_PicksHighestOutput(t *testing.T) {
	low := &fakeDEX{name: "low", out: d("100")}
	high := &fakeDEX{name: "high", out: d("110")}
	e := newTestExecutor(t, stub.NewRPCClient(), low, high)

	quote, err := e.BestQuote(context.Background(), testTrade("100"))
	if err != nil {
		t.Fatalf("BestQuote failed: %v", err)
	}
	if quote.DEX != "high" {
		t.Errorf("expected high venue, got %s", quote.DEX)
	}
	if low.quotes != 1 || high.quotes != 1 {
		t.Errorf("expected both venues quoted, got %d/%d", low.quotes, high.quotes)
	}
}

func TestBestQuote_SkipsFailingVenue(t *testing.T) {
	broken := &fakeDEX{name: "broken", quoteErr: errors.New("down")}
	ok := &fakeDEX{name: "ok", out: d("90")}
	e := newTestExecutor(t, stub.NewRPCClient(), broken, ok)

	quote, err := e.BestQuote(context.Background(), testTrade("100"))
	if err != nil {
		t.Fatalf("BestQuote failed: %v", err)
	}
	if quote.DEX != "ok" {
		t.Errorf("expected ok venue, got %s", quote.DEX)
	}
}

func TestBestQuote_AllVenuesFail(t *testing.T) {
	broken := &fakeDEX{name: "broken", quoteErr: errors.New("down")}
	e := newTestExecutor(t, stub.NewRPCClient(), broken)

	if _, err := e.BestQuote(context.Background(), testTrade("100")); err == nil {
		t.Fatal("expected error when no venue quotes")
	}
}

func TestExecuteTrades_Success(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Statuses["sig1"] = &solana.SignatureStatus{ConfirmationStatus: "confirmed"}
	dex := &fakeDEX{name: "jupiter", out: d("100"), sig: "sig1"}
	e := newTestExecutor(t, rpc, dex)

	results := e.ExecuteTrades(context.Background(), []*domain.SwapTrade{testTrade("100")})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !results[0].Success {
		t.Fatalf("expected success, got error: %s", results[0].ErrorMessage)
	}
	if results[0].TxSignature != "sig1" {
		t.Errorf("expected sig1, got %s", results[0].TxSignature)
	}
}

func TestExecuteTrades_FailureDoesNotAbortRun(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Statuses["sig2"] = &solana.SignatureStatus{ConfirmationStatus: "finalized"}

	dex := &fakeDEX{name: "jupiter", out: d("100"), sig: "sig2",
		swapErrOnce: errors.New("swap rejected")}
	e := newTestExecutor(t, rpc, dex)

	results := e.ExecuteTrades(context.Background(),
		[]*domain.SwapTrade{testTrade("100"), testTrade("200")})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Success {
		t.Error("expected first trade to fail")
	}
	if !results[1].Success {
		t.Errorf("expected second trade to succeed, got: %s", results[1].ErrorMessage)
	}
	if dex.swaps != 2 {
		t.Errorf("expected 2 swap attempts, got %d", dex.swaps)
	}
}

func TestExecuteTrades_RPCPreflightFailure(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.BlockhashErr = errors.New("endpoint down")
	dex := &fakeDEX{name: "jupiter", out: d("100"), sig: "sig1"}
	e := newTestExecutor(t, rpc, dex)

	results := e.ExecuteTrades(context.Background(),
		[]*domain.SwapTrade{testTrade("100"), testTrade("200")})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Success {
			t.Errorf("trade %d: expected failure when the endpoint is down", i)
		}
	}
	if dex.swaps != 0 {
		t.Errorf("expected no swap attempts, got %d", dex.swaps)
	}
}

func TestExecuteTrades_RecordsFailure(t *testing.T) {
	dex := &fakeDEX{name: "jupiter", out: d("100"), swapErr: errors.New("swap rejected")}
	rpc := stub.NewRPCClient()
	rpc.Statuses["sigok"] = &solana.SignatureStatus{ConfirmationStatus: "confirmed"}
	e := newTestExecutor(t, rpc, dex)

	results := e.ExecuteTrades(context.Background(), []*domain.SwapTrade{testTrade("100")})
	if results[0].Success {
		t.Fatal("expected failure")
	}
	if results[0].ErrorMessage == "" {
		t.Error("expected error message on failed trade")
	}
}

func TestExecuteTrades_ConfirmationTimeout(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Statuses["sig1"] = &solana.SignatureStatus{ConfirmationStatus: "processed"}
	dex := &fakeDEX{name: "jupiter", out: d("100"), sig: "sig1"}
	e := newTestExecutor(t, rpc, dex)

	results := e.ExecuteTrades(context.Background(), []*domain.SwapTrade{testTrade("100")})
	if results[0].Success {
		t.Fatal("expected timeout failure")
	}
	if results[0].TxSignature != "sig1" {
		t.Errorf("expected signature recorded even on timeout, got %q", results[0].TxSignature)
	}
}

func TestExecuteTrades_OnChainErrorFails(t *testing.T) {
	rpc := stub.NewRPCClient()
	rpc.Statuses["sig1"] = &solana.SignatureStatus{
		ConfirmationStatus: "confirmed",
		Err:                map[string]interface{}{"InstructionError": []interface{}{}},
	}
	dex := &fakeDEX{name: "jupiter", out: d("100"), sig: "sig1"}
	e := newTestExecutor(t, rpc, dex)

	results := e.ExecuteTrades(context.Background(), []*domain.SwapTrade{testTrade("100")})
	if results[0].Success {
		t.Fatal("expected on-chain error to fail the trade")
	}
}
