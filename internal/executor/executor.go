package executor

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/time/rate"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
)

// Executor submits planned trades sequentially, picking the best quote
// across the configured DEXes and waiting for on-chain confirmation.
// One failed trade never aborts the rest of the run.
type Executor struct {
	dexes          []DEX
	rpc            solana.RPCClient
	slippageBps    int
	limiter        *rate.Limiter
	confirmTimeout time.Duration
	pollInterval   time.Duration
	logger         *log.Logger
}

// ExecutorOption configures Executor.
type ExecutorOption func(*Executor)

// WithSlippageBps sets the slippage tolerance passed to quotes.
func WithSlippageBps(bps int) ExecutorOption {
	return func(e *Executor) { e.slippageBps = bps }
}

// WithTradePacing sets the rate limit between consecutive trades.
func WithTradePacing(r rate.Limit, burst int) ExecutorOption {
	return func(e *Executor) { e.limiter = rate.NewLimiter(r, burst) }
}

// WithConfirmTimeout sets how long to wait for a transaction to confirm.
func WithConfirmTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.confirmTimeout = d }
}

// WithPollInterval sets the confirmation polling interval.
func WithPollInterval(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.pollInterval = d }
}

// WithLogger sets the executor's logger.
func WithLogger(l *log.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// New creates an executor over the given DEXes. Defaults: 100 bps
// slippage, one trade per second, 60s confirmation timeout polled
// every 2s.
func New(dexes []DEX, rpc solana.RPCClient, opts ...ExecutorOption) (*Executor, error) {
	if len(dexes) == 0 {
		return nil, fmt.Errorf("executor requires at least one DEX")
	}
	e := &Executor{
		dexes:          dexes,
		rpc:            rpc,
		slippageBps:    100,
		limiter:        rate.NewLimiter(rate.Limit(1), 1),
		confirmTimeout: 60 * time.Second,
		pollInterval:   2 * time.Second,
		logger:         log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// BestQuote queries every DEX and returns the quote with the highest
// output amount. Venues that fail to quote are logged and skipped; an
// error is returned only when no venue quoted at all.
func (e *Executor) BestQuote(ctx context.Context, trade *domain.SwapTrade) (*SwapQuote, error) {
	var best *SwapQuote
	var lastErr error

	for _, dex := range e.dexes {
		quote, err := dex.GetQuote(ctx, trade, e.slippageBps)
		if err != nil {
			e.logger.Printf("[executor] quote from %s failed for %s->%s: %v",
				dex.Name(), trade.FromSymbol, trade.ToSymbol, err)
			lastErr = err
			continue
		}
		if best == nil || quote.OutAmount.GreaterThan(best.OutAmount) {
			best = quote
		}
	}

	if best == nil {
		return nil, fmt.Errorf("no quote for %s->%s: %w", trade.FromSymbol, trade.ToSymbol, lastErr)
	}
	return best, nil
}

// ExecuteTrades runs the plan in order, one result per trade. Failed
// trades carry the error message; execution continues with the next
// trade. Context cancellation stops the run, marking remaining trades
// as failed.
func (e *Executor) ExecuteTrades(ctx context.Context, trades []*domain.SwapTrade) []*domain.SwapResult {
	results := make([]*domain.SwapResult, len(trades))
	if len(trades) == 0 {
		return results
	}

	// Preflight: the endpoint must be able to serve a recent blockhash
	// before any swap is submitted through it.
	if _, err := e.rpc.GetLatestBlockhash(ctx); err != nil {
		e.logger.Printf("[executor] rpc preflight failed: %v", err)
		for i := range trades {
			results[i] = &domain.SwapResult{Success: false,
				ErrorMessage: fmt.Sprintf("rpc preflight: %v", err)}
		}
		return results
	}

	for i, trade := range trades {
		if err := e.limiter.Wait(ctx); err != nil {
			for j := i; j < len(trades); j++ {
				results[j] = &domain.SwapResult{Success: false, ErrorMessage: err.Error()}
			}
			return results
		}
		results[i] = e.executeOne(ctx, trade)
	}

	return results
}

func (e *Executor) executeOne(ctx context.Context, trade *domain.SwapTrade) *domain.SwapResult {
	dexByName := make(map[string]DEX, len(e.dexes))
	for _, dex := range e.dexes {
		dexByName[dex.Name()] = dex
	}

	quote, err := e.BestQuote(ctx, trade)
	if err != nil {
		return &domain.SwapResult{Success: false, ErrorMessage: err.Error()}
	}

	dex := dexByName[quote.DEX]
	sig, err := dex.ExecuteSwap(ctx, quote)
	if err != nil {
		return &domain.SwapResult{Success: false, ErrorMessage: err.Error()}
	}

	if err := e.waitForConfirmation(ctx, sig); err != nil {
		return &domain.SwapResult{Success: false, TxSignature: sig, ErrorMessage: err.Error()}
	}

	e.logger.Printf("[executor] confirmed %s->%s ($%s): %s",
		trade.FromSymbol, trade.ToSymbol, trade.USDValue, sig)
	return &domain.SwapResult{Success: true, TxSignature: sig}
}

// waitForConfirmation polls signature status until the transaction is
// confirmed, fails, or the timeout elapses.
func (e *Executor) waitForConfirmation(ctx context.Context, sig string) error {
	deadline := time.Now().Add(e.confirmTimeout)

	for {
		statuses, err := e.rpc.GetSignatureStatuses(ctx, []string{sig})
		if err == nil && len(statuses) == 1 && statuses[0] != nil {
			status := statuses[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed on chain: %v", sig, status.Err)
			}
			if status.Confirmed() {
				return nil
			}
		} else if err != nil {
			e.logger.Printf("[executor] status poll for %s failed: %v", sig, err)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("transaction %s not confirmed within %s", sig, e.confirmTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.pollInterval):
		}
	}
}
