// Package agent wires the copy-trading pipeline end to end:
// source analysis → target aggregation → trade planning → execution.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/executor"
	"solana-copy-trader/internal/observability"
	"solana-copy-trader/internal/planner"
	"solana-copy-trader/internal/portfolio"
	"solana-copy-trader/internal/solana"
	"solana-copy-trader/internal/storage"
)

// ErrInsufficientGas indicates the trading wallet's SOL balance is
// below the configured gas buffer; execution is refused.
var ErrInsufficientGas = errors.New("insufficient gas balance")

// TradeExecutor submits a planned trade sequence.
type TradeExecutor interface {
	ExecuteTrades(ctx context.Context, trades []*domain.SwapTrade) []*domain.SwapResult
}

var _ TradeExecutor = (*executor.Executor)(nil)

var lamportsPerSOL = decimal.NewFromInt(solana.LamportsPerSOL)

// CopyTradeAgent mirrors a set of source wallets into the trading
// wallet, bounded by the risk configuration.
type CopyTradeAgent struct {
	wallet   string
	sources  []string
	cfg      domain.RiskConfig
	analyzer *portfolio.Analyzer
	planner  *planner.Planner
	executor TradeExecutor
	rpc      solana.RPCClient
	ws       solana.WSClient
	tradeLog storage.TradeLogStore
	logger   *log.Logger
	now      func() time.Time
}

// Options for creating a CopyTradeAgent.
type Options struct {
	// Wallet is the trading wallet address.
	Wallet string
	// Sources are the wallets whose portfolios are mirrored.
	Sources []string

	Config   domain.RiskConfig
	Analyzer *portfolio.Analyzer
	Planner  *planner.Planner
	RPC      solana.RPCClient

	// Executor is required for ExecuteTrades; a plan-only agent may
	// leave it nil.
	Executor TradeExecutor
	// WS is required for Watch; otherwise optional.
	WS solana.WSClient
	// TradeLog records executed trades when set.
	TradeLog storage.TradeLogStore

	Logger *log.Logger
	// Clock overrides the time source, for tests.
	Clock func() time.Time
}

// New creates a CopyTradeAgent.
func New(opts Options) (*CopyTradeAgent, error) {
	if opts.Wallet == "" {
		return nil, fmt.Errorf("agent requires a trading wallet")
	}
	if len(opts.Sources) == 0 {
		return nil, fmt.Errorf("agent requires at least one source wallet")
	}
	if opts.Analyzer == nil || opts.Planner == nil || opts.RPC == nil {
		return nil, fmt.Errorf("agent requires analyzer, planner and rpc client")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &CopyTradeAgent{
		wallet:   opts.Wallet,
		sources:  opts.Sources,
		cfg:      opts.Config,
		analyzer: opts.Analyzer,
		planner:  opts.Planner,
		executor: opts.Executor,
		rpc:      opts.RPC,
		ws:       opts.WS,
		tradeLog: opts.TradeLog,
		logger:   logger,
		now:      now,
	}, nil
}

// Plan is one planning run's outcome.
type Plan struct {
	Current *domain.Portfolio
	Target  *domain.Portfolio
	Trades  []domain.SwapTrade
}

// TotalUSD returns the total USD value of the planned trades.
func (p *Plan) TotalUSD() decimal.Decimal {
	total := decimal.Zero
	for _, t := range p.Trades {
		total = total.Add(t.USDValue)
	}
	return total
}

// AnalyzeSourcePortfolios snapshots every source wallet. A source that
// fails to fetch is logged and skipped; an error is returned only when
// no source could be fetched at all.
func (a *CopyTradeAgent) AnalyzeSourcePortfolios(ctx context.Context) (map[string]*domain.Portfolio, error) {
	portfolios := make(map[string]*domain.Portfolio, len(a.sources))
	var lastErr error

	for _, source := range a.sources {
		p, err := a.analyzer.GetWalletPortfolio(ctx, source)
		observability.RecordSourceFetch(err)
		if err != nil {
			a.logger.Printf("[agent] source %s fetch failed: %v", source, err)
			lastErr = err
			continue
		}
		portfolios[source] = p
	}

	if len(portfolios) == 0 {
		return nil, fmt.Errorf("no source portfolio available: %w", lastErr)
	}
	return portfolios, nil
}

// CreatePlan runs the full planning pipeline: snapshot the trading
// wallet, aggregate the sources into a target and diff the two into an
// executable trade sequence.
func (a *CopyTradeAgent) CreatePlan(ctx context.Context) (*Plan, error) {
	started := a.now()

	current, err := a.analyzer.GetWalletPortfolio(ctx, a.wallet)
	if err != nil {
		observability.RecordPlanningRun(a.now().Sub(started).Seconds(), 0, err)
		return nil, fmt.Errorf("snapshot trading wallet: %w", err)
	}

	sources, err := a.AnalyzeSourcePortfolios(ctx)
	if err != nil {
		observability.RecordPlanningRun(a.now().Sub(started).Seconds(), 0, err)
		return nil, err
	}

	target := a.planner.CreateTargetPortfolio(sources, current.TotalValueUSD)

	trades, err := a.planner.CreateTradePlan(ctx, current, target)
	observability.RecordPlanningRun(a.now().Sub(started).Seconds(), len(trades), err)
	if err != nil {
		return nil, fmt.Errorf("create trade plan: %w", err)
	}

	a.logger.Printf("[agent] planned %d trades against %d sources", len(trades), len(sources))
	return &Plan{Current: current, Target: target, Trades: trades}, nil
}

// CheckGasBalance verifies the trading wallet holds at least the
// configured SOL gas buffer.
func (a *CopyTradeAgent) CheckGasBalance(ctx context.Context) error {
	lamports, err := a.rpc.GetBalance(ctx, a.wallet)
	if err != nil {
		return fmt.Errorf("get gas balance: %w", err)
	}

	sol := decimal.NewFromInt(int64(lamports)).Div(lamportsPerSOL)
	gas, _ := sol.Float64()
	observability.UpdateGasBalance(gas)

	if sol.LessThan(a.cfg.GasBufferSOL) {
		return fmt.Errorf("%w: have %s SOL, need %s SOL", ErrInsufficientGas, sol, a.cfg.GasBufferSOL)
	}
	return nil
}

// ExecuteTrades runs a planned trade sequence after the gas check and
// records every outcome to the trade log. The returned results are in
// trade order.
func (a *CopyTradeAgent) ExecuteTrades(ctx context.Context, trades []domain.SwapTrade) ([]*domain.SwapResult, error) {
	if a.executor == nil {
		return nil, fmt.Errorf("agent has no executor configured")
	}
	if len(trades) == 0 {
		return nil, nil
	}

	if err := a.CheckGasBalance(ctx); err != nil {
		return nil, err
	}

	runID := a.now().UTC().Format("20060102T150405.000Z")
	started := a.now()

	planned := make([]*domain.SwapTrade, len(trades))
	for i := range trades {
		planned[i] = &trades[i]
	}
	results := a.executor.ExecuteTrades(ctx, planned)

	entries := make([]*domain.TradeLogEntry, 0, len(results))
	succeeded := 0
	for i, result := range results {
		trade := trades[i]
		usd, _ := trade.USDValue.Float64()
		observability.RecordTradeExecuted(result.Success, usd, a.now().Sub(started).Seconds())
		if result.Success {
			succeeded++
		}

		entries = append(entries, &domain.TradeLogEntry{
			RunID:        runID,
			Wallet:       a.wallet,
			FromMint:     trade.FromMint,
			FromSymbol:   trade.FromSymbol,
			ToMint:       trade.ToMint,
			ToSymbol:     trade.ToSymbol,
			FromAmount:   trade.FromAmount,
			ToAmount:     trade.ToAmount,
			USDValue:     trade.USDValue,
			Success:      result.Success,
			TxSignature:  result.TxSignature,
			ErrorMessage: result.ErrorMessage,
			ExecutedAt:   a.now().UTC(),
		})
	}

	if a.tradeLog != nil {
		if err := a.tradeLog.InsertBulk(ctx, entries); err != nil {
			a.logger.Printf("[agent] trade log write failed: %v", err)
		}
	}

	if succeeded == len(results) {
		observability.DefaultMetrics.LastSuccessfulRun.Set(float64(a.now().Unix()))
	}
	a.logger.Printf("[agent] run %s: %d/%d trades succeeded", runID, succeeded, len(results))
	return results, nil
}

// Watch subscribes to account changes on every source wallet and calls
// onChange with the changed wallet. Blocks until the context is
// cancelled or the subscription stream closes.
func (a *CopyTradeAgent) Watch(ctx context.Context, onChange func(pubkey string)) error {
	if a.ws == nil {
		return fmt.Errorf("agent has no websocket client configured")
	}

	merged := make(chan solana.AccountNotification)
	for _, source := range a.sources {
		ch, err := a.ws.SubscribeAccount(ctx, source)
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", source, err)
		}
		go func() {
			for n := range ch {
				select {
				case merged <- n:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	a.logger.Printf("[agent] watching %d source wallets", len(a.sources))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-merged:
			observability.RecordAccountChange()
			a.logger.Printf("[agent] account change on %s at slot %d", n.Pubkey, n.Slot)
			onChange(n.Pubkey)
		}
	}
}
