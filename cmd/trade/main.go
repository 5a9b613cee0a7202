// Package main plans and executes copy trades. Each run snapshots the
// sources, plans the rebalance and executes it after confirmation.
// Supports one-shot, interval and watch (account-change triggered)
// modes.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"solana-copy-trader/internal/agent"
	"solana-copy-trader/internal/config"
	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/executor"
	"solana-copy-trader/internal/metadata"
	"solana-copy-trader/internal/observability"
	"solana-copy-trader/internal/planner"
	"solana-copy-trader/internal/portfolio"
	"solana-copy-trader/internal/pricing"
	"solana-copy-trader/internal/solana"
	"solana-copy-trader/internal/storage"
	chstore "solana-copy-trader/internal/storage/clickhouse"
	"solana-copy-trader/internal/storage/memory"
	"solana-copy-trader/internal/storage/migrations"
	pgstore "solana-copy-trader/internal/storage/postgres"
	"solana-copy-trader/internal/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	rpcEndpoint := flag.String("rpc-endpoint", cfg.RPCEndpoint, "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", cfg.WSEndpoint, "Solana WebSocket endpoint (required for -watch)")
	sources := flag.String("sources", strings.Join(cfg.SourceWallets, ","), "Comma-separated source wallet addresses")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL DSN for the token registry (in-memory when empty)")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse DSN for the trade log (in-memory when empty)")
	yes := flag.Bool("yes", false, "Execute without asking for confirmation")
	interval := flag.Duration("interval", 0, "Rebalance repeatedly at this interval (one-shot when 0)")
	watch := flag.Bool("watch", false, "Rebalance when a source wallet changes")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics HTTP address")
	verbose := flag.Bool("verbose", false, "Enable debug planning output")

	flag.Parse()

	logger := log.New(os.Stdout, "[trade] ", log.LstdFlags)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if cfg.WalletPrivateKey == "" {
		logger.Fatal("WALLET_PRIVATE_KEY is required")
	}
	if *watch && *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required with -watch")
	}

	w, err := wallet.FromBase58Key(cfg.WalletPrivateKey)
	if err != nil {
		logger.Fatalf("load wallet: %v", err)
	}
	logger.Printf("Trading wallet: %s", w.Address())

	sourceList := splitList(*sources)
	if len(sourceList) == 0 {
		logger.Fatal("--sources or SOURCE_WALLETS is required")
	}
	for _, s := range sourceList {
		if err := wallet.ValidateAddress(s); err != nil {
			logger.Fatalf("source wallet %s: %v", s, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	metadataStore, tradeLog, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("create stores: %v", err)
	}
	defer cleanup()

	rpc := solana.NewHTTPClient(*rpcEndpoint)
	prices := pricing.NewJupiterClient(pricing.WithLogger(logger))
	resolver := metadata.NewResolver(metadataStore, metadata.WithLogger(logger))
	analyzer := portfolio.NewAnalyzer(rpc, prices, resolver, portfolio.WithLogger(logger))

	pl, err := planner.New(cfg.Risk, domain.NewAliasResolver(domain.DefaultAliases()), prices,
		planner.WithLogger(logger),
		planner.WithVerbose(*verbose),
		planner.WithExcludedMints(domain.SOLMint))
	if err != nil {
		logger.Fatalf("create planner: %v", err)
	}

	jupiter := executor.NewJupiterDEX(rpc, w, executor.WithSwapLogger(logger))
	exec, err := executor.New([]executor.DEX{jupiter}, rpc,
		executor.WithSlippageBps(cfg.Risk.MaxSlippageBps),
		executor.WithLogger(logger))
	if err != nil {
		logger.Fatalf("create executor: %v", err)
	}

	var ws solana.WSClient
	if *watch {
		ws, err = solana.NewWSClient(ctx, *wsEndpoint, nil)
		if err != nil {
			logger.Fatalf("create websocket client: %v", err)
		}
		defer ws.Close()
	}

	a, err := agent.New(agent.Options{
		Wallet:   w.Address(),
		Sources:  sourceList,
		Config:   cfg.Risk,
		Analyzer: analyzer,
		Planner:  pl,
		RPC:      rpc,
		Executor: exec,
		WS:       ws,
		TradeLog: tradeLog,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatalf("create agent: %v", err)
	}

	go serveMetrics(*metricsAddr, logger)

	runner := &runner{agent: a, logger: logger, autoConfirm: *yes}

	switch {
	case *watch:
		err = runWatch(ctx, a, runner, logger)
	case *interval > 0:
		err = runInterval(ctx, runner, *interval, logger)
	default:
		err = runner.runOnce(ctx)
	}
	if err != nil && err != context.Canceled {
		logger.Fatalf("run failed: %v", err)
	}
	logger.Println("Done")
}

// runner executes one plan-confirm-execute cycle at a time.
type runner struct {
	agent       *agent.CopyTradeAgent
	logger      *log.Logger
	autoConfirm bool

	mu      sync.Mutex
	running bool
}

// runOnce plans and, after confirmation, executes one rebalance.
// Overlapping invocations are skipped.
func (r *runner) runOnce(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		r.logger.Println("Rebalance already running, skipping...")
		return nil
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	plan, err := r.agent.CreatePlan(ctx)
	if err != nil {
		return err
	}

	if len(plan.Trades) == 0 {
		r.logger.Println("Portfolio is balanced; nothing to do")
		return nil
	}

	fmt.Printf("\nPlanned trades (%d, $%s total):\n", len(plan.Trades), plan.TotalUSD().StringFixed(2))
	for i, t := range plan.Trades {
		fmt.Printf("  %2d. %s %s -> %s %s ($%s)\n",
			i+1,
			t.FromAmount.StringFixed(4), t.FromSymbol,
			t.ToAmount.StringFixed(4), t.ToSymbol,
			t.USDValue.StringFixed(2))
	}

	if !r.autoConfirm && !confirm() {
		r.logger.Println("Aborted by user")
		return nil
	}

	results, err := r.agent.ExecuteTrades(ctx, plan.Trades)
	if err != nil {
		return err
	}

	succeeded := 0
	for i, res := range results {
		if res.Success {
			succeeded++
			r.logger.Printf("Trade %d confirmed: %s", i+1, res.TxSignature)
		} else {
			r.logger.Printf("Trade %d FAILED: %s", i+1, res.ErrorMessage)
		}
	}
	r.logger.Printf("Executed %d/%d trades", succeeded, len(results))
	return nil
}

// confirm asks the operator to approve the plan.
func confirm() bool {
	fmt.Print("\nExecute these trades? [y/N] ")
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// runInterval rebalances on a fixed schedule, starting immediately.
func runInterval(ctx context.Context, r *runner, interval time.Duration, logger *log.Logger) error {
	logger.Printf("Rebalancing every %v", interval)

	if err := r.runOnce(ctx); err != nil {
		logger.Printf("Rebalance failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.runOnce(ctx); err != nil {
				logger.Printf("Rebalance failed: %v", err)
			}
		}
	}
}

// runWatch rebalances whenever a source wallet changes, with a short
// debounce so bursts of account updates trigger a single run.
func runWatch(ctx context.Context, a *agent.CopyTradeAgent, r *runner, logger *log.Logger) error {
	logger.Println("Watching source wallets for changes...")

	trigger := make(chan string, 16)
	go func() {
		const debounce = 5 * time.Second
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case pubkey := <-trigger:
				logger.Printf("Source %s changed", pubkey)
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, func() {
					if err := r.runOnce(ctx); err != nil {
						logger.Printf("Rebalance failed: %v", err)
					}
				})
			}
		}
	}()

	return a.Watch(ctx, func(pubkey string) { trigger <- pubkey })
}

// createStores wires the token registry and trade log backends.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string) (storage.TokenMetadataStore, storage.TradeLogStore, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var metadataStore storage.TokenMetadataStore = memory.NewTokenMetadataStore()
	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)
		metadataStore = pgstore.NewTokenMetadataStore(pool)
	}

	var tradeLog storage.TradeLogStore = memory.NewTradeLogStore()
	if clickhouseDSN != "" {
		if err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN); err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		cleanups = append(cleanups, func() { conn.Close() })
		tradeLog = chstore.NewTradeLogStore(conn)
	}

	return metadataStore, tradeLog, cleanup, nil
}

// serveMetrics exposes Prometheus metrics and a health check.
func serveMetrics(addr string, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	logger.Printf("Metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("Metrics server error: %v", err)
	}
}

func splitList(s string) []string {
	var list []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			list = append(list, item)
		}
	}
	return list
}
