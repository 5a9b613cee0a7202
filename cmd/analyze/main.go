// Package main provides a dry-run analysis: it snapshots the source
// wallets and the trading wallet, builds the target allocation and
// prints the trade plan. Nothing is ever executed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"solana-copy-trader/internal/agent"
	"solana-copy-trader/internal/config"
	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/metadata"
	"solana-copy-trader/internal/planner"
	"solana-copy-trader/internal/portfolio"
	"solana-copy-trader/internal/pricing"
	"solana-copy-trader/internal/solana"
	"solana-copy-trader/internal/storage"
	"solana-copy-trader/internal/storage/memory"
	pgstore "solana-copy-trader/internal/storage/postgres"
	"solana-copy-trader/internal/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	rpcEndpoint := flag.String("rpc-endpoint", cfg.RPCEndpoint, "Solana RPC HTTP endpoint")
	walletAddr := flag.String("wallet", "", "Trading wallet address (derived from WALLET_PRIVATE_KEY when empty)")
	sources := flag.String("sources", strings.Join(cfg.SourceWallets, ","), "Comma-separated source wallet addresses")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL DSN for the token registry (in-memory when empty)")
	verbose := flag.Bool("verbose", false, "Enable debug planning output")

	flag.Parse()

	logger := log.New(os.Stdout, "[analyze] ", log.LstdFlags)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}

	tradingWallet := *walletAddr
	if tradingWallet == "" && cfg.WalletPrivateKey != "" {
		w, err := wallet.FromBase58Key(cfg.WalletPrivateKey)
		if err != nil {
			logger.Fatalf("derive wallet address: %v", err)
		}
		tradingWallet = w.Address()
	}
	if tradingWallet == "" {
		logger.Fatal("--wallet or WALLET_PRIVATE_KEY is required")
	}
	if err := wallet.ValidateAddress(tradingWallet); err != nil {
		logger.Fatalf("trading wallet: %v", err)
	}

	sourceList := splitList(*sources)
	if len(sourceList) == 0 {
		logger.Fatal("--sources or SOURCE_WALLETS is required")
	}
	for _, s := range sourceList {
		if err := wallet.ValidateAddress(s); err != nil {
			logger.Fatalf("source wallet %s: %v", s, err)
		}
	}

	ctx := context.Background()

	metadataStore, cleanup, err := createMetadataStore(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("create metadata store: %v", err)
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

	a, err := agent.New(agent.Options{
		Wallet:   tradingWallet,
		Sources:  sourceList,
		Config:   cfg.Risk,
		Analyzer: analyzer,
		Planner:  pl,
		RPC:      rpc,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatalf("create agent: %v", err)
	}

	plan, err := a.CreatePlan(ctx)
	if err != nil {
		logger.Fatalf("create plan: %v", err)
	}

	printPlan(plan)
}

// createMetadataStore returns the postgres-backed registry when a DSN
// is set, in-memory otherwise.
func createMetadataStore(ctx context.Context, dsn string) (storage.TokenMetadataStore, func(), error) {
	if dsn == "" {
		return memory.NewTokenMetadataStore(), func() {}, nil
	}
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return pgstore.NewTokenMetadataStore(pool), pool.Close, nil
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

// printPlan renders the portfolios and the planned trades.
func printPlan(plan *agent.Plan) {
	fmt.Println()
	fmt.Printf("Current portfolio: $%s across %d positions\n",
		plan.Current.TotalValueUSD.StringFixed(2), len(plan.Current.Balances))
	printPortfolio(plan.Current)

	fmt.Printf("\nTarget portfolio: $%s across %d positions\n",
		plan.Target.TotalValueUSD.StringFixed(2), len(plan.Target.Balances))
	printPortfolio(plan.Target)

	if len(plan.Trades) == 0 {
		fmt.Println("\nPortfolio is balanced; no trades needed.")
		return
	}

	fmt.Printf("\nPlanned trades (%d, $%s total):\n", len(plan.Trades), plan.TotalUSD().StringFixed(2))
	for i, t := range plan.Trades {
		fmt.Printf("  %2d. %s %s -> %s %s ($%s)\n",
			i+1,
			t.FromAmount.StringFixed(4), t.FromSymbol,
			t.ToAmount.StringFixed(4), t.ToSymbol,
			t.USDValue.StringFixed(2))
	}
	fmt.Println("\nDry run only; use the trade command to execute.")
}

var hundred = decimal.NewFromInt(100)

func printPortfolio(p *domain.Portfolio) {
	mints := make([]string, 0, len(p.Balances))
	for mint := range p.Balances {
		mints = append(mints, mint)
	}
	sort.Slice(mints, func(i, j int) bool {
		return p.Balances[mints[i]].USDValue.GreaterThan(p.Balances[mints[j]].USDValue)
	})
	for _, mint := range mints {
		b := p.Balances[mint]
		fmt.Printf("  %-12s %16s  $%12s  %6s%%\n",
			b.Symbol, b.Amount.StringFixed(4), b.USDValue.StringFixed(2),
			b.Weight().Mul(hundred).StringFixed(2))
	}
}
