// Package main syncs the token metadata registry from the Jupiter
// token list into PostgreSQL.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"solana-copy-trader/internal/config"
	"solana-copy-trader/internal/metadata"
	"solana-copy-trader/internal/storage/migrations"
	pgstore "solana-copy-trader/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	tokenListURL := flag.String("token-list-url", metadata.DefaultTokenListURL, "Token list endpoint")

	flag.Parse()

	logger := log.New(os.Stdout, "[tokens] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	store := pgstore.NewTokenMetadataStore(pool)
	syncer := metadata.NewRegistrySyncer(store,
		metadata.WithTokenListURL(*tokenListURL),
		metadata.WithSyncerLogger(logger))

	n, err := syncer.Sync(ctx)
	if err != nil {
		logger.Fatalf("sync token list: %v", err)
	}
	logger.Printf("Synced %d tokens", n)
}
