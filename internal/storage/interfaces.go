package storage

import (
	"context"

	"solana-copy-trader/internal/domain"
)

// TokenMetadataStore provides access to the token metadata registry.
// The registry is a cache of the public token list; entries are
// refreshed in place, so writes are upserts keyed by mint.
type TokenMetadataStore interface {
	// Upsert inserts or refreshes metadata for a mint.
	Upsert(ctx context.Context, m *domain.TokenMetadata) error

	// UpsertBulk inserts or refreshes a batch of entries.
	UpsertBulk(ctx context.Context, metas []*domain.TokenMetadata) error

	// GetByMint retrieves metadata by mint. Returns ErrNotFound if the
	// mint is unknown.
	GetByMint(ctx context.Context, mint string) (*domain.TokenMetadata, error)

	// GetByMints retrieves metadata for a set of mints. Unknown mints
	// are absent from the result, never an error.
	GetByMints(ctx context.Context, mints []string) (map[string]*domain.TokenMetadata, error)
}

// TradeLogStore provides access to executed-trade history storage.
type TradeLogStore interface {
	// Insert appends one trade result.
	Insert(ctx context.Context, e *domain.TradeLogEntry) error

	// InsertBulk appends the results of a whole run.
	InsertBulk(ctx context.Context, entries []*domain.TradeLogEntry) error

	// GetByWallet retrieves trades for a wallet, newest first, at most
	// limit entries (0 means no limit).
	GetByWallet(ctx context.Context, wallet string, limit int) ([]*domain.TradeLogEntry, error)
}
