package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

func TestTokenMetadataStore_UpsertAndGetByMint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetadataStore(pool)
	ctx := context.Background()

	meta := &domain.TokenMetadata{
		Mint:      "mint1",
		Symbol:    "TT",
		Name:      "TestToken",
		Decimals:  9,
		Source:    "jupiter",
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Upsert(ctx, meta))

	result, err := store.GetByMint(ctx, "mint1")
	require.NoError(t, err)
	assert.Equal(t, "TT", result.Symbol)
	assert.Equal(t, "TestToken", result.Name)
	assert.Equal(t, 9, result.Decimals)
	assert.Equal(t, "jupiter", result.Source)
}

func TestTokenMetadataStore_UpsertRefreshes(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetadataStore(pool)
	ctx := context.Background()

	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Upsert(ctx, &domain.TokenMetadata{
		Mint: "mint1", Symbol: "OLD", Decimals: 6, UpdatedAt: ts,
	}))
	require.NoError(t, store.Upsert(ctx, &domain.TokenMetadata{
		Mint: "mint1", Symbol: "NEW", Decimals: 9, UpdatedAt: ts.Add(time.Hour),
	}))

	result, err := store.GetByMint(ctx, "mint1")
	require.NoError(t, err)
	assert.Equal(t, "NEW", result.Symbol)
	assert.Equal(t, 9, result.Decimals)
}

func TestTokenMetadataStore_GetByMintNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetadataStore(pool)

	_, err := store.GetByMint(context.Background(), "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestTokenMetadataStore_GetByMints(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetadataStore(pool)
	ctx := context.Background()

	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	metas := []*domain.TokenMetadata{
		{Mint: "mint1", Symbol: "ONE", Decimals: 6, UpdatedAt: ts},
		{Mint: "mint2", Symbol: "TWO", Decimals: 9, UpdatedAt: ts},
		{Mint: "mint3", Symbol: "THREE", Decimals: 5, UpdatedAt: ts},
	}
	require.NoError(t, store.UpsertBulk(ctx, metas))

	result, err := store.GetByMints(ctx, []string{"mint1", "mint3", "missing"})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "ONE", result["mint1"].Symbol)
	assert.Equal(t, "THREE", result["mint3"].Symbol)
	assert.NotContains(t, result, "missing")
}

func TestTokenMetadataStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenMetadataStore(pool)
	ctx := context.Background()

	assert.True(t, errors.Is(store.Upsert(ctx, nil), storage.ErrInvalidInput))
	assert.True(t, errors.Is(store.Upsert(ctx, &domain.TokenMetadata{Symbol: "X"}), storage.ErrInvalidInput))
}
