package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

func TestTokenMetadataStore_UpsertAndGetByMint(t *testing.T) {
	store := NewTokenMetadataStore()
	ctx := context.Background()

	meta := &domain.TokenMetadata{
		Mint:      "mint1",
		Symbol:    "TT",
		Name:      "TestToken",
		Decimals:  9,
		Source:    "jupiter",
		UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := store.Upsert(ctx, meta); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	result, err := store.GetByMint(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if result.Symbol != "TT" {
		t.Errorf("Symbol mismatch: got %s, want TT", result.Symbol)
	}
	if result.Decimals != 9 {
		t.Errorf("Decimals mismatch: got %d, want 9", result.Decimals)
	}
}

func TestTokenMetadataStore_UpsertRefreshes(t *testing.T) {
	store := NewTokenMetadataStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, &domain.TokenMetadata{Mint: "mint1", Symbol: "OLD", Decimals: 6}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Upsert(ctx, &domain.TokenMetadata{Mint: "mint1", Symbol: "NEW", Decimals: 9}); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	result, err := store.GetByMint(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if result.Symbol != "NEW" || result.Decimals != 9 {
		t.Errorf("entry not refreshed: got %s/%d", result.Symbol, result.Decimals)
	}
}

func TestTokenMetadataStore_GetByMintNotFound(t *testing.T) {
	store := NewTokenMetadataStore()

	_, err := store.GetByMint(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTokenMetadataStore_InvalidInput(t *testing.T) {
	store := NewTokenMetadataStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil meta: expected ErrInvalidInput, got %v", err)
	}
	if err := store.Upsert(ctx, &domain.TokenMetadata{Symbol: "X"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty mint: expected ErrInvalidInput, got %v", err)
	}
}

func TestTokenMetadataStore_GetByMints(t *testing.T) {
	store := NewTokenMetadataStore()
	ctx := context.Background()

	metas := []*domain.TokenMetadata{
		{Mint: "mint1", Symbol: "ONE", Decimals: 6},
		{Mint: "mint2", Symbol: "TWO", Decimals: 9},
	}
	if err := store.UpsertBulk(ctx, metas); err != nil {
		t.Fatalf("UpsertBulk failed: %v", err)
	}

	result, err := store.GetByMints(ctx, []string{"mint1", "mint2", "missing"})
	if err != nil {
		t.Fatalf("GetByMints failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result))
	}
	if _, ok := result["missing"]; ok {
		t.Error("unknown mint should be absent")
	}
}

func TestTokenMetadataStore_DefensiveCopies(t *testing.T) {
	store := NewTokenMetadataStore()
	ctx := context.Background()

	meta := &domain.TokenMetadata{Mint: "mint1", Symbol: "TT", Decimals: 9}
	if err := store.Upsert(ctx, meta); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Mutating the original must not affect the stored copy.
	meta.Symbol = "CHANGED"

	result, _ := store.GetByMint(ctx, "mint1")
	if result.Symbol != "TT" {
		t.Errorf("stored entry was mutated: got %s", result.Symbol)
	}

	// Mutating a returned copy must not affect the store either.
	result.Symbol = "ALSO_CHANGED"
	again, _ := store.GetByMint(ctx, "mint1")
	if again.Symbol != "TT" {
		t.Errorf("returned entry aliases store: got %s", again.Symbol)
	}
}
