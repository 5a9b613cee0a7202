package memory

import (
	"context"
	"sync"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// TradeLogStore is an in-memory implementation of storage.TradeLogStore.
type TradeLogStore struct {
	mu      sync.RWMutex
	entries []*domain.TradeLogEntry
}

// NewTradeLogStore creates a new in-memory trade log store.
func NewTradeLogStore() *TradeLogStore {
	return &TradeLogStore{}
}

var _ storage.TradeLogStore = (*TradeLogStore)(nil)

// Insert appends one trade result.
func (s *TradeLogStore) Insert(_ context.Context, e *domain.TradeLogEntry) error {
	if e == nil || e.Wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entryCopy := *e
	s.entries = append(s.entries, &entryCopy)
	return nil
}

// InsertBulk appends the results of a whole run.
func (s *TradeLogStore) InsertBulk(_ context.Context, entries []*domain.TradeLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if e == nil || e.Wallet == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, e := range entries {
		entryCopy := *e
		s.entries = append(s.entries, &entryCopy)
	}
	return nil
}

// GetByWallet retrieves trades for a wallet, newest first.
func (s *TradeLogStore) GetByWallet(_ context.Context, wallet string, limit int) ([]*domain.TradeLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeLogEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Wallet != wallet {
			continue
		}
		entryCopy := *s.entries[i]
		result = append(result, &entryCopy)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}
