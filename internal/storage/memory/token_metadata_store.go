package memory

import (
	"context"
	"sync"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// TokenMetadataStore is an in-memory implementation of storage.TokenMetadataStore.
type TokenMetadataStore struct {
	mu     sync.RWMutex
	byMint map[string]*domain.TokenMetadata
}

// NewTokenMetadataStore creates a new in-memory token metadata store.
func NewTokenMetadataStore() *TokenMetadataStore {
	return &TokenMetadataStore{
		byMint: make(map[string]*domain.TokenMetadata),
	}
}

var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)

// Upsert inserts or refreshes metadata for a mint.
func (s *TokenMetadataStore) Upsert(_ context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	metaCopy := *m
	s.byMint[m.Mint] = &metaCopy
	return nil
}

// UpsertBulk inserts or refreshes a batch of entries.
func (s *TokenMetadataStore) UpsertBulk(_ context.Context, metas []*domain.TokenMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range metas {
		if m == nil || m.Mint == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, m := range metas {
		metaCopy := *m
		s.byMint[m.Mint] = &metaCopy
	}
	return nil
}

// GetByMint retrieves metadata by mint. Returns ErrNotFound if not exists.
func (s *TokenMetadataStore) GetByMint(_ context.Context, mint string) (*domain.TokenMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.byMint[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	metaCopy := *m
	return &metaCopy, nil
}

// GetByMints retrieves metadata for a set of mints. Unknown mints are
// absent from the result.
func (s *TokenMetadataStore) GetByMints(_ context.Context, mints []string) (map[string]*domain.TokenMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.TokenMetadata, len(mints))
	for _, mint := range mints {
		if m, exists := s.byMint[mint]; exists {
			metaCopy := *m
			result[mint] = &metaCopy
		}
	}
	return result, nil
}
