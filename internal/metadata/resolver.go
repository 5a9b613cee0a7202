// Package metadata resolves token symbols and decimals from the token
// registry. Unknown mints degrade to a shortened-address symbol with
// zero decimals instead of failing the caller.
package metadata

import (
	"context"
	"io"
	"log"
	"sync"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// Resolver looks up token metadata with an in-process cache in front of
// the backing store. Cache entries are never evicted; registry entries
// change only on an explicit sync, after which a fresh resolver (or
// process) is expected.
type Resolver struct {
	store  storage.TokenMetadataStore
	logger *log.Logger

	mu    sync.RWMutex
	cache map[string]*domain.TokenMetadata
}

// ResolverOption configures Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the resolver's logger.
func WithLogger(l *log.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(store storage.TokenMetadataStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:  store,
		logger: log.New(io.Discard, "", 0),
		cache:  make(map[string]*domain.TokenMetadata),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns metadata for a mint. Registry misses are logged and
// fall back to a shortened-address symbol with zero decimals, so the
// result is always usable.
func (r *Resolver) Resolve(ctx context.Context, mint string) *domain.TokenMetadata {
	results := r.ResolveMany(ctx, []string{mint})
	return results[mint]
}

// ResolveMany resolves a batch of mints in one store round trip. Every
// requested mint is present in the result.
func (r *Resolver) ResolveMany(ctx context.Context, mints []string) map[string]*domain.TokenMetadata {
	results := make(map[string]*domain.TokenMetadata, len(mints))

	var missing []string
	r.mu.RLock()
	for _, mint := range mints {
		if meta, ok := r.cache[mint]; ok {
			results[mint] = meta
		} else {
			missing = append(missing, mint)
		}
	}
	r.mu.RUnlock()

	if len(missing) == 0 {
		return results
	}

	found, err := r.store.GetByMints(ctx, missing)
	if err != nil {
		r.logger.Printf("[metadata] registry lookup failed for %d mints: %v", len(missing), err)
		found = nil
	}

	r.mu.Lock()
	for _, mint := range missing {
		meta, ok := found[mint]
		if !ok {
			meta = &domain.TokenMetadata{
				Mint:     mint,
				Symbol:   domain.ShortMint(mint),
				Decimals: 0,
			}
			r.logger.Printf("[metadata] unknown mint %s, using fallback symbol %s", mint, meta.Symbol)
		}
		r.cache[mint] = meta
		results[mint] = meta
	}
	r.mu.Unlock()

	return results
}
