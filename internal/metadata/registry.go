package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// DefaultTokenListURL is the Jupiter verified token list.
const DefaultTokenListURL = "https://tokens.jup.ag/tokens?tags=verified"

// upsertBatchSize bounds the number of rows per bulk upsert.
const upsertBatchSize = 500

// RegistrySyncer downloads the Jupiter token list and refreshes the
// token registry in place.
type RegistrySyncer struct {
	url    string
	client *http.Client
	store  storage.TokenMetadataStore
	logger *log.Logger
	now    func() time.Time
}

// SyncerOption configures RegistrySyncer.
type SyncerOption func(*RegistrySyncer)

// WithTokenListURL overrides the token list endpoint.
func WithTokenListURL(u string) SyncerOption {
	return func(s *RegistrySyncer) { s.url = u }
}

// WithSyncerHTTPClient sets a custom http.Client.
func WithSyncerHTTPClient(client *http.Client) SyncerOption {
	return func(s *RegistrySyncer) { s.client = client }
}

// WithSyncerLogger sets the syncer's logger.
func WithSyncerLogger(l *log.Logger) SyncerOption {
	return func(s *RegistrySyncer) { s.logger = l }
}

// WithSyncerClock overrides the time source for UpdatedAt stamps.
func WithSyncerClock(now func() time.Time) SyncerOption {
	return func(s *RegistrySyncer) { s.now = now }
}

// NewRegistrySyncer creates a syncer writing into the given store.
func NewRegistrySyncer(store storage.TokenMetadataStore, opts ...SyncerOption) *RegistrySyncer {
	s := &RegistrySyncer{
		url:    DefaultTokenListURL,
		client: &http.Client{Timeout: 60 * time.Second},
		store:  store,
		logger: log.New(io.Discard, "", 0),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// tokenListEntry is the raw token list payload.
type tokenListEntry struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}

// Sync fetches the token list and upserts every entry. Returns the
// number of tokens written. Entries without a mint address are skipped.
func (s *RegistrySyncer) Sync(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch token list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("token list returned status %d: %s", resp.StatusCode, string(body))
	}

	var entries []tokenListEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return 0, fmt.Errorf("decode token list: %w", err)
	}

	now := s.now().UTC()
	batch := make([]*domain.TokenMetadata, 0, upsertBatchSize)
	written := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.store.UpsertBulk(ctx, batch); err != nil {
			return fmt.Errorf("upsert token batch: %w", err)
		}
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	skipped := 0
	for _, e := range entries {
		if e.Address == "" || len(e.Address) > domain.MaxMintLength {
			skipped++
			continue
		}
		batch = append(batch, &domain.TokenMetadata{
			Mint:      e.Address,
			Symbol:    e.Symbol,
			Name:      e.Name,
			Decimals:  e.Decimals,
			Source:    "jupiter",
			UpdatedAt: now,
		})
		if len(batch) == upsertBatchSize {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}

	if skipped > 0 {
		s.logger.Printf("[metadata] skipped %d malformed token list entries", skipped)
	}
	s.logger.Printf("[metadata] synced %d tokens from %s", written, s.url)
	return written, nil
}
