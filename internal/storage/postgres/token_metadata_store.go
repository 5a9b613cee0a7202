package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// TokenMetadataStore implements storage.TokenMetadataStore using PostgreSQL.
type TokenMetadataStore struct {
	pool *Pool
}

// NewTokenMetadataStore creates a new TokenMetadataStore.
func NewTokenMetadataStore(pool *Pool) *TokenMetadataStore {
	return &TokenMetadataStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenMetadataStore = (*TokenMetadataStore)(nil)

const upsertTokenMetadataQuery = `
	INSERT INTO token_metadata (mint, symbol, name, decimals, source, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (mint) DO UPDATE SET
		symbol = EXCLUDED.symbol,
		name = EXCLUDED.name,
		decimals = EXCLUDED.decimals,
		source = EXCLUDED.source,
		updated_at = EXCLUDED.updated_at
`

// Upsert inserts or refreshes metadata for a mint.
func (s *TokenMetadataStore) Upsert(ctx context.Context, m *domain.TokenMetadata) error {
	if m == nil || m.Mint == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, upsertTokenMetadataQuery,
		m.Mint,
		m.Symbol,
		m.Name,
		m.Decimals,
		m.Source,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert token metadata: %w", err)
	}
	return nil
}

// UpsertBulk inserts or refreshes a batch of entries in one transaction.
func (s *TokenMetadataStore) UpsertBulk(ctx context.Context, metas []*domain.TokenMetadata) error {
	if len(metas) == 0 {
		return nil
	}
	for _, m := range metas {
		if m == nil || m.Mint == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, m := range metas {
		batch.Queue(upsertTokenMetadataQuery,
			m.Mint, m.Symbol, m.Name, m.Decimals, m.Source, m.UpdatedAt)
	}

	br := tx.SendBatch(ctx, batch)
	for range metas {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert token metadata batch: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByMint retrieves metadata by mint. Returns ErrNotFound if not exists.
func (s *TokenMetadataStore) GetByMint(ctx context.Context, mint string) (*domain.TokenMetadata, error) {
	query := `
		SELECT mint, symbol, name, decimals, source, updated_at
		FROM token_metadata
		WHERE mint = $1
	`

	row := s.pool.QueryRow(ctx, query, mint)
	m, err := scanTokenMetadata(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token metadata by mint: %w", err)
	}
	return m, nil
}

// GetByMints retrieves metadata for a set of mints. Unknown mints are
// absent from the result.
func (s *TokenMetadataStore) GetByMints(ctx context.Context, mints []string) (map[string]*domain.TokenMetadata, error) {
	if len(mints) == 0 {
		return map[string]*domain.TokenMetadata{}, nil
	}

	query := `
		SELECT mint, symbol, name, decimals, source, updated_at
		FROM token_metadata
		WHERE mint = ANY($1)
	`

	rows, err := s.pool.Query(ctx, query, mints)
	if err != nil {
		return nil, fmt.Errorf("get token metadata by mints: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*domain.TokenMetadata, len(mints))
	for rows.Next() {
		m, err := scanTokenMetadata(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token metadata row: %w", err)
		}
		result[m.Mint] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token metadata rows: %w", err)
	}
	return result, nil
}

// scanTokenMetadata scans a single row into TokenMetadata.
func scanTokenMetadata(row pgx.Row) (*domain.TokenMetadata, error) {
	var m domain.TokenMetadata

	err := row.Scan(
		&m.Mint,
		&m.Symbol,
		&m.Name,
		&m.Decimals,
		&m.Source,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}
