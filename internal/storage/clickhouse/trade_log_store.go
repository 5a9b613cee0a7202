package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/storage"
)

// TradeLogStore implements storage.TradeLogStore using ClickHouse.
// MergeTree does not enforce uniqueness; the trade log is strictly
// append-only so duplicates cannot arise from the writer.
type TradeLogStore struct {
	conn *Conn
}

// NewTradeLogStore creates a new TradeLogStore.
func NewTradeLogStore(conn *Conn) *TradeLogStore {
	return &TradeLogStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeLogStore = (*TradeLogStore)(nil)

// Insert appends one trade result.
func (s *TradeLogStore) Insert(ctx context.Context, e *domain.TradeLogEntry) error {
	if e == nil || e.Wallet == "" {
		return storage.ErrInvalidInput
	}
	return s.InsertBulk(ctx, []*domain.TradeLogEntry{e})
}

// InsertBulk appends the results of a whole run.
func (s *TradeLogStore) InsertBulk(ctx context.Context, entries []*domain.TradeLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if e == nil || e.Wallet == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trade_log (
			run_id, wallet, from_mint, from_symbol, to_mint, to_symbol,
			from_amount, to_amount, usd_value, success, tx_signature,
			error_message, executed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range entries {
		var success uint8
		if e.Success {
			success = 1
		}
		err = batch.Append(
			e.RunID, e.Wallet, e.FromMint, e.FromSymbol, e.ToMint, e.ToSymbol,
			e.FromAmount, e.ToAmount, e.USDValue, success, e.TxSignature,
			e.ErrorMessage, e.ExecutedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByWallet retrieves trades for a wallet, newest first.
func (s *TradeLogStore) GetByWallet(ctx context.Context, wallet string, limit int) ([]*domain.TradeLogEntry, error) {
	query := `
		SELECT run_id, wallet, from_mint, from_symbol, to_mint, to_symbol,
		       from_amount, to_amount, usd_value, success, tx_signature,
		       error_message, executed_at
		FROM trade_log
		WHERE wallet = ?
		ORDER BY executed_at DESC
	`
	args := []interface{}{wallet}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, uint64(limit))
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trade log by wallet: %w", err)
	}
	defer rows.Close()

	var entries []*domain.TradeLogEntry
	for rows.Next() {
		var e domain.TradeLogEntry
		var fromAmount, toAmount, usdValue decimal.Decimal
		var success uint8
		var executedAt time.Time

		err := rows.Scan(
			&e.RunID, &e.Wallet, &e.FromMint, &e.FromSymbol, &e.ToMint, &e.ToSymbol,
			&fromAmount, &toAmount, &usdValue, &success, &e.TxSignature,
			&e.ErrorMessage, &executedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade log row: %w", err)
		}

		e.FromAmount = fromAmount
		e.ToAmount = toAmount
		e.USDValue = usdValue
		e.Success = success == 1
		e.ExecutedAt = executedAt
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade log rows: %w", err)
	}

	return entries, nil
}
