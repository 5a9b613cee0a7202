// Package executor turns planned swap trades into signed, submitted and
// confirmed transactions through pluggable DEX backends.
package executor

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"solana-copy-trader/internal/domain"
)

// SwapQuote is a priced route offered by one DEX for a planned trade.
type SwapQuote struct {
	DEX        string
	InputMint  string
	OutputMint string
	// InAmount and OutAmount are in base token units.
	InAmount  decimal.Decimal
	OutAmount decimal.Decimal
	// Raw carries the backend's quote payload; it is passed back
	// verbatim when the swap is built.
	Raw json.RawMessage
}

// DEX is a swap venue capable of quoting and executing trades.
type DEX interface {
	// Name identifies the venue in logs and results.
	Name() string

	// GetQuote prices a trade at the given slippage tolerance.
	GetQuote(ctx context.Context, trade *domain.SwapTrade, slippageBps int) (*SwapQuote, error)

	// ExecuteSwap builds, signs and submits the quoted swap, returning
	// the transaction signature.
	ExecuteSwap(ctx context.Context, quote *SwapQuote) (string, error)
}
