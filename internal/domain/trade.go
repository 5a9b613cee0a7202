package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a raw trade intent.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// TradeIntent is a directional rebalancing intent produced by the diff
// engine, sized in USD against the reference asset. Intents are
// immutable; the netting optimizer keeps its own remaining-value ledger.
type TradeIntent struct {
	Direction Direction
	Mint      string
	Symbol    string
	Decimals  int
	USDValue  decimal.Decimal
	Amount    decimal.Decimal // token units; zero when price is unknown
}

// SwapTrade is a single executable token-to-token swap. All trades the
// planner emits are swaps; buys and sells route through the reference
// asset when no direct netting match exists.
type SwapTrade struct {
	FromSymbol   string
	FromMint     string
	FromAmount   decimal.Decimal
	FromDecimals int
	ToSymbol     string
	ToMint       string
	ToAmount     decimal.Decimal
	ToDecimals   int
	USDValue     decimal.Decimal
}

// SwapResult is the outcome of submitting one SwapTrade.
type SwapResult struct {
	Success      bool
	TxSignature  string
	ErrorMessage string
}

// TradeLogEntry records one executed (or failed) trade for history.
type TradeLogEntry struct {
	RunID        string
	Wallet       string
	FromMint     string
	FromSymbol   string
	ToMint       string
	ToSymbol     string
	FromAmount   decimal.Decimal
	ToAmount     decimal.Decimal
	USDValue     decimal.Decimal
	Success      bool
	TxSignature  string
	ErrorMessage string
	ExecutedAt   time.Time
}
