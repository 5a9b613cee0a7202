package solana

import "github.com/shopspring/decimal"

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// TokenAccount is one SPL token account of a wallet, with its balance
// already scaled by the mint's decimals.
type TokenAccount struct {
	Pubkey   string
	Mint     string
	Owner    string
	Amount   decimal.Decimal // ui amount (raw / 10^decimals)
	Decimals int
}

// SignatureStatus is the confirmation state of a submitted transaction.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *int
	ConfirmationStatus string // "processed", "confirmed" or "finalized"
	Err                interface{}
}

// Confirmed reports whether the transaction reached at least confirmed
// commitment without an error.
func (s *SignatureStatus) Confirmed() bool {
	if s == nil || s.Err != nil {
		return false
	}
	return s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized"
}
