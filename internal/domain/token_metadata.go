package domain

import "time"

// TokenMetadata represents token metadata from the token registry.
// Corresponds to the token_metadata table in PostgreSQL.
type TokenMetadata struct {
	Mint      string
	Symbol    string
	Name      string
	Decimals  int
	Source    string // where the metadata came from (e.g. "jupiter")
	UpdatedAt time.Time
}
