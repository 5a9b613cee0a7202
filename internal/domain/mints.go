package domain

// Well-known Solana mints and program IDs.
const (
	// USDCMint is the reference settlement asset: the stable unit of
	// account through which indirect swaps route. Priced at exactly 1 USD.
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	// SOLMint is the wrapped SOL mint; native SOL balances are reported
	// under it.
	SOLMint = "So11111111111111111111111111111111111111112"

	// TokenProgramID is the SPL token program that owns token accounts.
	TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

	// USDTMint and USDSMint are stablecoin variants aliased to USDC.
	USDTMint = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	USDSMint = "USDSwr9ApdHk5bvJKMjzff41FfuX8bSxdKcR81vTwcA"

	// MaxMintLength is the maximum length of a base58-encoded Solana
	// address. Longer identifiers are malformed and dropped.
	MaxMintLength = 44

	// USDCSymbol and USDCDecimals describe the reference asset.
	USDCSymbol   = "USDC"
	USDCDecimals = 6
)

// DefaultAliases returns the built-in alias table: stablecoin variants
// folded into USDC.
func DefaultAliases() []TokenAlias {
	return []TokenAlias{
		{
			Address: USDCMint,
			Aliases: []string{USDTMint, USDSMint},
		},
	}
}

// ShortMint returns a shortened-address pseudo-symbol for tokens with
// unknown metadata.
func ShortMint(mint string) string {
	if len(mint) <= 8 {
		return mint
	}
	return mint[:8] + "..."
}
