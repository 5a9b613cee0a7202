package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface the agent consumes.
type RPCClient interface {
	// GetBalance retrieves the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetTokenAccountsByOwner retrieves all SPL token accounts owned by
	// a wallet.
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]TokenAccount, error)

	// GetLatestBlockhash retrieves a recent blockhash. The executor
	// uses it as an endpoint liveness check before submitting swaps.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// SendTransaction submits a base64-encoded signed transaction and
	// returns its signature.
	SendTransaction(ctx context.Context, txBase64 string) (string, error)

	// GetSignatureStatuses retrieves confirmation status for a batch of
	// signatures. The result preserves input order; a nil entry means
	// the signature is unknown to the cluster.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
}
