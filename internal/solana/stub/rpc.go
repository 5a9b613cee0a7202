// Package stub provides in-memory RPCClient implementations for tests.
package stub

import (
	"context"
	"fmt"
	"sync"

	"solana-copy-trader/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu sync.Mutex

	Balances      map[string]uint64
	TokenAccounts map[string][]solana.TokenAccount
	Blockhash     string
	Statuses      map[string]*solana.SignatureStatus

	// BlockhashErr, when set, fails every GetLatestBlockhash call.
	BlockhashErr error
	// SendErr, when set, fails every SendTransaction call.
	SendErr error
	// Sent records every submitted transaction payload.
	Sent []string

	nextSig int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Balances:      make(map[string]uint64),
		TokenAccounts: make(map[string][]solana.TokenAccount),
		Blockhash:     "stubblockhash",
		Statuses:      make(map[string]*solana.SignatureStatus),
	}
}

var _ solana.RPCClient = (*RPCClient)(nil)

// GetBalance returns the configured lamport balance, zero if unset.
func (c *RPCClient) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Balances[pubkey], nil
}

// GetTokenAccountsByOwner returns the configured token accounts.
func (c *RPCClient) GetTokenAccountsByOwner(_ context.Context, owner string) ([]solana.TokenAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.TokenAccounts[owner], nil
}

// GetLatestBlockhash returns the configured blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.BlockhashErr != nil {
		return "", c.BlockhashErr
	}
	return c.Blockhash, nil
}

// SendTransaction records the payload and returns a synthetic signature.
func (c *RPCClient) SendTransaction(_ context.Context, txBase64 string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.Sent = append(c.Sent, txBase64)
	c.nextSig++
	sig := fmt.Sprintf("stubsig%d", c.nextSig)
	c.Statuses[sig] = &solana.SignatureStatus{ConfirmationStatus: "confirmed"}
	return sig, nil
}

// GetSignatureStatuses returns configured statuses in input order.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	statuses := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		statuses[i] = c.Statuses[sig]
	}
	return statuses, nil
}
