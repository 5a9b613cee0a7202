// Package wallet holds the trading keypair and transaction signing.
package wallet

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

var (
	// ErrInvalidKey indicates a private key that cannot be decoded.
	ErrInvalidKey = errors.New("invalid private key")

	// ErrInvalidAddress indicates a string that is not a valid Solana
	// wallet address.
	ErrInvalidAddress = errors.New("invalid address")
)

// Wallet is an ed25519 keypair used to sign swap transactions.
type Wallet struct {
	priv    ed25519.PrivateKey
	address string
}

// FromBase58Key builds a wallet from a base58-encoded private key.
// Accepts the standard 64-byte keypair export or a 32-byte seed.
func FromBase58Key(key string) (*Wallet, error) {
	raw, err := base58.Decode(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	var priv ed25519.PrivateKey
	switch len(raw) {
	case ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	default:
		return nil, fmt.Errorf("%w: unexpected length %d", ErrInvalidKey, len(raw))
	}

	pub := priv.Public().(ed25519.PublicKey)
	return &Wallet{
		priv:    priv,
		address: base58.Encode(pub),
	}, nil
}

// Address returns the wallet's base58 public key.
func (w *Wallet) Address() string {
	return w.address
}

// Sign signs an arbitrary message with the wallet key.
func (w *Wallet) Sign(message []byte) []byte {
	return ed25519.Sign(w.priv, message)
}

// SignTransaction signs a base64-encoded unsigned transaction as the
// fee payer and returns the signed transaction, base64-encoded. The
// wallet's signature replaces signature slot 0; other required
// signatures (if any) are left untouched.
func (w *Wallet) SignTransaction(txBase64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return "", fmt.Errorf("decode transaction: %w", err)
	}

	numSigs, prefixLen, err := decodeCompactU16(raw)
	if err != nil {
		return "", fmt.Errorf("parse signature count: %w", err)
	}
	if numSigs < 1 {
		return "", errors.New("transaction requires no signatures")
	}

	sigSection := prefixLen + numSigs*ed25519.SignatureSize
	if len(raw) <= sigSection {
		return "", errors.New("transaction has no message")
	}

	message := raw[sigSection:]
	sig := ed25519.Sign(w.priv, message)
	copy(raw[prefixLen:prefixLen+ed25519.SignatureSize], sig)

	return base64.StdEncoding.EncodeToString(raw), nil
}

// decodeCompactU16 decodes the shortvec length prefix used by Solana
// transactions. Returns the value and the prefix length in bytes.
func decodeCompactU16(data []byte) (int, int, error) {
	value := 0
	shift := uint(0)
	for i := 0; i < len(data) && i < 3; i++ {
		b := data[i]
		value |= int(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, errors.New("malformed compact-u16 prefix")
}

// ValidateAddress checks that a string is a well-formed Solana wallet
// address: base58, 32 bytes, and on the ed25519 curve. Program-derived
// addresses are off-curve and rejected here on purpose - source
// wallets must be signing-capable accounts.
func ValidateAddress(address string) error {
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: decoded length %d", ErrInvalidAddress, len(raw))
	}
	if _, err := new(edwards25519.Point).SetBytes(raw); err != nil {
		return fmt.Errorf("%w: not on curve", ErrInvalidAddress)
	}
	return nil
}
