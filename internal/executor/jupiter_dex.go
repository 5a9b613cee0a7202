package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/solana"
)

// DefaultJupiterSwapURL is the Jupiter swap API v6 endpoint.
const DefaultJupiterSwapURL = "https://quote-api.jup.ag/v6"

// Signer signs base64-encoded transactions as the fee payer.
type Signer interface {
	Address() string
	SignTransaction(txBase64 string) (string, error)
}

// JupiterDEX quotes and executes swaps through the Jupiter aggregator.
type JupiterDEX struct {
	baseURL string
	client  *http.Client
	rpc     solana.RPCClient
	signer  Signer
	logger  *log.Logger
}

// JupiterDEXOption configures JupiterDEX.
type JupiterDEXOption func(*JupiterDEX)

// WithSwapBaseURL overrides the swap API endpoint.
func WithSwapBaseURL(u string) JupiterDEXOption {
	return func(d *JupiterDEX) { d.baseURL = u }
}

// WithSwapHTTPClient sets a custom http.Client.
func WithSwapHTTPClient(client *http.Client) JupiterDEXOption {
	return func(d *JupiterDEX) { d.client = client }
}

// WithSwapLogger sets the DEX's logger.
func WithSwapLogger(l *log.Logger) JupiterDEXOption {
	return func(d *JupiterDEX) { d.logger = l }
}

// NewJupiterDEX creates a Jupiter-backed DEX. The signer's address is
// used as the swap's user public key and fee payer.
func NewJupiterDEX(rpc solana.RPCClient, signer Signer, opts ...JupiterDEXOption) *JupiterDEX {
	d := &JupiterDEX{
		baseURL: DefaultJupiterSwapURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		rpc:     rpc,
		signer:  signer,
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ DEX = (*JupiterDEX)(nil)

// Name identifies the venue.
func (d *JupiterDEX) Name() string { return "jupiter" }

// quoteResponse is the subset of the quote payload the executor reads;
// the full payload is carried in SwapQuote.Raw for the swap call.
type quoteResponse struct {
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
}

// GetQuote prices a trade. The trade's from-amount is converted to base
// token units; amounts in the returned quote are base units as well.
func (d *JupiterDEX) GetQuote(ctx context.Context, trade *domain.SwapTrade, slippageBps int) (*SwapQuote, error) {
	baseUnits := toBaseUnits(trade.FromAmount, trade.FromDecimals)
	if baseUnits.Sign() <= 0 {
		return nil, fmt.Errorf("trade %s->%s has no input amount", trade.FromSymbol, trade.ToSymbol)
	}

	params := url.Values{}
	params.Set("inputMint", trade.FromMint)
	params.Set("outputMint", trade.ToMint)
	params.Set("amount", baseUnits.String())
	params.Set("slippageBps", fmt.Sprintf("%d", slippageBps))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/quote?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create quote request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read quote response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote returned status %d: %s", resp.StatusCode, string(body))
	}

	var qr quoteResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, fmt.Errorf("unmarshal quote: %w", err)
	}

	inAmount, err := decimal.NewFromString(qr.InAmount)
	if err != nil {
		return nil, fmt.Errorf("parse quote inAmount %q: %w", qr.InAmount, err)
	}
	outAmount, err := decimal.NewFromString(qr.OutAmount)
	if err != nil {
		return nil, fmt.Errorf("parse quote outAmount %q: %w", qr.OutAmount, err)
	}

	return &SwapQuote{
		DEX:        d.Name(),
		InputMint:  qr.InputMint,
		OutputMint: qr.OutputMint,
		InAmount:   inAmount,
		OutAmount:  outAmount,
		Raw:        body,
	}, nil
}

// swapRequest is the swap-build payload.
type swapRequest struct {
	QuoteResponse    json.RawMessage `json:"quoteResponse"`
	UserPublicKey    string          `json:"userPublicKey"`
	WrapAndUnwrapSol bool            `json:"wrapAndUnwrapSol"`
}

// swapResponse carries the unsigned transaction built by the API.
type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// ExecuteSwap asks the API to build the swap transaction for the quote,
// signs it and submits it. Returns the transaction signature.
func (d *JupiterDEX) ExecuteSwap(ctx context.Context, quote *SwapQuote) (string, error) {
	payload, err := json.Marshal(swapRequest{
		QuoteResponse:    quote.Raw,
		UserPublicKey:    d.signer.Address(),
		WrapAndUnwrapSol: true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create swap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("swap request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read swap response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("swap returned status %d: %s", resp.StatusCode, string(body))
	}

	var sr swapResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", fmt.Errorf("unmarshal swap response: %w", err)
	}
	if sr.SwapTransaction == "" {
		return "", fmt.Errorf("swap response has no transaction")
	}

	signed, err := d.signer.SignTransaction(sr.SwapTransaction)
	if err != nil {
		return "", fmt.Errorf("sign swap transaction: %w", err)
	}

	sig, err := d.rpc.SendTransaction(ctx, signed)
	if err != nil {
		return "", fmt.Errorf("send swap transaction: %w", err)
	}

	d.logger.Printf("[executor] submitted %s->%s via %s: %s",
		quote.InputMint, quote.OutputMint, d.Name(), sig)
	return sig, nil
}

// toBaseUnits converts a UI token amount to integer base units,
// truncating sub-unit dust.
func toBaseUnits(amount decimal.Decimal, decimals int) decimal.Decimal {
	return amount.Shift(int32(decimals)).Floor()
}
