// Package pricing fetches batch USD token prices from the Jupiter
// price API. Lookups are best-effort: mints without a price are simply
// absent from the result.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"solana-copy-trader/internal/observability"
)

// DefaultBaseURL is the Jupiter price API v2 endpoint.
const DefaultBaseURL = "https://api.jup.ag/price/v2"

// maxIDsPerRequest is the upstream cap on mints per price call;
// larger sets are chunked.
const maxIDsPerRequest = 100

// JupiterClient queries the Jupiter price API.
type JupiterClient struct {
	baseURL    string
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	logger     *log.Logger
}

// JupiterOption configures JupiterClient.
type JupiterOption func(*JupiterClient)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) JupiterOption {
	return func(c *JupiterClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) JupiterOption {
	return func(c *JupiterClient) { c.client = client }
}

// WithRateLimit sets the request pacing between chunked calls.
func WithRateLimit(r rate.Limit, burst int) JupiterOption {
	return func(c *JupiterClient) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithMaxRetries sets maximum retry attempts per chunk.
func WithMaxRetries(n int) JupiterOption {
	return func(c *JupiterClient) { c.maxRetries = n }
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) JupiterOption {
	return func(c *JupiterClient) { c.retryDelay = d }
}

// WithLogger sets the client's logger.
func WithLogger(l *log.Logger) JupiterOption {
	return func(c *JupiterClient) { c.logger = l }
}

// NewJupiterClient creates a price client with sane defaults:
// 30s timeout, 2 requests/second pacing, 3 retries on rate limiting.
func NewJupiterClient(opts ...JupiterOption) *JupiterClient {
	c := &JupiterClient{
		baseURL:    DefaultBaseURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
		maxRetries: 3,
		retryDelay: time.Second,
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// priceResponse is the raw API payload. Prices arrive as strings.
type priceResponse struct {
	Data map[string]*struct {
		ID    string `json:"id"`
		Price string `json:"price"`
	} `json:"data"`
}

// GetTokenPrices returns USD prices for the given mints, chunked to
// the upstream per-request cap. Mints the API does not know are
// missing from the result, never an error.
func (c *JupiterClient) GetTokenPrices(ctx context.Context, mints []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(mints))
	for start := 0; start < len(mints); start += maxIDsPerRequest {
		end := start + maxIDsPerRequest
		if end > len(mints) {
			end = len(mints)
		}
		err := c.fetchChunk(ctx, mints[start:end], prices)
		observability.RecordPriceLookup(err)
		if err != nil {
			return nil, err
		}
	}
	return prices, nil
}

func (c *JupiterClient) fetchChunk(ctx context.Context, mints []string, prices map[string]decimal.Decimal) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := c.baseURL + "?ids=" + url.QueryEscape(strings.Join(mints, ","))

	delay := c.retryDelay
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
			continue
		}

		var pr priceResponse
		if err := json.Unmarshal(body, &pr); err != nil {
			return fmt.Errorf("unmarshal prices: %w", err)
		}

		for mint, entry := range pr.Data {
			if entry == nil || entry.Price == "" {
				continue
			}
			price, err := decimal.NewFromString(entry.Price)
			if err != nil {
				c.logger.Printf("[pricing] unparsable price for %s: %q", mint, entry.Price)
				continue
			}
			prices[mint] = price
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
