package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

func priceHandler(t *testing.T, prices map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		data := make(map[string]interface{})
		for _, id := range ids {
			if price, ok := prices[id]; ok {
				data[id] = map[string]string{"id": id, "price": price}
			} else {
				data[id] = nil
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}
}

func TestGetTokenPrices(t *testing.T) {
	server := httptest.NewServer(priceHandler(t, map[string]string{
		"mint1": "1.25",
		"mint2": "0.0000431",
	}))
	defer server.Close()

	client := NewJupiterClient(
		WithBaseURL(server.URL),
		WithRateLimit(rate.Inf, 1),
	)
	prices, err := client.GetTokenPrices(context.Background(), []string{"mint1", "mint2", "unknown"})
	if err != nil {
		t.Fatalf("GetTokenPrices: %v", err)
	}

	if !prices["mint1"].Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("mint1 price = %s, want 1.25", prices["mint1"])
	}
	if !prices["mint2"].Equal(decimal.RequireFromString("0.0000431")) {
		t.Errorf("mint2 price = %s, want 0.0000431", prices["mint2"])
	}
	if _, ok := prices["unknown"]; ok {
		t.Error("unknown mint should be absent, not zero")
	}
}

func TestGetTokenPrices_ChunksLargeRequests(t *testing.T) {
	var requests atomic.Int32
	var maxIDsSeen atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		if int32(len(ids)) > maxIDsSeen.Load() {
			maxIDsSeen.Store(int32(len(ids)))
		}
		data := make(map[string]interface{})
		for _, id := range ids {
			data[id] = map[string]string{"id": id, "price": "1"}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
	}))
	defer server.Close()

	mints := make([]string, 150)
	for i := range mints {
		mints[i] = fmt.Sprintf("mint%03d", i)
	}

	client := NewJupiterClient(
		WithBaseURL(server.URL),
		WithRateLimit(rate.Inf, 1),
	)
	prices, err := client.GetTokenPrices(context.Background(), mints)
	if err != nil {
		t.Fatalf("GetTokenPrices: %v", err)
	}

	if len(prices) != 150 {
		t.Errorf("expected 150 prices, got %d", len(prices))
	}
	if requests.Load() != 2 {
		t.Errorf("expected 2 chunked requests, got %d", requests.Load())
	}
	if maxIDsSeen.Load() > 100 {
		t.Errorf("request exceeded 100 ids: %d", maxIDsSeen.Load())
	}
}

func TestGetTokenPrices_RetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		priceHandler(t, map[string]string{"mint1": "2"}).ServeHTTP(w, r)
	}))
	defer server.Close()

	client := NewJupiterClient(
		WithBaseURL(server.URL),
		WithRateLimit(rate.Inf, 1),
		WithRetryDelay(10*time.Millisecond),
	)
	prices, err := client.GetTokenPrices(context.Background(), []string{"mint1"})
	if err != nil {
		t.Fatalf("GetTokenPrices: %v", err)
	}
	if !prices["mint1"].Equal(decimal.NewFromInt(2)) {
		t.Errorf("mint1 price = %s, want 2", prices["mint1"])
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestGetTokenPrices_EmptyInput(t *testing.T) {
	client := NewJupiterClient(WithBaseURL("http://unreachable.invalid"))
	prices, err := client.GetTokenPrices(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetTokenPrices: %v", err)
	}
	if len(prices) != 0 {
		t.Errorf("expected empty result, got %v", prices)
	}
}
