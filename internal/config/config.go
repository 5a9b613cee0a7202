// Package config loads environment-driven configuration. A .env file
// in the working directory is merged into the environment first;
// explicit environment variables win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"solana-copy-trader/internal/domain"
)

// Config is the process configuration shared by the command binaries.
type Config struct {
	// Endpoints
	RPCEndpoint   string
	WSEndpoint    string
	PostgresDSN   string
	ClickhouseDSN string

	// Trading identity
	WalletPrivateKey string
	SourceWallets    []string

	// Risk bounds
	Risk domain.RiskConfig

	MetricsAddr string
}

// Load reads configuration from the environment, with every RiskConfig
// field defaulting to its documented value.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be fully set already.
	_ = godotenv.Load()

	risk := domain.DefaultRiskConfig()
	var err error

	if risk.MaxTradeSizeUSD, err = envDecimal("MAX_TRADE_SIZE_USD", risk.MaxTradeSizeUSD); err != nil {
		return nil, err
	}
	if risk.MinTradeSizeUSD, err = envDecimal("MIN_TRADE_SIZE_USD", risk.MinTradeSizeUSD); err != nil {
		return nil, err
	}
	if risk.MaxSlippageBps, err = envInt("MAX_SLIPPAGE_BPS", risk.MaxSlippageBps); err != nil {
		return nil, err
	}
	if risk.MaxPortfolioAllocation, err = envDecimal("MAX_PORTFOLIO_ALLOCATION", risk.MaxPortfolioAllocation); err != nil {
		return nil, err
	}
	if risk.GasBufferSOL, err = envDecimal("GAS_BUFFER_SOL", risk.GasBufferSOL); err != nil {
		return nil, err
	}
	if risk.WeightTolerance, err = envDecimal("WEIGHT_TOLERANCE", risk.WeightTolerance); err != nil {
		return nil, err
	}
	if risk.MinWeightThreshold, err = envDecimal("MIN_WEIGHT_THRESHOLD", risk.MinWeightThreshold); err != nil {
		return nil, err
	}
	if err := risk.Validate(); err != nil {
		return nil, err
	}

	return &Config{
		RPCEndpoint:      os.Getenv("SOLANA_RPC_ENDPOINT"),
		WSEndpoint:       os.Getenv("SOLANA_WS_ENDPOINT"),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN:    os.Getenv("CLICKHOUSE_DSN"),
		WalletPrivateKey: os.Getenv("WALLET_PRIVATE_KEY"),
		SourceWallets:    envList("SOURCE_WALLETS"),
		Risk:             risk,
		MetricsAddr:      envString("METRICS_ADDR", ":9090"),
	}, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDecimal(key string, def decimal.Decimal) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s=%q: %w", key, v, err)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", key, v, err)
	}
	return n, nil
}

// envList parses a comma-separated environment variable, dropping
// empty entries.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var list []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			list = append(list, item)
		}
	}
	return list
}
