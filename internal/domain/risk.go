package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidConfig indicates a risk configuration that fails validation.
// Configuration errors are fatal: no trade is planned for the run.
var ErrInvalidConfig = errors.New("invalid risk config")

// RiskConfig bounds the size and churn of planned trades. It is
// immutable for the lifetime of a planning run.
type RiskConfig struct {
	MaxTradeSizeUSD        decimal.Decimal // > 0
	MinTradeSizeUSD        decimal.Decimal // > 0, <= max
	MaxSlippageBps         int             // [0, 10000]
	MaxPortfolioAllocation decimal.Decimal // (0, 1]
	GasBufferSOL           decimal.Decimal // > 0
	WeightTolerance        decimal.Decimal // (0, 1]
	MinWeightThreshold     decimal.Decimal // (0, 1]
}

// DefaultRiskConfig returns the documented defaults: max trade $1000,
// min trade $10, slippage 100 bps, max allocation 0.25, gas buffer
// 0.1 SOL, weight tolerance 0.02, min weight threshold 0.01.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		MaxTradeSizeUSD:        decimal.NewFromInt(1000),
		MinTradeSizeUSD:        decimal.NewFromInt(10),
		MaxSlippageBps:         100,
		MaxPortfolioAllocation: decimal.RequireFromString("0.25"),
		GasBufferSOL:           decimal.RequireFromString("0.1"),
		WeightTolerance:        decimal.RequireFromString("0.02"),
		MinWeightThreshold:     decimal.RequireFromString("0.01"),
	}
}

// Validate checks every field against its documented range.
func (c RiskConfig) Validate() error {
	one := decimal.NewFromInt(1)

	if c.MaxTradeSizeUSD.Sign() <= 0 {
		return fmt.Errorf("%w: max_trade_size_usd must be > 0, got %s", ErrInvalidConfig, c.MaxTradeSizeUSD)
	}
	if c.MinTradeSizeUSD.Sign() <= 0 {
		return fmt.Errorf("%w: min_trade_size_usd must be > 0, got %s", ErrInvalidConfig, c.MinTradeSizeUSD)
	}
	if c.MinTradeSizeUSD.GreaterThan(c.MaxTradeSizeUSD) {
		return fmt.Errorf("%w: min_trade_size_usd %s exceeds max_trade_size_usd %s",
			ErrInvalidConfig, c.MinTradeSizeUSD, c.MaxTradeSizeUSD)
	}
	if c.MaxSlippageBps < 0 || c.MaxSlippageBps > 10000 {
		return fmt.Errorf("%w: max_slippage_bps must be in [0, 10000], got %d", ErrInvalidConfig, c.MaxSlippageBps)
	}
	if c.MaxPortfolioAllocation.Sign() <= 0 || c.MaxPortfolioAllocation.GreaterThan(one) {
		return fmt.Errorf("%w: max_portfolio_allocation must be in (0, 1], got %s",
			ErrInvalidConfig, c.MaxPortfolioAllocation)
	}
	if c.GasBufferSOL.Sign() <= 0 {
		return fmt.Errorf("%w: gas_buffer_sol must be > 0, got %s", ErrInvalidConfig, c.GasBufferSOL)
	}
	if c.WeightTolerance.Sign() <= 0 || c.WeightTolerance.GreaterThan(one) {
		return fmt.Errorf("%w: weight_tolerance must be in (0, 1], got %s", ErrInvalidConfig, c.WeightTolerance)
	}
	if c.MinWeightThreshold.Sign() <= 0 || c.MinWeightThreshold.GreaterThan(one) {
		return fmt.Errorf("%w: min_weight_threshold must be in (0, 1], got %s", ErrInvalidConfig, c.MinWeightThreshold)
	}
	return nil
}
