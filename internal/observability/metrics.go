// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Planning metrics
	PlanningRunsTotal prometheus.Counter
	PlanningErrors    prometheus.Counter
	PlanningDuration  prometheus.Histogram
	TradesPlanned     prometheus.Counter
	PlanValueUSD      prometheus.Histogram

	// Execution metrics
	TradesExecuted    *prometheus.CounterVec
	TradeValueUSD     prometheus.Histogram
	ExecutionDuration prometheus.Histogram

	// Source metrics
	SourcePortfoliosFetched prometheus.Counter
	SourceFetchErrors       prometheus.Counter
	AccountChangesReceived  prometheus.Counter

	// Upstream API metrics
	PriceLookupsTotal prometheus.Counter
	PriceLookupErrors prometheus.Counter
	RPCCallLatency    *prometheus.HistogramVec
	QuoteLatency      *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
	GasBalanceSOL     prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_copy_trader"
	}

	return &Metrics{
		PlanningRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "runs_total",
			Help:      "Total number of planning runs",
		}),
		PlanningErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "errors_total",
			Help:      "Total number of planning runs discarded with an error",
		}),
		PlanningDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "duration_seconds",
			Help:      "Planning run duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TradesPlanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "trades_planned_total",
			Help:      "Total number of trades emitted by the planner",
		}),
		PlanValueUSD: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "planner",
			Name:      "plan_value_usd",
			Help:      "Total USD value of each trade plan",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		}),

		TradesExecuted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "trades_executed_total",
			Help:      "Total number of executed trades by outcome",
		}, []string{"status"}),
		TradeValueUSD: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "trade_value_usd",
			Help:      "USD value of each executed trade",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000},
		}),
		ExecutionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "duration_seconds",
			Help:      "Trade execution duration in seconds, confirmation included",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),

		SourcePortfoliosFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sources",
			Name:      "portfolios_fetched_total",
			Help:      "Total number of source portfolio snapshots fetched",
		}),
		SourceFetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sources",
			Name:      "fetch_errors_total",
			Help:      "Total number of source portfolio fetch failures",
		}),
		AccountChangesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sources",
			Name:      "account_changes_total",
			Help:      "Total number of source account change notifications",
		}),

		PriceLookupsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "lookups_total",
			Help:      "Total number of price API lookups",
		}),
		PriceLookupErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "lookup_errors_total",
			Help:      "Total number of failed price API lookups",
		}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		QuoteLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "quote_latency_seconds",
			Help:      "DEX quote latency in seconds by venue",
			Buckets:   prometheus.DefBuckets,
		}, []string{"dex"}),

		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful rebalance run",
		}),
		GasBalanceSOL: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "gas_balance_sol",
			Help:      "Current SOL balance of the trading wallet",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPlanningRun records one planning run and its outcome.
func RecordPlanningRun(durationSeconds float64, trades int, err error) {
	DefaultMetrics.PlanningRunsTotal.Inc()
	DefaultMetrics.PlanningDuration.Observe(durationSeconds)
	if err != nil {
		DefaultMetrics.PlanningErrors.Inc()
		return
	}
	DefaultMetrics.TradesPlanned.Add(float64(trades))
}

// RecordTradeExecuted records one executed trade by outcome.
func RecordTradeExecuted(success bool, usdValue, durationSeconds float64) {
	status := "success"
	if !success {
		status = "failure"
	}
	DefaultMetrics.TradesExecuted.WithLabelValues(status).Inc()
	DefaultMetrics.TradeValueUSD.Observe(usdValue)
	DefaultMetrics.ExecutionDuration.Observe(durationSeconds)
}

// RecordSourceFetch records a source portfolio fetch attempt.
func RecordSourceFetch(err error) {
	if err != nil {
		DefaultMetrics.SourceFetchErrors.Inc()
		return
	}
	DefaultMetrics.SourcePortfoliosFetched.Inc()
}

// RecordAccountChange records a source account change notification.
func RecordAccountChange() {
	DefaultMetrics.AccountChangesReceived.Inc()
}

// RecordPriceLookup records a price API lookup.
func RecordPriceLookup(err error) {
	DefaultMetrics.PriceLookupsTotal.Inc()
	if err != nil {
		DefaultMetrics.PriceLookupErrors.Inc()
	}
}

// UpdateGasBalance updates the trading wallet's SOL balance gauge.
func UpdateGasBalance(sol float64) {
	DefaultMetrics.GasBalanceSOL.Set(sol)
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}
