// Package metrics exposes Prometheus instrumentation for the trading
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Market data metrics
var (
	TicksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradepulse_ticks_processed_total",
		Help: "Total number of market ticks processed by the engine",
	}, []string{"symbol"})

	StreamReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradepulse_stream_reconnects_total",
		Help: "Total number of market data stream reconnections",
	})
)

// Strategy metrics
var (
	SignalsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradepulse_signals_generated_total",
		Help: "Total number of signals emitted by strategies",
	}, []string{"strategy", "side"})

	SignalsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradepulse_signals_rejected_total",
		Help: "Total number of signals rejected by the risk gate",
	}, []string{"reason"})

	StrategyErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradepulse_strategy_errors_total",
		Help: "Total number of errors raised by strategy callbacks",
	}, []string{"strategy"})
)

// Order metrics
var (
	OrdersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradepulse_orders_submitted_total",
		Help: "Total number of orders submitted to the router",
	}, []string{"symbol", "side"})

	OrdersRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradepulse_orders_rejected_total",
		Help: "Total number of orders rejected by the execution backend",
	})

	OrderExecutionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tradepulse_order_execution_latency_ms",
		Help:    "Order round-trip latency in milliseconds",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})
)

// Portfolio metrics
var (
	Equity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradepulse_equity",
		Help: "Current mark-to-market portfolio equity",
	})

	CashBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradepulse_cash_balance",
		Help: "Current cash balance",
	})

	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tradepulse_open_positions",
		Help: "Number of symbols with a non-zero position",
	})
)

// RecordTick records one processed tick.
func RecordTick(symbol string) {
	TicksProcessed.WithLabelValues(symbol).Inc()
}

// RecordSignal records a signal emitted by a strategy.
func RecordSignal(strategy, side string) {
	SignalsGenerated.WithLabelValues(strategy, side).Inc()
}

// RecordRejection records a risk gate rejection by reason.
func RecordRejection(reason string) {
	SignalsRejected.WithLabelValues(reason).Inc()
}

// RecordOrder records an order submission with its round-trip latency.
func RecordOrder(symbol, side string, durationMs float64) {
	OrdersSubmitted.WithLabelValues(symbol, side).Inc()
	OrderExecutionLatency.Observe(durationMs)
}

// UpdatePortfolio updates the portfolio gauges after a tick.
func UpdatePortfolio(equity, cash float64, openPositions int) {
	Equity.Set(equity)
	CashBalance.Set(cash)
	OpenPositions.Set(float64(openPositions))
}
