// Package backtest replays stored or synthetic candles through a single
// strategy with the same risk gate and fill accounting the live engine
// uses.
package backtest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/exchange"
	"github.com/tradepulse/tradepulse/internal/history"
	"github.com/tradepulse/tradepulse/internal/marketdata"
	"github.com/tradepulse/tradepulse/internal/portfolio"
	"github.com/tradepulse/tradepulse/internal/risk"
	"github.com/tradepulse/tradepulse/internal/strategy"
)

// Result summarizes one backtest run. The equity curve holds one sample
// per candle, taken after that candle's signals were executed.
type Result struct {
	Symbol          string
	Interval        string
	Candles         int
	ExecutedSignals []strategy.Signal
	RejectedSignals int
	EquityCurve     []float64
	FinalEquity     float64
}

// TotalReturn is the fractional change from the first to the last equity
// sample. An empty curve returns zero.
func (r *Result) TotalReturn() float64 {
	if len(r.EquityCurve) == 0 || r.EquityCurve[0] == 0 {
		return 0
	}
	return (r.EquityCurve[len(r.EquityCurve)-1] - r.EquityCurve[0]) / r.EquityCurve[0]
}

// Harness drives one strategy over a candle sequence.
type Harness struct {
	log       zerolog.Logger
	candles   *history.Service
	portfolio *portfolio.Portfolio
	gate      *risk.Gate
	router    *exchange.Router
	strategy  strategy.Strategy
}

// New creates a backtest harness. The router is normally backed by the
// simulated backend so fills land at the candle close.
func New(candles *history.Service, pf *portfolio.Portfolio, gate *risk.Gate, router *exchange.Router, s strategy.Strategy) *Harness {
	return &Harness{
		log:       config.NewLogger("backtest"),
		candles:   candles,
		portfolio: pf,
		gate:      gate,
		router:    router,
		strategy:  s,
	}
}

// Run replays up to limit candles of (symbol, interval) through the
// strategy. Each candle close becomes one tick.
func (h *Harness) Run(ctx context.Context, symbol, interval string, limit int) (*Result, error) {
	candles, err := h.candles.FetchCandles(ctx, symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candles: %w", err)
	}

	result := &Result{
		Symbol:      symbol,
		Interval:    interval,
		Candles:     len(candles),
		EquityCurve: make([]float64, 0, len(candles)),
	}

	h.strategy.OnStart()
	defer h.strategy.OnStop()

	marks := make(map[string]float64)
	h.gate.ResetDay(h.portfolio.MarkToMarket(marks))

	for _, candle := range candles {
		tick := marketdata.Tick{
			Symbol:    candle.Symbol,
			Price:     candle.Close,
			Timestamp: candle.OpenTime,
			Volume:    candle.Volume,
		}
		marks[tick.Symbol] = tick.Price

		signals, err := h.strategy.OnData(tick)
		if err != nil {
			h.strategy.OnError(err)
			signals = nil
		}

		equity := h.portfolio.MarkToMarket(marks)
		for _, sig := range signals {
			approved, reason := h.gate.Validate(sig, marks, equity)
			if !approved {
				result.RejectedSignals++
				h.log.Debug().
					Str("symbol", sig.Symbol).
					Str("side", string(sig.Side)).
					Str("reason", reason).
					Msg("Backtest signal rejected")
				continue
			}
			if h.execute(ctx, sig, tick) {
				result.ExecutedSignals = append(result.ExecutedSignals, sig)
			}
		}

		result.EquityCurve = append(result.EquityCurve, h.portfolio.MarkToMarket(marks))
	}

	result.FinalEquity = h.portfolio.MarkToMarket(marks)

	h.log.Info().
		Str("symbol", symbol).
		Str("interval", interval).
		Int("candles", result.Candles).
		Int("executed", len(result.ExecutedSignals)).
		Int("rejected", result.RejectedSignals).
		Float64("total_return", result.TotalReturn()).
		Msg("Backtest complete")

	return result, nil
}

// execute mirrors the live engine's fill accounting: cash moves by the
// fill notional, the position basis uses the candle close.
func (h *Harness) execute(ctx context.Context, sig strategy.Signal, tick marketdata.Tick) bool {
	req := exchange.OrderRequest{
		Symbol:     sig.Symbol,
		Side:       exchange.Side(sig.Side),
		Quantity:   sig.Quantity,
		LimitPrice: tick.Price,
		Type:       exchange.OrderTypeMarket,
	}

	result, err := h.router.Submit(ctx, req)
	if err != nil {
		h.log.Warn().Err(err).Str("symbol", sig.Symbol).Msg("Backtest order failed")
		return false
	}

	fillPrice := result.FilledPrice
	if fillPrice <= 0 {
		fillPrice = tick.Price
	}
	notional := result.FilledQuantity * fillPrice

	signedQty := result.FilledQuantity
	cashDelta := -notional
	if sig.Side == strategy.SideSell {
		signedQty = -result.FilledQuantity
		cashDelta = notional
	}

	h.portfolio.UpdateCash(cashDelta)
	h.portfolio.UpdatePosition(sig.Symbol, signedQty, tick.Price)
	return true
}
