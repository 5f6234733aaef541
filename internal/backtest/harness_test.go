package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepulse/tradepulse/internal/exchange"
	"github.com/tradepulse/tradepulse/internal/history"
	"github.com/tradepulse/tradepulse/internal/marketdata"
	"github.com/tradepulse/tradepulse/internal/portfolio"
	"github.com/tradepulse/tradepulse/internal/risk"
	"github.com/tradepulse/tradepulse/internal/strategy"
)

type candleStore struct {
	candles []marketdata.Candle
}

func (s *candleStore) LoadCandles(_ context.Context, _, _ string, _ int) ([]marketdata.Candle, error) {
	return s.candles, nil
}

func (s *candleStore) StoreCandles(_ context.Context, _ []marketdata.Candle) error {
	return nil
}

// buyEachTick emits one BUY per candle.
type buyEachTick struct {
	strategy.Base
	quantity float64
}

func (s *buyEachTick) OnData(tick marketdata.Tick) ([]strategy.Signal, error) {
	return []strategy.Signal{{Symbol: tick.Symbol, Side: strategy.SideBuy, Quantity: s.quantity}}, nil
}

func candleAt(symbol string, offset time.Duration, close float64) marketdata.Candle {
	base := time.Unix(1_700_000_000, 0).UTC()
	return marketdata.Candle{
		Symbol:   symbol,
		Interval: "1h",
		OpenTime: base.Add(offset),
		Open:     close,
		High:     close,
		Low:      close,
		Close:    close,
		Volume:   100,
	}
}

func newHarness(store history.CandleStore, strat strategy.Strategy, cash float64, limits risk.Limits) (*Harness, *portfolio.Portfolio) {
	pf := portfolio.New(cash)
	gate := risk.NewGate(limits, pf)
	router := exchange.NewRouterWithBackend(exchange.NewSimBackend())
	return New(history.NewService(store, nil), pf, gate, router, strat), pf
}

func TestHarnessRun(t *testing.T) {
	limits := risk.Limits{MaxPositionPct: 0.5, MaxDailyLossPct: 0.5, MaxPositions: 10}

	t.Run("equity curve has one sample per candle", func(t *testing.T) {
		store := &candleStore{candles: []marketdata.Candle{
			candleAt("BTCUSDT", 0, 100),
			candleAt("BTCUSDT", time.Hour, 101),
			candleAt("BTCUSDT", 2*time.Hour, 102),
		}}
		// A window larger than the candle count never signals.
		strat := strategy.NewMomentum("momentum", 50, 0.01)
		harness, _ := newHarness(store, strat, 1000, limits)

		result, err := harness.Run(context.Background(), "BTCUSDT", "1h", 10)
		require.NoError(t, err)

		assert.Equal(t, 3, result.Candles)
		assert.Len(t, result.EquityCurve, 3)
		assert.Empty(t, result.ExecutedSignals)
		assert.Equal(t, 0.0, result.TotalReturn())
	})

	t.Run("fills land at the candle close", func(t *testing.T) {
		store := &candleStore{candles: []marketdata.Candle{
			candleAt("BTCUSDT", 0, 100),
			candleAt("BTCUSDT", time.Hour, 110),
		}}
		strat := &buyEachTick{Base: strategy.NewBase("buyer"), quantity: 1}
		harness, pf := newHarness(store, strat, 1000, limits)

		result, err := harness.Run(context.Background(), "BTCUSDT", "1h", 10)
		require.NoError(t, err)

		require.Len(t, result.ExecutedSignals, 2)
		assert.Equal(t, strategy.SideBuy, result.ExecutedSignals[0].Side)
		// Bought 1 @ 100 and 1 @ 110; both marked at the final close.
		assert.InDelta(t, 790, pf.Cash(), 1e-9)
		pos, _ := pf.Position("BTCUSDT")
		assert.Equal(t, 2.0, pos.Quantity)

		require.Len(t, result.EquityCurve, 2)
		assert.InDelta(t, 1000, result.EquityCurve[0], 1e-9)
		assert.InDelta(t, 1010, result.EquityCurve[1], 1e-9)
		assert.InDelta(t, 0.01, result.TotalReturn(), 1e-9)
	})

	t.Run("oversized signals are rejected and counted", func(t *testing.T) {
		store := &candleStore{candles: []marketdata.Candle{
			candleAt("BTCUSDT", 0, 100),
		}}
		strat := &buyEachTick{Base: strategy.NewBase("whale"), quantity: 100}
		harness, pf := newHarness(store, strat, 1000, limits)

		result, err := harness.Run(context.Background(), "BTCUSDT", "1h", 10)
		require.NoError(t, err)

		assert.Empty(t, result.ExecutedSignals)
		assert.Equal(t, 1, result.RejectedSignals)
		assert.Equal(t, 1000.0, pf.Cash())
	})

	t.Run("unsupported interval fails", func(t *testing.T) {
		strat := strategy.NewMomentum("momentum", 5, 0.01)
		harness, _ := newHarness(&candleStore{}, strat, 1000, limits)

		_, err := harness.Run(context.Background(), "BTCUSDT", "45m", 10)
		assert.ErrorContains(t, err, "unsupported interval")
	})

	t.Run("synthetic fallback drives a full run", func(t *testing.T) {
		strat := strategy.NewMomentum("momentum", 5, 0.005)
		harness, _ := newHarness(nil, strat, 10_000, limits)

		result, err := harness.Run(context.Background(), "BTCUSDT", "1h", 30)
		require.NoError(t, err)

		assert.Equal(t, 30, result.Candles)
		assert.Len(t, result.EquityCurve, 30)
	})

	t.Run("strategy stops after the run", func(t *testing.T) {
		strat := strategy.NewMomentum("momentum", 5, 0.01)
		harness, _ := newHarness(&candleStore{}, strat, 1000, limits)

		_, err := harness.Run(context.Background(), "BTCUSDT", "1h", 5)
		require.NoError(t, err)
		assert.False(t, strat.Running())
	})
}

func TestResultTotalReturn(t *testing.T) {
	t.Run("empty curve returns zero", func(t *testing.T) {
		result := &Result{}
		assert.Equal(t, 0.0, result.TotalReturn())
	})

	t.Run("zero starting equity returns zero", func(t *testing.T) {
		result := &Result{EquityCurve: []float64{0, 100}}
		assert.Equal(t, 0.0, result.TotalReturn())
	})
}
