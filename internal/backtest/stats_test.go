package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	t.Run("short curves yield zeros", func(t *testing.T) {
		assert.Equal(t, Stats{}, ComputeStats(nil, 0.02))
		assert.Equal(t, Stats{}, ComputeStats([]float64{1000}, 0.02))
	})

	t.Run("flat curve has no drawdown or volatility", func(t *testing.T) {
		stats := ComputeStats([]float64{1000, 1000, 1000}, 0.02)

		assert.Equal(t, 0.0, stats.MaxDrawdownPct)
		assert.Equal(t, 0.0, stats.Volatility)
		assert.Equal(t, 0.0, stats.SharpeRatio)
	})

	t.Run("drawdown measures the worst fall from a peak", func(t *testing.T) {
		// Peak 1200, trough 900: drawdown 25%.
		stats := ComputeStats([]float64{1000, 1200, 900, 1100}, 0)

		assert.InDelta(t, 0.25, stats.MaxDrawdownPct, 1e-9)
	})

	t.Run("monotonic growth has zero drawdown and positive sharpe", func(t *testing.T) {
		stats := ComputeStats([]float64{1000, 1010, 1025, 1030}, 0)

		assert.Equal(t, 0.0, stats.MaxDrawdownPct)
		assert.Greater(t, stats.Volatility, 0.0)
		assert.Greater(t, stats.SharpeRatio, 0.0)
	})
}
