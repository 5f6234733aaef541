package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepulse/tradepulse/internal/marketdata"
)

func tick(symbol string, price float64) marketdata.Tick {
	return marketdata.Tick{Symbol: symbol, Price: price, Timestamp: time.Now()}
}

func feed(t *testing.T, s Strategy, symbol string, prices ...float64) []Signal {
	t.Helper()
	var last []Signal
	for _, price := range prices {
		signals, err := s.OnData(tick(symbol, price))
		require.NoError(t, err)
		last = signals
	}
	return last
}

func TestMomentum(t *testing.T) {
	t.Run("silent while the window fills", func(t *testing.T) {
		s := NewMomentum("momentum", 3, 0.01)
		s.OnStart()

		signals := feed(t, s, "BTCUSDT", 100, 100)
		assert.Empty(t, signals)
	})

	t.Run("buys an upward break", func(t *testing.T) {
		s := NewMomentum("momentum", 3, 0.01)
		s.OnStart()

		// Window [100, 100, 110]: mean 103.33, delta ~6.5% over threshold.
		signals := feed(t, s, "BTCUSDT", 100, 100, 110)
		require.Len(t, signals, 1)
		assert.Equal(t, SideBuy, signals[0].Side)
		assert.Equal(t, 1.0, signals[0].Quantity)
		assert.Greater(t, signals[0].Confidence, 0.01)
	})

	t.Run("sells a downward break", func(t *testing.T) {
		s := NewMomentum("momentum", 3, 0.01)
		s.OnStart()

		signals := feed(t, s, "BTCUSDT", 100, 100, 90)
		require.Len(t, signals, 1)
		assert.Equal(t, SideSell, signals[0].Side)
	})

	t.Run("quiet inside the deadband", func(t *testing.T) {
		s := NewMomentum("momentum", 3, 0.05)
		s.OnStart()

		signals := feed(t, s, "BTCUSDT", 100, 100, 101)
		assert.Empty(t, signals)
	})

	t.Run("no signals while stopped", func(t *testing.T) {
		s := NewMomentum("momentum", 3, 0.01)

		signals := feed(t, s, "BTCUSDT", 100, 100, 110)
		assert.Empty(t, signals)
	})

	t.Run("windows are per symbol", func(t *testing.T) {
		s := NewMomentum("momentum", 3, 0.01)
		s.OnStart()

		feed(t, s, "BTCUSDT", 100, 100)
		// ETHUSDT has its own empty window, so two ticks cannot signal.
		signals := feed(t, s, "ETHUSDT", 2000, 2500)
		assert.Empty(t, signals)
	})
}

func TestMeanReversion(t *testing.T) {
	t.Run("sells a stretched price", func(t *testing.T) {
		s := NewMeanReversion("mean_reversion", 3, 1.5)
		s.OnStart()

		// Window [100, 100, 105]: mean ~101.67, deviation ~1.017,
		// z ~3.28 over the 1.5 threshold.
		signals := feed(t, s, "BTCUSDT", 100, 100, 105)
		require.Len(t, signals, 1)
		assert.Equal(t, SideSell, signals[0].Side)
		assert.Greater(t, signals[0].Confidence, 1.5)
	})

	t.Run("buys a depressed price", func(t *testing.T) {
		s := NewMeanReversion("mean_reversion", 3, 1.5)
		s.OnStart()

		signals := feed(t, s, "BTCUSDT", 100, 100, 95)
		require.Len(t, signals, 1)
		assert.Equal(t, SideBuy, signals[0].Side)
	})

	t.Run("quiet near the mean", func(t *testing.T) {
		s := NewMeanReversion("mean_reversion", 3, 1.5)
		s.OnStart()

		signals := feed(t, s, "BTCUSDT", 100, 100, 100.5)
		assert.Empty(t, signals)
	})
}

func TestGrid(t *testing.T) {
	t.Run("first tick only anchors", func(t *testing.T) {
		s := NewGrid("grid", 5, 0.01)
		s.OnStart()

		signals := feed(t, s, "BTCUSDT", 100)
		assert.Empty(t, signals)
	})

	t.Run("buys a drop through the first level", func(t *testing.T) {
		s := NewGrid("grid", 5, 0.01)
		s.OnStart()

		signals := feed(t, s, "BTCUSDT", 100, 98.9)
		require.Len(t, signals, 1)
		assert.Equal(t, SideBuy, signals[0].Side)
	})

	t.Run("sells a rise through the first level", func(t *testing.T) {
		s := NewGrid("grid", 5, 0.01)
		s.OnStart()

		signals := feed(t, s, "BTCUSDT", 100, 101.5)
		require.Len(t, signals, 1)
		assert.Equal(t, SideSell, signals[0].Side)
	})

	t.Run("re-anchors after a trade", func(t *testing.T) {
		s := NewGrid("grid", 5, 0.01)
		s.OnStart()

		feed(t, s, "BTCUSDT", 100, 98.9)
		// The grid is now anchored at 98.9; 99.0 is inside the first level.
		signals := feed(t, s, "BTCUSDT", 99.0)
		assert.Empty(t, signals)

		signals = feed(t, s, "BTCUSDT", 100.0)
		require.Len(t, signals, 1)
		assert.Equal(t, SideSell, signals[0].Side)
	})

	t.Run("quiet inside the grid", func(t *testing.T) {
		s := NewGrid("grid", 5, 0.01)
		s.OnStart()

		signals := feed(t, s, "BTCUSDT", 100, 100.5)
		assert.Empty(t, signals)
	})
}

func TestBaseLifecycle(t *testing.T) {
	s := NewMomentum("momentum", 2, 0.01)

	assert.Equal(t, "momentum", s.Name())
	assert.False(t, s.Running())

	s.OnStart()
	assert.True(t, s.Running())

	s.OnStop()
	assert.False(t, s.Running())
}
