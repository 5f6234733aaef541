package history

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepulse/tradepulse/internal/marketdata"
)

func newTestCache(t *testing.T) (*CandleCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCandleCache(client, 60*time.Second), server
}

func TestCandleCache(t *testing.T) {
	ctx := context.Background()
	candles := []marketdata.Candle{
		{Symbol: "BTCUSDT", Interval: "1h", OpenTime: time.Unix(1_700_000_000, 0).UTC(), Open: 100, High: 102, Low: 99, Close: 101, Volume: 10},
	}

	t.Run("round trip", func(t *testing.T) {
		cache, _ := newTestCache(t)

		cache.Set(ctx, "BTCUSDT", "1h", 10, candles)
		got, ok := cache.Get(ctx, "BTCUSDT", "1h", 10)

		require.True(t, ok)
		assert.Equal(t, candles, got)
	})

	t.Run("miss on different key", func(t *testing.T) {
		cache, _ := newTestCache(t)

		cache.Set(ctx, "BTCUSDT", "1h", 10, candles)
		_, ok := cache.Get(ctx, "BTCUSDT", "1h", 20)
		assert.False(t, ok)
	})

	t.Run("miss after TTL expiry", func(t *testing.T) {
		cache, server := newTestCache(t)

		cache.Set(ctx, "BTCUSDT", "1h", 10, candles)
		server.FastForward(61 * time.Second)

		_, ok := cache.Get(ctx, "BTCUSDT", "1h", 10)
		assert.False(t, ok)
	})

	t.Run("corrupt payload degrades to a miss", func(t *testing.T) {
		cache, server := newTestCache(t)

		require.NoError(t, server.Set("tradepulse:candles:BTCUSDT:1h:10", "not-json"))
		_, ok := cache.Get(ctx, "BTCUSDT", "1h", 10)
		assert.False(t, ok)
	})

	t.Run("nil cache is a pass-through", func(t *testing.T) {
		var cache *CandleCache

		cache.Set(ctx, "BTCUSDT", "1h", 10, candles)
		_, ok := cache.Get(ctx, "BTCUSDT", "1h", 10)
		assert.False(t, ok)
	})

	t.Run("nil client yields nil cache", func(t *testing.T) {
		assert.Nil(t, NewCandleCache(nil, time.Minute))
	})
}
