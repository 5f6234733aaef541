package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tradepulse/tradepulse/internal/marketdata"
)

const cacheOpTimeout = 500 * time.Millisecond

// CandleCache is an optional Redis read-through cache in front of the
// candle store. All methods are nil-safe; a nil cache is a pass-through.
type CandleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCandleCache creates a candle cache. Returns nil when client is nil so
// callers can wire the cache unconditionally.
func NewCandleCache(client *redis.Client, ttl time.Duration) *CandleCache {
	if client == nil {
		return nil
	}
	if ttl == 0 {
		ttl = 60 * time.Second
	}
	return &CandleCache{client: client, ttl: ttl}
}

// Get returns the cached candle sequence and whether it was found. Cache
// errors degrade to a miss.
func (c *CandleCache) Get(ctx context.Context, symbol, interval string, limit int) ([]marketdata.Candle, bool) {
	if c == nil {
		return nil, false
	}

	key := c.buildKey(symbol, interval, limit)
	cacheCtx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	cached, err := c.client.Get(cacheCtx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("Redis get error, treating as cache miss")
		}
		return nil, false
	}

	var candles []marketdata.Candle
	if err := json.Unmarshal([]byte(cached), &candles); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached candles")
		return nil, false
	}

	log.Debug().Str("key", key).Int("count", len(candles)).Msg("Candle cache hit")
	return candles, true
}

// Set stores a candle sequence under the configured TTL. Failures are
// logged, never propagated.
func (c *CandleCache) Set(ctx context.Context, symbol, interval string, limit int, candles []marketdata.Candle) {
	if c == nil {
		return
	}

	data, err := json.Marshal(candles)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to marshal candles for cache")
		return
	}

	key := c.buildKey(symbol, interval, limit)
	cacheCtx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	if err := c.client.Set(cacheCtx, key, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache candles")
	}
}

func (c *CandleCache) buildKey(symbol, interval string, limit int) string {
	return fmt.Sprintf("tradepulse:candles:%s:%s:%d", symbol, interval, limit)
}
