package db

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tradepulse/tradepulse/internal/marketdata"
)

// StoreCandles upserts a batch of candles keyed by (symbol, interval,
// open_time), so re-fetching a range is idempotent.
func (s *Store) StoreCandles(ctx context.Context, candles []marketdata.Candle) error {
	query := `
		INSERT INTO candles (
			symbol, interval, open_time, open, high, low, close, volume
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, interval, open_time)
		DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`

	for _, candle := range candles {
		_, err := s.pool.Exec(ctx, query,
			candle.Symbol,
			candle.Interval,
			candle.OpenTime,
			candle.Open,
			candle.High,
			candle.Low,
			candle.Close,
			candle.Volume,
		)
		if err != nil {
			return fmt.Errorf("failed to insert candle: %w", err)
		}
	}

	log.Debug().
		Int("count", len(candles)).
		Msg("Stored candles")

	return nil
}

// LoadCandles returns up to limit candles for (symbol, interval) in
// chronological order, most recent window first when truncated.
func (s *Store) LoadCandles(ctx context.Context, symbol, interval string, limit int) ([]marketdata.Candle, error) {
	query := `
		SELECT symbol, interval, open_time, open, high, low, close, volume
		FROM candles
		WHERE symbol = $1 AND interval = $2
		ORDER BY open_time DESC
		LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []marketdata.Candle
	for rows.Next() {
		var c marketdata.Candle
		if err := rows.Scan(&c.Symbol, &c.Interval, &c.OpenTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("candle rows iteration failed: %w", err)
	}

	// The query walks back from the latest bar; flip to chronological.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}

	log.Debug().
		Str("symbol", symbol).
		Str("interval", interval).
		Int("count", len(candles)).
		Msg("Loaded candles")

	return candles, nil
}
