package marketdata

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// SyntheticSource emits a bounded random walk per symbol, one tick per
// interval. It stands in for the live stream when credentials are absent.
type SyntheticSource struct {
	interval time.Duration
	rng      *rand.Rand
}

// NewSyntheticSource creates a synthetic tick source emitting once per second.
func NewSyntheticSource() *SyntheticSource {
	return NewSyntheticSourceWithInterval(time.Second)
}

// NewSyntheticSourceWithInterval creates a synthetic source with a custom
// emission interval. Tests use short intervals.
func NewSyntheticSourceWithInterval(interval time.Duration) *SyntheticSource {
	return &SyntheticSource{
		interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Stream yields one tick per interval for a randomly chosen symbol, drifting
// each symbol's price by a bounded step. Infinite until cancelled.
func (s *SyntheticSource) Stream(ctx context.Context, symbols []string) (<-chan Tick, error) {
	tracked := symbols
	if len(tracked) == 0 {
		tracked = []string{"BTCUSDT"}
	}

	base := make(map[string]float64, len(tracked))
	for _, symbol := range tracked {
		base[symbol] = 10_000 + s.rng.Float64()*50_000
	}

	log.Info().
		Strs("symbols", tracked).
		Dur("interval", s.interval).
		Msg("Synthetic tick source started")

	ticks := make(chan Tick)
	go func() {
		defer close(ticks)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				symbol := tracked[s.rng.Intn(len(tracked))]
				base[symbol] += s.rng.Float64() - 0.5
				tick := Tick{
					Symbol:    symbol,
					Price:     math.Round(base[symbol]*100) / 100,
					Timestamp: now,
				}
				select {
				case ticks <- tick:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ticks, nil
}
