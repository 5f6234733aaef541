package strategy

import "github.com/tradepulse/tradepulse/internal/marketdata"

// MeanReversion fades moves away from the sliding-window mean. A fixed 1%
// of the mean stands in for the standard deviation, which keeps the z-score
// cheap to maintain per tick.
type MeanReversion struct {
	Base
	window int
	zScore float64
	prices map[string]*priceWindow
}

// NewMeanReversion creates a mean-reversion strategy. Typical parameters
// are a window of 20 ticks and a z-score threshold of 1.5.
func NewMeanReversion(name string, window int, zScore float64) *MeanReversion {
	return &MeanReversion{
		Base:   NewBase(name),
		window: window,
		zScore: zScore,
		prices: make(map[string]*priceWindow),
	}
}

// OnData emits a SELL when the proxy z-score exceeds the threshold and a
// BUY when it falls below the negative threshold.
func (s *MeanReversion) OnData(tick marketdata.Tick) ([]Signal, error) {
	if !s.Running() {
		return nil, nil
	}

	history, ok := s.prices[tick.Symbol]
	if !ok {
		history = newPriceWindow(s.window)
		s.prices[tick.Symbol] = history
	}
	history.push(tick.Price)
	if !history.full() {
		return nil, nil
	}

	mean := history.mean()
	deviation := mean * 0.01
	if deviation < 1e-6 {
		deviation = 1e-6
	}
	z := (tick.Price - mean) / deviation
	switch {
	case z > s.zScore:
		return []Signal{{Symbol: tick.Symbol, Side: SideSell, Quantity: 1, Confidence: z}}, nil
	case z < -s.zScore:
		return []Signal{{Symbol: tick.Symbol, Side: SideBuy, Quantity: 1, Confidence: -z}}, nil
	}
	return nil, nil
}
