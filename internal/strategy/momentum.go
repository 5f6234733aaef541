package strategy

import "github.com/tradepulse/tradepulse/internal/marketdata"

// Momentum compares the latest price to the mean of a sliding window and
// trades in the direction of the move once it exceeds the threshold.
type Momentum struct {
	Base
	window    int
	threshold float64
	prices    map[string]*priceWindow
}

// NewMomentum creates a momentum strategy. Typical parameters are a window
// of 5 ticks and a threshold of 0.002 (20 bps).
func NewMomentum(name string, window int, threshold float64) *Momentum {
	return &Momentum{
		Base:      NewBase(name),
		window:    window,
		threshold: threshold,
		prices:    make(map[string]*priceWindow),
	}
}

// OnData emits a BUY when the price sits above the window mean by more than
// the threshold, a SELL when below, and nothing inside the deadband.
// Confidence is the magnitude of the deviation ratio.
func (s *Momentum) OnData(tick marketdata.Tick) ([]Signal, error) {
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
	delta := (tick.Price - mean) / mean
	switch {
	case delta > s.threshold:
		return []Signal{{Symbol: tick.Symbol, Side: SideBuy, Quantity: 1, Confidence: delta}}, nil
	case delta < -s.threshold:
		return []Signal{{Symbol: tick.Symbol, Side: SideSell, Quantity: 1, Confidence: -delta}}, nil
	}
	return nil, nil
}
