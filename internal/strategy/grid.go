package strategy

import "github.com/tradepulse/tradepulse/internal/marketdata"

// Grid anchors a reference price per symbol at the first tick and lays
// symmetric buy/sell levels around it. Crossing a level trades once and
// re-anchors the grid at the crossing price.
type Grid struct {
	Base
	levels  int
	spacing float64
	anchors map[string]float64
}

// NewGrid creates a grid strategy. Typical parameters are 5 levels with 1%
// spacing.
func NewGrid(name string, levels int, spacing float64) *Grid {
	return &Grid{
		Base:    NewBase(name),
		levels:  levels,
		spacing: spacing,
		anchors: make(map[string]float64),
	}
}

// OnData emits a BUY when the price crosses a level below the anchor, a
// SELL when it crosses one above, then re-anchors at the crossing price.
func (s *Grid) OnData(tick marketdata.Tick) ([]Signal, error) {
	if !s.Running() {
		return nil, nil
	}

	anchor, ok := s.anchors[tick.Symbol]
	if !ok {
		anchor = tick.Price
		s.anchors[tick.Symbol] = anchor
	}

	for level := 1; level <= s.levels; level++ {
		buyLevel := anchor * (1 - s.spacing*float64(level))
		sellLevel := anchor * (1 + s.spacing*float64(level))
		if tick.Price <= buyLevel {
			s.anchors[tick.Symbol] = tick.Price
			return []Signal{{Symbol: tick.Symbol, Side: SideBuy, Quantity: 1, Confidence: 1}}, nil
		}
		if tick.Price >= sellLevel {
			s.anchors[tick.Symbol] = tick.Price
			return []Signal{{Symbol: tick.Symbol, Side: SideSell, Quantity: 1, Confidence: 1}}, nil
		}
	}
	return nil, nil
}
