// Package portfolio owns the trading session's cash and position accounting.
// It is the single authority over portfolio state; only the execution loop
// mutates it after fills.
package portfolio

import (
	"math"
	"sync"
)

// Position tracks the signed quantity and average basis price for one symbol.
type Position struct {
	Symbol       string  `json:"symbol"`
	Quantity     float64 `json:"quantity"`      // signed: long > 0, short < 0
	AveragePrice float64 `json:"average_price"` // 0 when flat
}

// MarketValue returns the position value at the given mark price.
func (p *Position) MarketValue(markPrice float64) float64 {
	return p.Quantity * markPrice
}

// Portfolio tracks cash and open positions. All methods are safe for
// concurrent use; in the engine only the tick handler writes.
type Portfolio struct {
	mu        sync.RWMutex
	cash      float64
	positions map[string]*Position
}

// New creates a portfolio with the given starting cash.
func New(startingCash float64) *Portfolio {
	return &Portfolio{
		cash:      startingCash,
		positions: make(map[string]*Position),
	}
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cash
}

// UpdateCash adds a signed delta to the cash balance.
func (p *Portfolio) UpdateCash(delta float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cash += delta
}

// UpdatePosition applies a fill to the symbol's position and returns the
// resulting state. Rules:
//   - same-direction fills move the average price to the size-weighted mean
//   - a smaller opposite fill reduces the quantity, average price unchanged
//   - a flipping fill restarts the position at the fill price
//   - an exact close resets the average price to zero
//
// A zero fill quantity is a no-op.
func (p *Portfolio) UpdatePosition(symbol string, fillQty, fillPrice float64) Position {
	p.mu.Lock()
	defer p.mu.Unlock()

	position, ok := p.positions[symbol]
	if !ok {
		position = &Position{Symbol: symbol}
		p.positions[symbol] = position
	}
	if fillQty == 0 {
		return *position
	}

	currentQty := position.Quantity
	newQty := currentQty + fillQty

	switch {
	case newQty == 0:
		position.Quantity = 0
		position.AveragePrice = 0

	case currentQty == 0:
		position.Quantity = newQty
		position.AveragePrice = fillPrice

	case currentQty*fillQty > 0:
		totalSize := math.Abs(currentQty) + math.Abs(fillQty)
		position.AveragePrice = (position.AveragePrice*math.Abs(currentQty) + fillPrice*math.Abs(fillQty)) / totalSize
		position.Quantity = newQty

	case math.Abs(fillQty) < math.Abs(currentQty):
		// Partial close: realized PnL is not booked into the basis.
		position.Quantity = newQty

	default:
		// Flip: the residual is a fresh position at the flipping fill's price.
		position.Quantity = newQty
		position.AveragePrice = fillPrice
	}

	return *position
}

// Position returns the position for a symbol and whether one is tracked.
func (p *Portfolio) Position(symbol string) (Position, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	position, ok := p.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *position, true
}

// Positions returns a copy of all tracked positions, including symbols that
// were traded back to flat.
func (p *Portfolio) Positions() map[string]Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]Position, len(p.positions))
	for symbol, position := range p.positions {
		out[symbol] = *position
	}
	return out
}

// Holds reports whether the portfolio has a non-zero position in the symbol.
func (p *Portfolio) Holds(symbol string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	position, ok := p.positions[symbol]
	return ok && position.Quantity != 0
}

// OpenPositions returns the number of symbols with a non-zero position.
func (p *Portfolio) OpenPositions() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	count := 0
	for _, position := range p.positions {
		if position.Quantity != 0 {
			count++
		}
	}
	return count
}

// MarkToMarket values the portfolio at the given marks. A symbol missing
// from the marks falls back to its average price, so a freshly opened
// position marks at book value until a tick is seen.
func (p *Portfolio) MarkToMarket(marks map[string]float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	equity := p.cash
	for symbol, position := range p.positions {
		markPrice, ok := marks[symbol]
		if !ok {
			markPrice = position.AveragePrice
		}
		equity += position.MarketValue(markPrice)
	}
	return equity
}
