// Package risk validates trade signals against portfolio-wide limits.
package risk

import (
	"math"
	"sync"

	"github.com/tradepulse/tradepulse/internal/strategy"
)

// Rejection reasons returned by Validate. The first failing check wins, so
// callers see deterministic reasons.
const (
	ReasonOK            = "OK"
	ReasonMissingMark   = "Missing mark price"
	ReasonPositionSize  = "Position size exceeds risk limit"
	ReasonMaxPositions  = "Maximum concurrent positions reached"
	ReasonDailyLossStop = "Daily loss limit breached"
)

// Limits bound what the gate allows through.
type Limits struct {
	MaxPositionPct  float64 // fraction of equity a new notional may occupy
	MaxDailyLossPct float64 // drawdown below the day anchor that blocks signals
	MaxPositions    int     // cap on concurrent symbols with non-zero position
}

// DefaultLimits mirrors the engine's configuration defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxPositionPct:  0.05,
		MaxDailyLossPct: 0.02,
		MaxPositions:    10,
	}
}

// PositionBook is the read-only view of open positions the gate consults.
// *portfolio.Portfolio satisfies it.
type PositionBook interface {
	Holds(symbol string) bool
	OpenPositions() int
}

// Gate validates signals. It is pure given its limits and the day anchor;
// the only mutable state is the anchor set by ResetDay.
type Gate struct {
	mu        sync.RWMutex
	limits    Limits
	book      PositionBook
	anchor    float64
	anchorSet bool
}

// NewGate creates a risk gate over the given position book.
func NewGate(limits Limits, book PositionBook) *Gate {
	return &Gate{limits: limits, book: book}
}

// ResetDay captures the equity anchor used by the daily-loss check.
func (g *Gate) ResetDay(anchorEquity float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.anchor = anchorEquity
	g.anchorSet = true
}

// Validate checks a signal against the limits. Checks run in a fixed order
// and the earliest failure determines the reason.
func (g *Gate) Validate(sig strategy.Signal, marks map[string]float64, equity float64) (bool, string) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	price, ok := marks[sig.Symbol]
	if !ok {
		return false, ReasonMissingMark
	}

	targetNotional := math.Abs(sig.Quantity) * price
	if targetNotional > equity*g.limits.MaxPositionPct {
		return false, ReasonPositionSize
	}

	if !g.book.Holds(sig.Symbol) && g.book.OpenPositions() >= g.limits.MaxPositions {
		return false, ReasonMaxPositions
	}

	if g.anchorSet && g.anchor > 0 {
		drawdown := 1 - equity/g.anchor
		if drawdown > g.limits.MaxDailyLossPct {
			return false, ReasonDailyLossStop
		}
	}

	return true, ReasonOK
}
