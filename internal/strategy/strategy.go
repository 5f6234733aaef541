// Package strategy hosts the trading strategies and their lifecycle.
//
// A strategy is single-threaded with respect to its own state: the engine
// guarantees OnData runs to completion before the strategy sees the next
// tick. Errors returned from OnData are delivered back through OnError by
// the execution loop; the strategy stays registered.
package strategy

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/marketdata"
)

// Side is the direction of a trade intent.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Signal is a strategy's intent to trade, not yet risk-checked. Signals are
// ephemeral; they exist only until the loop rejects or submits them.
type Signal struct {
	Symbol     string
	Side       Side
	Quantity   float64
	Confidence float64
	Metadata   map[string]float64
}

// Strategy is the closed capability set every strategy implements.
type Strategy interface {
	Name() string
	OnStart()
	OnStop()
	OnData(tick marketdata.Tick) ([]Signal, error)
	OnError(err error)
}

// Base carries the lifecycle state shared by all strategies. Embed it and
// gate OnData on Running().
type Base struct {
	name    string
	running atomic.Bool
	log     zerolog.Logger
}

// NewBase creates the shared lifecycle state for a named strategy.
func NewBase(name string) Base {
	return Base{name: name, log: config.NewStrategyLogger(name)}
}

// Name returns the strategy name.
func (b *Base) Name() string { return b.name }

// Running reports whether the strategy is between OnStart and OnStop.
// While stopped, OnData must return no signals.
func (b *Base) Running() bool { return b.running.Load() }

// OnStart marks the strategy running.
func (b *Base) OnStart() {
	b.log.Info().Msg("Starting strategy")
	b.running.Store(true)
}

// OnStop marks the strategy stopped.
func (b *Base) OnStop() {
	b.log.Info().Msg("Stopping strategy")
	b.running.Store(false)
}

// OnError logs an error delivered by the execution loop.
func (b *Base) OnError(err error) {
	b.log.Error().Err(err).Msg("Unhandled strategy error")
}
