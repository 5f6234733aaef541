// Package marketdata produces tick streams for the execution engine, either
// from the Binance combined websocket or from a synthetic random walk when
// no credentials are configured.
package marketdata

import "time"

// Tick is one trade-price observation for a symbol. Ticks are immutable;
// the source converts the wire payload once at the boundary.
type Tick struct {
	Symbol    string
	Price     float64
	Timestamp time.Time
	Volume    float64
}
