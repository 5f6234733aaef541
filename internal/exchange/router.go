// Package exchange routes approved order intents to a live Binance backend
// or a simulated fill backend behind one contract.
package exchange

import (
	"context"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog/log"

	"github.com/tradepulse/tradepulse/internal/config"
)

// Backend produces fills for order requests. The live and simulated
// variants share this contract; the loop never observes which is active.
type Backend interface {
	Submit(ctx context.Context, req OrderRequest) (OrderResult, error)
}

// Router owns one backend, chosen at construction.
type Router struct {
	backend Backend
}

// NewRouter selects the backend: credentials present and a client supplied
// means live, anything else simulated.
func NewRouter(cfg config.BinanceConfig, client *binance.Client) *Router {
	if cfg.IsConfigured() && client != nil {
		log.Info().Str("network", cfg.Network).Msg("Order router using live Binance backend")
		return &Router{backend: newLiveBackend(cfg, client)}
	}
	log.Info().Msg("Order router using simulated backend")
	return &Router{backend: NewSimBackend()}
}

// NewRouterWithBackend wires an explicit backend. Tests use this.
func NewRouterWithBackend(backend Backend) *Router {
	return &Router{backend: backend}
}

// Submit sends the request to the backend and returns the fill. A backend
// failure surfaces as ErrOrderRejected; the router does not retry.
func (r *Router) Submit(ctx context.Context, req OrderRequest) (OrderResult, error) {
	if req.Type == "" {
		req.Type = OrderTypeMarket
	}
	return r.backend.Submit(ctx, req)
}
