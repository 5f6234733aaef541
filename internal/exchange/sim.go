package exchange

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// SimBackend fills every order immediately at the request's limit price,
// which the execution loop sets to the current mark. No I/O.
type SimBackend struct {
	mu        sync.Mutex
	idCounter int64
}

// NewSimBackend creates a simulated fill backend.
func NewSimBackend() *SimBackend {
	return &SimBackend{}
}

// Submit assigns a monotonically increasing order id and reports a full
// fill at the requested limit price.
func (s *SimBackend) Submit(_ context.Context, req OrderRequest) (OrderResult, error) {
	s.mu.Lock()
	s.idCounter++
	orderID := fmt.Sprintf("sim-%d", s.idCounter)
	s.mu.Unlock()

	log.Debug().
		Str("order_id", orderID).
		Str("symbol", req.Symbol).
		Str("side", string(req.Side)).
		Float64("quantity", req.Quantity).
		Float64("price", req.LimitPrice).
		Msg("Simulated fill")

	return OrderResult{
		OrderID:        orderID,
		Status:         StatusFilled,
		FilledQuantity: req.Quantity,
		FilledPrice:    req.LimitPrice,
		Raw:            map[string]interface{}{"simulated": true},
	}, nil
}
