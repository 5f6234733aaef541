package exchange

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/tradepulse/tradepulse/internal/config"
)

// Binance caps order placement well above this; the limiter keeps a burst
// of signals from tripping the exchange-side ban.
const ordersPerSecond = 10

// liveBackend translates order requests into Binance REST calls.
type liveBackend struct {
	client     *binance.Client
	recvWindow int64
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

func newLiveBackend(cfg config.BinanceConfig, client *binance.Client) *liveBackend {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "binance-orders",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Order breaker state changed")
		},
	})

	return &liveBackend{
		client:     client,
		recvWindow: cfg.RecvWindow,
		limiter:    rate.NewLimiter(ordersPerSecond, ordersPerSecond),
		breaker:    breaker,
	}
}

// Submit places the order on Binance and parses the response into an
// OrderResult. Exchange errors are fatal for this order and surface as
// ErrOrderRejected.
func (b *liveBackend) Submit(ctx context.Context, req OrderRequest) (OrderResult, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return OrderResult{Status: StatusRejected}, fmt.Errorf("%w: %v", ErrOrderRejected, err)
	}

	response, err := b.breaker.Execute(func() (interface{}, error) {
		return b.createOrder(ctx, req)
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("symbol", req.Symbol).
			Str("side", string(req.Side)).
			Float64("quantity", req.Quantity).
			Msg("Live order submission failed")
		return OrderResult{Status: StatusRejected}, fmt.Errorf("%w: %v", ErrOrderRejected, err)
	}

	return b.parseResponse(response.(*binance.CreateOrderResponse), req), nil
}

func (b *liveBackend) createOrder(ctx context.Context, req OrderRequest) (*binance.CreateOrderResponse, error) {
	service := b.client.NewCreateOrderService().
		Symbol(strings.ToUpper(req.Symbol)).
		Side(binance.SideType(strings.ToUpper(string(req.Side)))).
		Type(binance.OrderType(strings.ToUpper(string(req.Type)))).
		Quantity(strconv.FormatFloat(req.Quantity, 'f', -1, 64))

	if req.Type != OrderTypeMarket && req.LimitPrice > 0 {
		service = service.
			TimeInForce(binance.TimeInForceTypeGTC).
			Price(strconv.FormatFloat(req.LimitPrice, 'f', -1, 64))
	}

	return service.Do(ctx, binance.WithRecvWindow(b.recvWindow))
}

func (b *liveBackend) parseResponse(response *binance.CreateOrderResponse, req OrderRequest) OrderResult {
	filledQty, _ := strconv.ParseFloat(response.ExecutedQuantity, 64)
	quoteQty, _ := strconv.ParseFloat(response.CummulativeQuoteQuantity, 64)

	filledPrice := req.LimitPrice
	if filledQty > 0 && quoteQty > 0 {
		filledPrice = quoteQty / filledQty
	}

	result := OrderResult{
		OrderID:        strconv.FormatInt(response.OrderID, 10),
		Status:         Status(response.Status),
		FilledQuantity: filledQty,
		FilledPrice:    filledPrice,
		Raw: map[string]interface{}{
			"orderId":             response.OrderID,
			"status":              string(response.Status),
			"executedQty":         response.ExecutedQuantity,
			"cummulativeQuoteQty": response.CummulativeQuoteQuantity,
		},
	}

	log.Info().
		Str("order_id", result.OrderID).
		Str("symbol", req.Symbol).
		Str("status", string(result.Status)).
		Float64("filled_qty", result.FilledQuantity).
		Float64("filled_price", result.FilledPrice).
		Msg("Order placed on Binance")

	return result
}
