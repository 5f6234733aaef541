package exchange

import (
	"testing"

	binance "github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/assert"
)

func TestParseResponse(t *testing.T) {
	backend := &liveBackend{}

	t.Run("fill price from quote over executed quantity", func(t *testing.T) {
		response := &binance.CreateOrderResponse{
			OrderID:                  12345,
			Status:                   binance.OrderStatusTypeFilled,
			ExecutedQuantity:         "2",
			CummulativeQuoteQuantity: "203",
		}
		req := OrderRequest{Symbol: "BTCUSDT", Side: SideBuy, Quantity: 2, LimitPrice: 100}

		result := backend.parseResponse(response, req)

		assert.Equal(t, "12345", result.OrderID)
		assert.Equal(t, StatusFilled, result.Status)
		assert.Equal(t, 2.0, result.FilledQuantity)
		assert.InDelta(t, 101.5, result.FilledPrice, 1e-9)
	})

	t.Run("zero executed quantity falls back to limit price", func(t *testing.T) {
		response := &binance.CreateOrderResponse{
			OrderID:                  67890,
			Status:                   binance.OrderStatusTypeNew,
			ExecutedQuantity:         "0",
			CummulativeQuoteQuantity: "0",
		}
		req := OrderRequest{Symbol: "BTCUSDT", Side: SideBuy, Quantity: 1, LimitPrice: 99.5}

		result := backend.parseResponse(response, req)

		assert.Equal(t, 0.0, result.FilledQuantity)
		assert.Equal(t, 99.5, result.FilledPrice)
	})
}
