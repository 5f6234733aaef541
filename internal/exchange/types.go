package exchange

import "errors"

// Side represents buy or sell
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType represents market or limit order
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// Status represents the outcome of a submitted order
type Status string

const (
	StatusFilled   Status = "FILLED"
	StatusPartial  Status = "PARTIALLY_FILLED"
	StatusRejected Status = "REJECTED"
)

// ErrOrderRejected marks a non-retryable routing failure. Retry policy
// belongs to the caller, not the router.
var ErrOrderRejected = errors.New("order rejected")

// OrderRequest is the router's input, built by the execution loop from an
// approved signal and the current mark.
type OrderRequest struct {
	Symbol     string
	Side       Side
	Quantity   float64
	LimitPrice float64   // the loop sets this to the current mark
	Type       OrderType // defaults to MARKET when empty
}

// OrderResult is the router's output.
type OrderResult struct {
	OrderID        string
	Status         Status
	FilledQuantity float64
	FilledPrice    float64 // 0 when the backend reported no price
	Raw            map[string]interface{}
}
