package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// OrderRecord is the post-fill audit row written by the execution loop.
type OrderRecord struct {
	ID             uuid.UUID
	ExchangeID     string // router-assigned order id ("sim-N" or Binance id)
	Symbol         string
	Side           string
	Type           string
	Status         string
	Quantity       float64
	FilledQuantity float64
	FilledPrice    float64
	MarkPrice      float64 // tick price observed when the signal fired
	PlacedAt       time.Time
}

// RecordOrder inserts an executed order. A store failure never blocks the
// trading loop; callers log and continue.
func (s *Store) RecordOrder(ctx context.Context, record *OrderRecord) error {
	query := `
		INSERT INTO orders (
			id, exchange_order_id, symbol, side, type, status,
			quantity, filled_quantity, filled_price, mark_price, placed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		record.ID,
		record.ExchangeID,
		record.Symbol,
		record.Side,
		record.Type,
		record.Status,
		record.Quantity,
		record.FilledQuantity,
		record.FilledPrice,
		record.MarkPrice,
		record.PlacedAt,
	)
	if err != nil {
		log.Error().
			Err(err).
			Str("order_id", record.ID.String()).
			Str("symbol", record.Symbol).
			Msg("Failed to record order")
		return fmt.Errorf("failed to record order: %w", err)
	}

	log.Debug().
		Str("order_id", record.ID.String()).
		Str("symbol", record.Symbol).
		Str("status", record.Status).
		Msg("Order recorded")

	return nil
}

// TradeRecord is one fill attached to an order.
type TradeRecord struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	Symbol     string
	Side       string
	Price      float64
	Quantity   float64
	ExecutedAt time.Time
}

// RecordTrade inserts a fill row.
func (s *Store) RecordTrade(ctx context.Context, record *TradeRecord) error {
	query := `
		INSERT INTO trades (
			id, order_id, symbol, side, price, quantity, quote_quantity, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		record.ID,
		record.OrderID,
		record.Symbol,
		record.Side,
		record.Price,
		record.Quantity,
		record.Price*record.Quantity,
		record.ExecutedAt,
	)
	if err != nil {
		log.Error().
			Err(err).
			Str("trade_id", record.ID.String()).
			Str("symbol", record.Symbol).
			Msg("Failed to record trade")
		return fmt.Errorf("failed to record trade: %w", err)
	}

	return nil
}
