package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepulse/tradepulse/internal/marketdata"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewWithPool(mock), mock
}

func TestStoreCandles(t *testing.T) {
	t.Run("upserts every candle", func(t *testing.T) {
		store, mock := newMockStore(t)
		openTime := time.Unix(1_700_000_000, 0).UTC()

		candles := []marketdata.Candle{
			{Symbol: "BTCUSDT", Interval: "1h", OpenTime: openTime, Open: 100, High: 102, Low: 99, Close: 101, Volume: 10},
			{Symbol: "BTCUSDT", Interval: "1h", OpenTime: openTime.Add(time.Hour), Open: 101, High: 103, Low: 100, Close: 102, Volume: 12},
		}
		for _, c := range candles {
			mock.ExpectExec("INSERT INTO candles").
				WithArgs(c.Symbol, c.Interval, c.OpenTime, c.Open, c.High, c.Low, c.Close, c.Volume).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}

		err := store.StoreCandles(context.Background(), candles)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stops on first failure", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec("INSERT INTO candles").
			WithArgs("BTCUSDT", "1h", pgxmock.AnyArg(), 100.0, 102.0, 99.0, 101.0, 10.0).
			WillReturnError(errors.New("constraint violation"))

		err := store.StoreCandles(context.Background(), []marketdata.Candle{
			{Symbol: "BTCUSDT", Interval: "1h", Open: 100, High: 102, Low: 99, Close: 101, Volume: 10},
		})
		assert.ErrorContains(t, err, "failed to insert candle")
	})
}

func TestLoadCandles(t *testing.T) {
	t.Run("returns candles in chronological order", func(t *testing.T) {
		store, mock := newMockStore(t)
		newest := time.Unix(1_700_003_600, 0).UTC()
		oldest := newest.Add(-time.Hour)

		// The query returns newest first; the store flips the order.
		rows := pgxmock.NewRows([]string{"symbol", "interval", "open_time", "open", "high", "low", "close", "volume"}).
			AddRow("BTCUSDT", "1h", newest, 101.0, 103.0, 100.0, 102.0, 12.0).
			AddRow("BTCUSDT", "1h", oldest, 100.0, 102.0, 99.0, 101.0, 10.0)

		mock.ExpectQuery("SELECT symbol, interval, open_time, open, high, low, close, volume").
			WithArgs("BTCUSDT", "1h", 2).
			WillReturnRows(rows)

		candles, err := store.LoadCandles(context.Background(), "BTCUSDT", "1h", 2)
		require.NoError(t, err)
		require.Len(t, candles, 2)
		assert.Equal(t, oldest, candles[0].OpenTime)
		assert.Equal(t, newest, candles[1].OpenTime)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result yields no candles", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery("SELECT symbol, interval, open_time, open, high, low, close, volume").
			WithArgs("BTCUSDT", "1h", 10).
			WillReturnRows(pgxmock.NewRows([]string{"symbol", "interval", "open_time", "open", "high", "low", "close", "volume"}))

		candles, err := store.LoadCandles(context.Background(), "BTCUSDT", "1h", 10)
		require.NoError(t, err)
		assert.Empty(t, candles)
	})
}

func TestRecordOrder(t *testing.T) {
	t.Run("inserts the audit row", func(t *testing.T) {
		store, mock := newMockStore(t)

		record := &OrderRecord{
			ID:             uuid.New(),
			ExchangeID:     "sim-1",
			Symbol:         "BTCUSDT",
			Side:           "BUY",
			Type:           "MARKET",
			Status:         "FILLED",
			Quantity:       1,
			FilledQuantity: 1,
			FilledPrice:    101.5,
			MarkPrice:      100,
			PlacedAt:       time.Now().UTC(),
		}
		mock.ExpectExec("INSERT INTO orders").
			WithArgs(record.ID, record.ExchangeID, record.Symbol, record.Side, record.Type, record.Status,
				record.Quantity, record.FilledQuantity, record.FilledPrice, record.MarkPrice, record.PlacedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, store.RecordOrder(context.Background(), record))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps insert failures", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec("INSERT INTO orders").
			WillReturnError(errors.New("connection reset"))

		err := store.RecordOrder(context.Background(), &OrderRecord{ID: uuid.New()})
		assert.ErrorContains(t, err, "failed to record order")
	})
}

func TestRecordTrade(t *testing.T) {
	store, mock := newMockStore(t)

	record := &TradeRecord{
		ID:         uuid.New(),
		OrderID:    uuid.New(),
		Symbol:     "BTCUSDT",
		Side:       "SELL",
		Price:      101.5,
		Quantity:   2,
		ExecutedAt: time.Now().UTC(),
	}
	mock.ExpectExec("INSERT INTO trades").
		WithArgs(record.ID, record.OrderID, record.Symbol, record.Side,
			record.Price, record.Quantity, record.Price*record.Quantity, record.ExecutedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.RecordTrade(context.Background(), record))
	require.NoError(t, mock.ExpectationsWereMet())
}
