package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/metrics"
)

const reconnectDelay = 5 * time.Second

// combinedMessage is the envelope of the Binance combined stream
// (/stream?streams=...).
type combinedMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// tickerPayload covers both miniTicker and ticker events; the fields the
// engine consumes are shared between the two.
type tickerPayload struct {
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
	EventTime int64  `json:"E"` // milliseconds
	Volume    string `json:"v"`
}

// LiveSource streams ticks from the Binance multiplexed ticker websocket.
type LiveSource struct {
	cfg config.BinanceConfig
}

// NewLiveSource creates a live websocket tick source.
func NewLiveSource(cfg config.BinanceConfig) *LiveSource {
	return &LiveSource{cfg: cfg}
}

// Stream opens a multiplexed subscription for the symbols and yields one
// tick per exchange message. Disconnects are logged and followed by a
// reconnect; the stream terminates only when the context is cancelled.
func (s *LiveSource) Stream(ctx context.Context, symbols []string) (<-chan Tick, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols to subscribe")
	}

	names := make([]string, len(symbols))
	for i, symbol := range symbols {
		names[i] = s.cfg.StreamName(symbol)
	}
	url := fmt.Sprintf("%s/stream?streams=%s", s.cfg.WsURL(), strings.Join(names, "/"))

	ticks := make(chan Tick)
	go s.run(ctx, url, ticks)
	return ticks, nil
}

func (s *LiveSource) run(ctx context.Context, url string, ticks chan<- Tick) {
	defer close(ticks)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("Ticker stream dial failed, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}
		log.Info().Str("url", url).Msg("Ticker stream connected")

		s.readLoop(ctx, conn, ticks)
		_ = conn.Close()
		if ctx.Err() == nil {
			metrics.StreamReconnects.Inc()
		}
	}
}

// readLoop pumps messages from one connection until it breaks or the
// context ends.
func (s *LiveSource) readLoop(ctx context.Context, conn *websocket.Conn, ticks chan<- Tick) {
	// Unblock ReadMessage when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("Ticker stream read failed, reconnecting")
			}
			return
		}

		tick, ok := parseTickerMessage(message)
		if !ok {
			log.Debug().Str("payload", string(message)).Msg("Skipping malformed ticker message")
			continue
		}

		select {
		case ticks <- tick:
		case <-ctx.Done():
			return
		}
	}
}

// parseTickerMessage converts one combined-stream message into a Tick.
func parseTickerMessage(message []byte) (Tick, bool) {
	var envelope combinedMessage
	if err := json.Unmarshal(message, &envelope); err != nil {
		return Tick{}, false
	}
	data := envelope.Data
	if len(data) == 0 {
		// Raw (non-combined) frames carry the event at the top level.
		data = message
	}

	var payload tickerPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Tick{}, false
	}
	if payload.Symbol == "" || payload.LastPrice == "" {
		return Tick{}, false
	}

	price, err := strconv.ParseFloat(payload.LastPrice, 64)
	if err != nil || price <= 0 {
		return Tick{}, false
	}
	volume, _ := strconv.ParseFloat(payload.Volume, 64)

	return Tick{
		Symbol:    payload.Symbol,
		Price:     price,
		Timestamp: time.UnixMilli(payload.EventTime),
		Volume:    volume,
	}, true
}
