// Package engine runs the live trading loop: ticks in, signals through the
// risk gate, approved orders out to the router, fills back into the
// portfolio.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tradepulse/tradepulse/internal/config"
	"github.com/tradepulse/tradepulse/internal/db"
	"github.com/tradepulse/tradepulse/internal/exchange"
	"github.com/tradepulse/tradepulse/internal/marketdata"
	"github.com/tradepulse/tradepulse/internal/metrics"
	"github.com/tradepulse/tradepulse/internal/portfolio"
	"github.com/tradepulse/tradepulse/internal/risk"
	"github.com/tradepulse/tradepulse/internal/strategy"
)

// OrderStore is the optional audit sink for executed orders. *db.Store
// satisfies it; a nil store disables recording.
type OrderStore interface {
	RecordOrder(ctx context.Context, record *db.OrderRecord) error
}

// Engine coordinates market data, strategies, risk checks and order
// routing for one trading session.
type Engine struct {
	log       zerolog.Logger
	portfolio *portfolio.Portfolio
	gate      *risk.Gate
	router    *exchange.Router
	manager   *marketdata.Manager
	store     OrderStore

	mu         sync.Mutex
	strategies []strategy.Strategy
	subs       []marketdata.Subscription
	marks      map[string]float64
	running    bool
	runCtx     context.Context
}

// New creates an engine. The store is optional; pass nil to run without
// order persistence.
func New(pf *portfolio.Portfolio, gate *risk.Gate, router *exchange.Router, manager *marketdata.Manager, store OrderStore) *Engine {
	return &Engine{
		log:       config.NewLogger("engine"),
		portfolio: pf,
		gate:      gate,
		router:    router,
		manager:   manager,
		store:     store,
		marks:     make(map[string]float64),
	}
}

// RegisterStrategy adds a strategy to the session. Registration order is
// execution order for signal processing. Must happen before Start.
func (e *Engine) RegisterStrategy(s strategy.Strategy) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return fmt.Errorf("cannot register strategy while engine is running")
	}
	e.strategies = append(e.strategies, s)
	e.log.Info().Str("strategy", s.Name()).Msg("Strategy registered")
	return nil
}

// Start anchors the daily-loss baseline, starts all strategies, subscribes
// them to the given symbols and begins pumping the tick stream.
func (e *Engine) Start(ctx context.Context, symbols []string) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("engine already running")
	}
	e.running = true
	e.runCtx = ctx
	strategies := append([]strategy.Strategy(nil), e.strategies...)
	e.mu.Unlock()

	equity := e.portfolio.MarkToMarket(e.snapshotMarks())
	e.gate.ResetDay(equity)

	for _, s := range strategies {
		s.OnStart()
	}

	e.mu.Lock()
	for _, symbol := range symbols {
		sub := e.manager.Subscribe(symbol, e.handleTick)
		e.subs = append(e.subs, sub)
	}
	e.mu.Unlock()

	if err := e.manager.StartLiveStream(ctx, symbols); err != nil {
		e.teardown(strategies)
		return fmt.Errorf("failed to start market data stream: %w", err)
	}

	e.log.Info().
		Strs("symbols", symbols).
		Int("strategies", len(strategies)).
		Float64("equity", equity).
		Msg("Engine started")

	return nil
}

// Stop drains the tick stream, then stops every strategy. After Stop
// returns no strategy callback will run again.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	strategies := append([]strategy.Strategy(nil), e.strategies...)
	e.mu.Unlock()

	e.manager.StopLiveStream()
	e.teardown(strategies)
	e.log.Info().Msg("Engine stopped")
}

func (e *Engine) teardown(strategies []strategy.Strategy) {
	for _, s := range strategies {
		s.OnStop()
	}
	e.mu.Lock()
	for _, sub := range e.subs {
		e.manager.Unsubscribe(sub)
	}
	e.subs = nil
	e.running = false
	e.mu.Unlock()
}

// Snapshot returns the dashboard view of the portfolio at current marks.
func (e *Engine) Snapshot() portfolio.Snapshot {
	return e.portfolio.TakeSnapshot(e.snapshotMarks())
}

func (e *Engine) snapshotMarks() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	marks := make(map[string]float64, len(e.marks))
	for symbol, price := range e.marks {
		marks[symbol] = price
	}
	return marks
}

// handleTick runs the full decision cycle for one tick. The manager calls
// it serially, so the cycle completes before the next tick is seen.
func (e *Engine) handleTick(tick marketdata.Tick) {
	e.mu.Lock()
	e.marks[tick.Symbol] = tick.Price
	ctx := e.runCtx
	strategies := append([]strategy.Strategy(nil), e.strategies...)
	e.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	metrics.RecordTick(tick.Symbol)

	marks := e.snapshotMarks()
	equity := e.portfolio.MarkToMarket(marks)

	signals := e.collectSignals(strategies, tick)

	for _, sig := range signals {
		approved, reason := e.gate.Validate(sig, marks, equity)
		if !approved {
			metrics.RecordRejection(reason)
			e.log.Debug().
				Str("symbol", sig.Symbol).
				Str("side", string(sig.Side)).
				Float64("quantity", sig.Quantity).
				Str("reason", reason).
				Msg("Signal rejected by risk gate")
			continue
		}
		e.execute(ctx, sig, tick)
	}

	metrics.UpdatePortfolio(
		e.portfolio.MarkToMarket(marks),
		e.portfolio.Cash(),
		e.portfolio.OpenPositions(),
	)
}

// collectSignals fans the tick out to every strategy concurrently and
// gathers the results back in registration order. A panicking or erroring
// strategy contributes nothing; the rest are unaffected.
func (e *Engine) collectSignals(strategies []strategy.Strategy, tick marketdata.Tick) []strategy.Signal {
	results := make([][]strategy.Signal, len(strategies))

	var wg sync.WaitGroup
	for i, s := range strategies {
		wg.Add(1)
		go func(slot int, s strategy.Strategy) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					metrics.StrategyErrors.WithLabelValues(s.Name()).Inc()
					s.OnError(fmt.Errorf("strategy panic: %v", r))
				}
			}()

			signals, err := s.OnData(tick)
			if err != nil {
				metrics.StrategyErrors.WithLabelValues(s.Name()).Inc()
				s.OnError(err)
				return
			}
			for _, sig := range signals {
				metrics.RecordSignal(s.Name(), string(sig.Side))
			}
			results[slot] = signals
		}(i, s)
	}
	wg.Wait()

	var out []strategy.Signal
	for _, signals := range results {
		out = append(out, signals...)
	}
	return out
}

// execute submits an approved signal and applies the fill atomically to
// cash and position. The position basis uses the tick price, keeping the
// book consistent with the mark the decision was made at.
func (e *Engine) execute(ctx context.Context, sig strategy.Signal, tick marketdata.Tick) {
	req := exchange.OrderRequest{
		Symbol:     sig.Symbol,
		Side:       exchange.Side(sig.Side),
		Quantity:   sig.Quantity,
		LimitPrice: tick.Price,
		Type:       exchange.OrderTypeMarket,
	}

	started := time.Now()
	result, err := e.router.Submit(ctx, req)
	if err != nil {
		metrics.OrdersRejected.Inc()
		e.log.Error().
			Err(err).
			Str("symbol", sig.Symbol).
			Str("side", string(sig.Side)).
			Msg("Order submission failed")
		return
	}
	metrics.RecordOrder(sig.Symbol, string(sig.Side), float64(time.Since(started).Milliseconds()))

	fillPrice := result.FilledPrice
	if fillPrice <= 0 {
		fillPrice = tick.Price
	}
	notional := result.FilledQuantity * fillPrice

	signedQty := result.FilledQuantity
	cashDelta := -notional
	if sig.Side == strategy.SideSell {
		signedQty = -result.FilledQuantity
		cashDelta = notional
	}

	e.portfolio.UpdateCash(cashDelta)
	position := e.portfolio.UpdatePosition(sig.Symbol, signedQty, tick.Price)

	e.log.Info().
		Str("order_id", result.OrderID).
		Str("symbol", sig.Symbol).
		Str("side", string(sig.Side)).
		Float64("filled_qty", result.FilledQuantity).
		Float64("fill_price", fillPrice).
		Float64("position_qty", position.Quantity).
		Msg("Order executed")

	e.recordOrder(ctx, sig, req, result, tick)
}

// recordOrder persists the executed order when a store is wired. Failures
// are logged and never interrupt trading.
func (e *Engine) recordOrder(ctx context.Context, sig strategy.Signal, req exchange.OrderRequest, result exchange.OrderResult, tick marketdata.Tick) {
	if e.store == nil {
		return
	}

	record := &db.OrderRecord{
		ID:             uuid.New(),
		ExchangeID:     result.OrderID,
		Symbol:         sig.Symbol,
		Side:           string(sig.Side),
		Type:           string(req.Type),
		Status:         string(result.Status),
		Quantity:       sig.Quantity,
		FilledQuantity: result.FilledQuantity,
		FilledPrice:    result.FilledPrice,
		MarkPrice:      tick.Price,
		PlacedAt:       time.Now().UTC(),
	}
	if err := e.store.RecordOrder(ctx, record); err != nil {
		e.log.Warn().Err(err).Str("symbol", sig.Symbol).Msg("Order audit write failed")
	}
}
