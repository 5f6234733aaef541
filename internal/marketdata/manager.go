package marketdata

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Listener receives ticks for a subscribed symbol. Listeners run on the
// stream goroutine, so one tick is fully handled before the next.
type Listener func(Tick)

// Subscription identifies a registered listener for Unsubscribe.
type Subscription struct {
	symbol string
	id     int
}

// Manager fans the source's tick stream out to per-symbol listeners.
type Manager struct {
	source Source

	mu        sync.Mutex
	listeners map[string]map[int]Listener
	nextID    int

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewManager creates a fan-out manager over the given source.
func NewManager(source Source) *Manager {
	return &Manager{
		source:    source,
		listeners: make(map[string]map[int]Listener),
	}
}

// Subscribe registers a listener for one symbol's ticks.
func (m *Manager) Subscribe(symbol string, listener Listener) Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	if m.listeners[symbol] == nil {
		m.listeners[symbol] = make(map[int]Listener)
	}
	m.listeners[symbol][m.nextID] = listener
	return Subscription{symbol: symbol, id: m.nextID}
}

// Unsubscribe removes a previously registered listener.
func (m *Manager) Unsubscribe(sub Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	listeners, ok := m.listeners[sub.symbol]
	if !ok {
		return
	}
	delete(listeners, sub.id)
	if len(listeners) == 0 {
		delete(m.listeners, sub.symbol)
	}
}

// StartLiveStream begins pumping the source into the listeners. It returns
// an error if a stream is already running or the source cannot start.
func (m *Manager) StartLiveStream(ctx context.Context, symbols []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return fmt.Errorf("live stream already running")
	}

	streamCtx, cancel := context.WithCancel(ctx)
	ticks, err := m.source.Stream(streamCtx, symbols)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start tick stream: %w", err)
	}

	group, _ := errgroup.WithContext(streamCtx)
	group.Go(func() error {
		for tick := range ticks {
			m.publish(tick)
		}
		log.Debug().Msg("Tick stream drained")
		return nil
	})

	m.cancel = cancel
	m.group = group
	return nil
}

// StopLiveStream cancels the stream and waits for it to drain, so no
// listener is invoked after this returns.
func (m *Manager) StopLiveStream() {
	m.mu.Lock()
	cancel, group := m.cancel, m.group
	m.cancel, m.group = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	_ = group.Wait()
}

func (m *Manager) publish(tick Tick) {
	m.mu.Lock()
	registered := m.listeners[tick.Symbol]
	listeners := make([]Listener, 0, len(registered))
	for _, listener := range registered {
		listeners = append(listeners, listener)
	}
	m.mu.Unlock()

	for _, listener := range listeners {
		listener(tick)
	}
}
