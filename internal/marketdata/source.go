package marketdata

import "context"

// Source produces a lazy tick sequence for a symbol set. The returned
// channel is closed when the context is cancelled or the source is
// exhausted; live sources are infinite until disconnect.
type Source interface {
	Stream(ctx context.Context, symbols []string) (<-chan Tick, error)
}
