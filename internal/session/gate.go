package session

import (
	"context"
	"sync"
)

// PauseGate is a resettable binary condition a session's write loop awaits
// before each iteration. It is distinct from cancellation (context.Context):
// closing the gate pauses the next iteration without unwinding anything in
// flight, while cancellation always unwinds promptly regardless of the
// gate's state.
type PauseGate struct {
	mu   sync.Mutex
	open chan struct{}
}

// NewPauseGate returns a gate that starts open.
func NewPauseGate() *PauseGate {
	ch := make(chan struct{})
	close(ch)
	return &PauseGate{open: ch}
}

// Close pauses the gate. Subsequent Wait calls block until Open.
// Idempotent.
func (g *PauseGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.open:
		g.open = make(chan struct{})
	default:
		// already closed
	}
}

// Open resumes the gate, waking every Wait caller. Idempotent.
func (g *PauseGate) Open() {
	g.mu.Lock()
	defer g.mu.Unlock()
	select {
	case <-g.open:
		// already open
	default:
		close(g.open)
	}
}

// Wait blocks until the gate is open or ctx is done.
func (g *PauseGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.open
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
