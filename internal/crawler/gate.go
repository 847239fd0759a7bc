package crawler

import (
	"context"
	"time"
)

// Gate enforces a minimum interval between outgoing requests across all
// workers. It hands out one token per interval; a worker blocks in Wait
// until a token is available or its context is cancelled.
type Gate struct {
	interval time.Duration
	tokens   chan struct{}
	done     chan struct{}
}

// NewGate creates a gate that releases one request per interval. An
// interval of zero or less disables pacing and Wait returns immediately.
func NewGate(interval time.Duration) *Gate {
	g := &Gate{
		interval: interval,
		done:     make(chan struct{}),
	}
	if interval > 0 {
		g.tokens = make(chan struct{})
		go g.run()
	}
	return g
}

func (g *Gate) run() {
	for {
		select {
		case g.tokens <- struct{}{}:
		case <-g.done:
			return
		}
		select {
		case <-time.After(g.interval):
		case <-g.done:
			return
		}
	}
}

// Wait blocks until the gate releases a token or ctx is cancelled.
func (g *Gate) Wait(ctx context.Context) error {
	if g.tokens == nil {
		return nil
	}
	select {
	case <-g.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts down the gate's token feeder. Pending Wait calls unblock
// only through their context.
func (g *Gate) Stop() {
	select {
	case <-g.done:
	default:
		close(g.done)
	}
}
