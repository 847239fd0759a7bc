package crawler

import (
	"context"
	"testing"
	"time"
)

// TestGate tests request pacing.
func TestGate(t *testing.T) {
	t.Parallel()

	t.Run("zero interval never blocks", func(t *testing.T) {
		t.Parallel()

		g := NewGate(0)
		defer g.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		for i := 0; i < 100; i++ {
			if err := g.Wait(ctx); err != nil {
				t.Fatalf("Wait returned error: %v", err)
			}
		}
	})

	t.Run("enforces minimum spacing between tokens", func(t *testing.T) {
		t.Parallel()

		const interval = 50 * time.Millisecond
		g := NewGate(interval)
		defer g.Stop()

		ctx := context.Background()

		start := time.Now()
		for i := 0; i < 3; i++ {
			if err := g.Wait(ctx); err != nil {
				t.Fatalf("Wait returned error: %v", err)
			}
		}
		elapsed := time.Since(start)

		// Three tokens require at least two full intervals of spacing.
		if elapsed < 2*interval {
			t.Errorf("three waits finished in %v, want at least %v", elapsed, 2*interval)
		}
	})

	t.Run("wait respects context cancellation", func(t *testing.T) {
		t.Parallel()

		g := NewGate(time.Hour)
		defer g.Stop()

		// Consume the first immediately available token.
		if err := g.Wait(context.Background()); err != nil {
			t.Fatalf("first Wait returned error: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if err := g.Wait(ctx); err == nil {
			t.Error("expected context error while waiting on a slow gate")
		}
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		t.Parallel()

		g := NewGate(10 * time.Millisecond)
		g.Stop()
		g.Stop()
	})
}
