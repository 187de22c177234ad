// Package poll implements the console's client-managed polling loops
// as structured cancellable tasks. Every loop is owned by a Handle tied
// to a context, stops deterministically on cancellation, terminal-state
// detection, or its bound, and never outlives its owner.
package poll

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Handle owns one running poll loop.
type Handle struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// ID identifies the loop in logs and hub events.
func (h *Handle) ID() string { return h.id }

// Stop cancels the loop. Safe to call more than once; an in-flight
// tick runs to completion but its result is the loop's last.
func (h *Handle) Stop() { h.cancel() }

// Done closes when the loop has fully exited.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Start runs tick at a fixed interval until the owner cancels, the
// bound elapses, or tick asks to stop. A zero bound means unbounded.
// onTimeout fires only when the bound elapses without tick stopping
// the loop first.
func Start(ctx context.Context, interval, bound time.Duration, tick func(context.Context) (stop bool), onTimeout func()) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	var deadline <-chan time.Time
	if bound > 0 {
		deadline = time.After(bound)
	}

	go func() {
		defer close(h.done)
		defer cancel()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-deadline:
				if onTimeout != nil {
					onTimeout()
				}
				return
			case <-ticker.C:
				if tick(ctx) {
					return
				}
			}
		}
	}()
	return h
}
