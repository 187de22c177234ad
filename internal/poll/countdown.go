package poll

import (
	"context"
	"sync"
	"time"
)

// Countdown is the per-device QR expiry timer: a QR code is usable for
// a fixed window, after which the display is disabled until the user
// explicitly retries. Each device in a list runs its own countdown.
type Countdown struct {
	total time.Duration
	tick  time.Duration

	mu        sync.Mutex
	remaining time.Duration
	expired   bool

	onExpire func()
	onRetry  func()

	cancel context.CancelFunc
	wake   chan struct{}
}

// NewCountdown starts a countdown of the given total, decrementing
// every tick. onExpire fires once when it hits zero; onRetry fires when
// the user retries, which also resets the timer.
func NewCountdown(ctx context.Context, total, tick time.Duration, onExpire, onRetry func()) *Countdown {
	ctx, cancel := context.WithCancel(ctx)
	c := &Countdown{
		total:     total,
		tick:      tick,
		remaining: total,
		onExpire:  onExpire,
		onRetry:   onRetry,
		cancel:    cancel,
		wake:      make(chan struct{}, 1),
	}
	go c.run(ctx)
	return c
}

func (c *Countdown) run(ctx context.Context) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
			// retry reset the clock; fall through to next tick
		case <-ticker.C:
			c.mu.Lock()
			if c.expired {
				c.mu.Unlock()
				continue
			}
			c.remaining -= c.tick
			fire := false
			if c.remaining <= 0 {
				c.remaining = 0
				c.expired = true
				fire = true
			}
			c.mu.Unlock()
			if fire && c.onExpire != nil {
				c.onExpire()
			}
		}
	}
}

// Retry resets the countdown and re-requests a fresh QR. Only the user
// can un-expire a code.
func (c *Countdown) Retry() {
	c.mu.Lock()
	c.remaining = c.total
	c.expired = false
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
	if c.onRetry != nil {
		c.onRetry()
	}
}

func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Remaining is the whole seconds left on the clock.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.remaining / time.Second)
}

// ActionLabel is the button label the device card shows: a live code
// offers a refresh, an expired one a retry.
func (c *Countdown) ActionLabel() string {
	if c.Expired() {
		return "Retry"
	}
	return "Refresh QR"
}

// Stop ends the countdown goroutine. Tied to the owning view's
// lifetime.
func (c *Countdown) Stop() { c.cancel() }
