package poll

import (
	"context"
	"time"

	"whatsapp-console/internal/payment"
)

// StatusChecker fetches the payment's current status from the platform.
type StatusChecker func(ctx context.Context) (payment.Status, error)

// PaymentSink receives the poll's outcome. Exactly one terminal
// callback fires per watch: OnTerminal for a settled status, OnTimeout
// when the bound elapses with the payment still pending.
type PaymentSink interface {
	OnTerminal(status payment.Status)
	OnTimeout()
}

// WatchPayment polls a registered payment until it settles or the bound
// elapses. The bound exists so a forgotten tab cannot poll forever;
// whoever owns the handle may also stop it early.
func WatchPayment(ctx context.Context, interval, bound time.Duration, check StatusChecker, sink PaymentSink) *Handle {
	return Start(ctx, interval, bound, func(ctx context.Context) bool {
		status, err := check(ctx)
		if err != nil {
			// transient check failures are retried on the next tick;
			// the bound still caps the total wait
			return false
		}
		if status.Terminal() {
			sink.OnTerminal(status)
			return true
		}
		return false
	}, sink.OnTimeout)
}
