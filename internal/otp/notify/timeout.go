package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
)

type timeoutDeliverer struct {
	next    Deliverer
	timeout time.Duration
}

// WithTimeout bounds next to timeout. The transport sees a context carrying
// the deadline; if it ignores it, the caller still gets ErrDeliveryFailed on
// time and the transport goroutine finishes on its own.
func WithTimeout(next Deliverer, timeout time.Duration) Deliverer {
	return &timeoutDeliverer{next: next, timeout: timeout}
}

func (t *timeoutDeliverer) Deliver(ctx context.Context, recipient, code string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- t.next.Deliver(ctx, recipient, code)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, ctx.Err())
	}
}
