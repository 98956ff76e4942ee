// Package notify delivers one-time codes over the configured channels. The
// OTP engine only ever sees the Resolver and Deliverer interfaces.
package notify

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
)

// DefaultTimeout bounds a single delivery when none is configured.
const DefaultTimeout = 10 * time.Second

// Deliverer sends code to recipient over one channel.
type Deliverer interface {
	Deliver(ctx context.Context, recipient, code string) error
}

type DelivererFunc func(ctx context.Context, recipient, code string) error

func (f DelivererFunc) Deliver(ctx context.Context, recipient, code string) error {
	return f(ctx, recipient, code)
}

type Resolver interface {
	Resolve(channel string) (Deliverer, error)
}

// UnsupportedChannelError is returned for an unknown channel name or a known
// channel with no transport configured. It matches domain.ErrValidationFailed.
type UnsupportedChannelError struct {
	Channel string
}

func (e *UnsupportedChannelError) Error() string {
	return fmt.Sprintf("unsupported channel %q", e.Channel)
}

func (e *UnsupportedChannelError) Is(target error) bool {
	return target == domain.ErrValidationFailed
}

// Dispatcher maps channels to transports. Every Deliverer it hands out is
// bounded by Timeout.
type Dispatcher struct {
	timeout time.Duration

	mu         sync.RWMutex
	deliverers map[domain.Channel]Deliverer
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		timeout:    timeout,
		deliverers: make(map[domain.Channel]Deliverer),
	}
}

// Register installs d for ch, replacing any earlier transport.
func (d *Dispatcher) Register(ch domain.Channel, del Deliverer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deliverers[ch] = del
}

func (d *Dispatcher) Resolve(channel string) (Deliverer, error) {
	ch, ok := domain.ParseChannel(channel)
	if !ok {
		return nil, &UnsupportedChannelError{Channel: channel}
	}

	d.mu.RLock()
	del, ok := d.deliverers[ch]
	d.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedChannelError{Channel: string(ch)}
	}
	return WithTimeout(del, d.timeout), nil
}

// Channels lists the channels with a registered transport.
func (d *Dispatcher) Channels() []domain.Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.Channel, 0, len(d.deliverers))
	for ch := range d.deliverers {
		out = append(out, ch)
	}
	slices.Sort(out)
	return out
}
