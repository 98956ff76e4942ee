package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/stretchr/testify/require"
)

func TestDispatcherResolve(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d := NewDispatcher(time.Second)
	d.Register(domain.ChannelFile, DelivererFunc(func(context.Context, string, string) error {
		calls.Add(1)
		return nil
	}))

	t.Run("registered channel", func(t *testing.T) {
		del, err := d.Resolve("file")
		require.NoError(t, err)
		require.NoError(t, del.Deliver(context.Background(), "alice", "123456"))
		require.EqualValues(t, 1, calls.Load())
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := d.Resolve("PIGEON")

		var uce *UnsupportedChannelError
		require.True(t, errors.As(err, &uce))
		require.Equal(t, "PIGEON", uce.Channel)
		require.ErrorIs(t, err, domain.ErrValidationFailed)
	})

	t.Run("known channel without transport", func(t *testing.T) {
		_, err := d.Resolve("sms")

		var uce *UnsupportedChannelError
		require.True(t, errors.As(err, &uce))
		require.Equal(t, "SMS", uce.Channel)
	})

	require.Equal(t, []domain.Channel{domain.ChannelFile}, d.Channels())
}

func TestWithTimeout(t *testing.T) {
	t.Parallel()

	t.Run("slow transport fails with delivery error", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		slow := DelivererFunc(func(context.Context, string, string) error {
			<-release // ignores ctx on purpose
			return nil
		})

		start := time.Now()
		err := WithTimeout(slow, 20*time.Millisecond).Deliver(context.Background(), "alice", "1234")
		require.ErrorIs(t, err, domain.ErrDeliveryFailed)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Less(t, time.Since(start), time.Second)
	})

	t.Run("transport errors pass through untouched", func(t *testing.T) {
		boom := errors.New("smtp down")
		failing := DelivererFunc(func(context.Context, string, string) error { return boom })

		err := WithTimeout(failing, time.Second).Deliver(context.Background(), "alice", "1234")
		require.ErrorIs(t, err, boom)
		require.NotErrorIs(t, err, domain.ErrDeliveryFailed)
	})

	t.Run("transport sees the deadline", func(t *testing.T) {
		var hasDeadline bool
		probe := DelivererFunc(func(ctx context.Context, _, _ string) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		})

		require.NoError(t, WithTimeout(probe, time.Second).Deliver(context.Background(), "alice", "1234"))
		require.True(t, hasDeadline)
	})
}

func TestTemplates(t *testing.T) {
	t.Parallel()

	msg, err := MustDefaultTemplates().Render(TemplateData{Code: "424242"})
	require.NoError(t, err)
	require.Equal(t, "Your OTP Code", msg.Subject)
	require.Equal(t, "Your one-time confirmation code is: 424242", msg.Body)

	tpl, err := NewTemplates(`{{ .Channel | lower | title }} code`, `{{ .Code }} for {{ default "you" .Recipient }}`)
	require.NoError(t, err)
	msg, err = tpl.Render(TemplateData{Code: "1234", Channel: "EMAIL"})
	require.NoError(t, err)
	require.Equal(t, "Email code", msg.Subject)
	require.Equal(t, "1234 for you", msg.Body)

	_, err = NewTemplates("{{ .Code ", "")
	require.Error(t, err)
}
