package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/notify"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/clockx"
	"github.com/aussiebroadwan/otpgate/pkg/cryptox"
	"github.com/aussiebroadwan/otpgate/pkg/idx"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
	"github.com/sethvargo/go-retry"
)

// DefaultMaxGenerateAttempts bounds how many codes Issue mints before giving
// up on finding one that is not already ACTIVE.
const DefaultMaxGenerateAttempts = 5

// OTPService owns the one-time code lifecycle: ACTIVE at issue, then USED on
// the first successful validation or EXPIRED once older than the TTL.
type OTPService struct {
	Store      store.Store
	Dispatcher notify.Resolver
	Clock      clockx.Clock

	MaxGenerateAttempts int
}

func (s *OTPService) now() time.Time {
	if s.Clock == nil {
		return clockx.System{}.Now()
	}
	return s.Clock.Now()
}

func (s *OTPService) config(ctx context.Context) (domain.OTPConfig, error) {
	cfg, err := s.Store.OTPConfig().GetOTPConfig(ctx)
	if err != nil {
		return domain.OTPConfig{}, storageFailure(ctx, "get otp config", err)
	}
	return cfg, nil
}

// Issue mints a code for userID and operationID and stores it as ACTIVE.
// The config is read on every call so admin updates apply immediately.
func (s *OTPService) Issue(ctx context.Context, userID, operationID string) (string, error) {
	log := slogx.FromContext(ctx)

	userID = strings.TrimSpace(userID)
	operationID = strings.TrimSpace(operationID)
	if userID == "" {
		return "", invalid("user id is required")
	}
	if operationID == "" {
		return "", invalid("operation id is required")
	}

	cfg, err := s.config(ctx)
	if err != nil {
		return "", err
	}

	attempts := s.MaxGenerateAttempts
	if attempts <= 0 {
		attempts = DefaultMaxGenerateAttempts
	}
	// #nosec G115 - attempts is positive
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(time.Millisecond))

	var code string
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		c, err := cryptox.GenerateNumericCode(cfg.CodeLength)
		if err != nil {
			return err
		}

		err = s.Store.OTPCodes().CreateOTP(ctx, domain.OTP{
			ID:          idx.New().String(),
			UserID:      userID,
			OperationID: operationID,
			Code:        c,
			Status:      domain.OTPActive,
			CreatedAt:   s.now(),
		})
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Debug("generated code collides with an active one, regenerating")
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		code = c
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, store.ErrReferenceMissing):
		return "", fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	case errors.Is(err, store.ErrAlreadyExists):
		log.Error("exhausted code generation attempts",
			slog.Int("attempts", attempts),
			slog.Int("code_length", cfg.CodeLength),
		)
		return "", ErrCodeSpaceExhausted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "", err
	default:
		return "", storageFailure(ctx, "create otp", err)
	}

	log.Info("otp issued",
		slog.String("user_id", userID),
		slog.String("operation_id", operationID),
	)
	return code, nil
}

// Deliver issues a code and hands it to the transport for channel. The user
// is resolved first so an unknown user never leaves an ACTIVE record behind.
func (s *OTPService) Deliver(ctx context.Context, userID, operationID, channel string) error {
	log := slogx.FromContext(ctx)

	del, err := s.Dispatcher.Resolve(channel)
	if err != nil {
		log.Warn("unsupported channel requested", slog.String("channel", channel))
		return err
	}
	ch, _ := domain.ParseChannel(channel)

	user, err := s.Store.Users().GetUserByID(ctx, strings.TrimSpace(userID))
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return storageFailure(ctx, "get user", err)
	}
	to, err := user.Recipient(ch)
	if err != nil {
		return err
	}

	code, err := s.Issue(ctx, user.ID, operationID)
	if err != nil {
		return err
	}

	if err := del.Deliver(ctx, to, code); err != nil {
		log.Warn("otp delivery failed",
			slog.String("user_id", user.ID),
			slog.String("channel", string(ch)),
			slog.Any("error", err),
		)
		if errors.Is(err, domain.ErrDeliveryFailed) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", domain.ErrDeliveryFailed, ch, err)
	}

	log.Info("otp delivered",
		slog.String("user_id", user.ID),
		slog.String("operation_id", operationID),
		slog.String("channel", string(ch)),
	)
	return nil
}

// Validate consumes code. It reports false for unknown, spent and stale
// codes, and true at most once per code.
func (s *OTPService) Validate(ctx context.Context, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if !cryptox.IsNumeric(code) {
		return false, invalid("code must be a non-empty string of digits")
	}

	o, err := s.Store.OTPCodes().GetOTPByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storageFailure(ctx, "get otp by code", err)
	}
	if o.Status.Terminal() {
		return false, nil
	}

	cfg, err := s.config(ctx)
	if err != nil {
		return false, err
	}

	now := s.now()
	if o.ExpiredAt(now, cfg.TTL()) {
		n, err := s.Store.OTPCodes().MarkOTPsExpiredBefore(ctx, now.Add(-cfg.TTL()))
		if err != nil {
			return false, storageFailure(ctx, "expire otps", err)
		}
		slogx.FromContext(ctx).Info("otp expired on validation",
			slog.String("otp_id", o.ID),
			slog.Int64("expired", n),
		)
		return false, nil
	}

	ok, err := s.Store.OTPCodes().MarkOTPUsed(ctx, o.ID, now)
	if err != nil {
		return false, storageFailure(ctx, "mark otp used", err)
	}
	if ok {
		slogx.FromContext(ctx).Info("otp validated",
			slog.String("otp_id", o.ID),
			slog.String("user_id", o.UserID),
			slog.String("operation_id", o.OperationID),
		)
	}
	return ok, nil
}

// SweepExpired moves every ACTIVE code older than the current TTL to
// EXPIRED and returns how many changed.
func (s *OTPService) SweepExpired(ctx context.Context) (int64, error) {
	cfg, err := s.config(ctx)
	if err != nil {
		return 0, err
	}
	n, err := s.Store.OTPCodes().MarkOTPsExpiredBefore(ctx, s.now().Add(-cfg.TTL()))
	if err != nil {
		return 0, storageFailure(ctx, "expire otps", err)
	}
	return n, nil
}

// CodesForUser lists every code issued to userID, newest first.
func (s *OTPService) CodesForUser(ctx context.Context, userID string) ([]domain.OTP, error) {
	if _, err := s.Store.Users().GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, storageFailure(ctx, "get user", err)
	}

	codes, err := s.Store.OTPCodes().ListOTPsByUser(ctx, userID)
	if err != nil {
		return nil, storageFailure(ctx, "list otps", err)
	}
	return codes, nil
}
