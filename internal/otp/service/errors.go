package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid username or password: %w", domain.ErrUnauthenticated)
	ErrUsernameTaken      = fmt.Errorf("username already exists: %w", domain.ErrConflict)
	ErrAdminExists        = fmt.Errorf("administrator already exists: %w", domain.ErrConflict)
	ErrCodeSpaceExhausted = fmt.Errorf("could not mint a unique code: %w", domain.ErrConflict)
)

// storageFailure logs err and tags it so errors.Is matches both the cause and
// ErrStorageUnavailable.
func storageFailure(ctx context.Context, op string, err error) error {
	slogx.FromContext(ctx).Error("storage failure", slog.String("op", op), slog.Any("error", err))
	return errors.Join(domain.ErrStorageUnavailable, fmt.Errorf("%s: %w", op, err))
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrValidationFailed}, args...)...)
}
