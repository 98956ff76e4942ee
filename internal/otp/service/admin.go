package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
)

type AdminService struct {
	Store store.Store
	OTP   *OTPService
}

func (s *AdminService) GetOTPConfig(ctx context.Context) (domain.OTPConfig, error) {
	cfg, err := s.Store.OTPConfig().GetOTPConfig(ctx)
	if err != nil {
		return domain.OTPConfig{}, storageFailure(ctx, "get otp config", err)
	}
	return cfg, nil
}

// UpdateOTPConfig replaces the singleton config. Codes already issued keep
// their value but are judged against the new TTL from now on.
func (s *AdminService) UpdateOTPConfig(ctx context.Context, cfg domain.OTPConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.Store.OTPConfig().UpdateOTPConfig(ctx, cfg); err != nil {
		return storageFailure(ctx, "update otp config", err)
	}

	slogx.FromContext(ctx).Info("otp config updated",
		slog.Int("length", cfg.CodeLength),
		slog.Int("ttl_seconds", cfg.TTLSeconds),
	)
	return nil
}

// ListUsers returns every non-admin account, oldest first.
func (s *AdminService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.Store.Users().ListUsersByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, storageFailure(ctx, "list users", err)
	}
	return users, nil
}

// DeleteUser removes the user and every code issued to them in one
// transaction.
func (s *AdminService) DeleteUser(ctx context.Context, userID string) error {
	var codes int64
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Users().GetUserByID(ctx, userID); err != nil {
			return err
		}
		n, err := tx.OTPCodes().DeleteOTPsByUser(ctx, userID)
		if err != nil {
			return err
		}
		codes = n
		return tx.Users().DeleteUser(ctx, userID)
	})
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	if err != nil {
		return storageFailure(ctx, "delete user", err)
	}

	slogx.FromContext(ctx).Info("deleted user and their otps",
		slog.String("user_id", userID),
		slog.Int64("otps", codes),
	)
	return nil
}

func (s *AdminService) CodesForUser(ctx context.Context, userID string) ([]domain.OTP, error) {
	return s.OTP.CodesForUser(ctx, userID)
}
