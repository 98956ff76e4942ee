package sqlite

import (
	"context"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
)

type otpConfigRepo struct {
	db dbtx
}

func (r *otpConfigRepo) GetOTPConfig(ctx context.Context) (domain.OTPConfig, error) {
	var cfg domain.OTPConfig
	err := r.db.QueryRowContext(ctx,
		`SELECT code_length, ttl_seconds FROM otp_config WHERE id = 1`,
	).Scan(&cfg.CodeLength, &cfg.TTLSeconds)
	if err != nil {
		return domain.OTPConfig{}, mapNotFound(err)
	}
	return cfg, nil
}

func (r *otpConfigRepo) UpdateOTPConfig(ctx context.Context, cfg domain.OTPConfig) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE otp_config SET code_length = ?, ttl_seconds = ? WHERE id = 1`,
		cfg.CodeLength, cfg.TTLSeconds,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
