package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
)

var (
	ErrNotFound         = errors.New("store: not found")
	ErrAlreadyExists    = errors.New("store: already exists")
	ErrReferenceMissing = errors.New("store: referenced row missing")
)

// Store is the root data access interface. Drivers implement it and hand out
// sub-repositories; a Tx hands out the same repositories bound to the
// transaction, so nested transactions cannot be started by accident.
type Store interface {
	Users() Users
	OTPCodes() OTPCodes
	OTPConfig() OTPConfig

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser fails with ErrAlreadyExists on a duplicate username or a
	// second ADMIN.
	CreateUser(ctx context.Context, u domain.User) error

	DeleteUser(ctx context.Context, id string) error

	// ListUsersByRole returns users with role, oldest first.
	ListUsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error)

	AdminExists(ctx context.Context) (bool, error)
}

type OTPCodes interface {
	// CreateOTP fails with ErrAlreadyExists when the code is already ACTIVE
	// and with ErrReferenceMissing when the user does not exist.
	CreateOTP(ctx context.Context, o domain.OTP) error

	// GetOTPByCode prefers the ACTIVE record for code, falling back to the
	// newest terminal one.
	GetOTPByCode(ctx context.Context, code string) (domain.OTP, error)

	// MarkOTPUsed flips an ACTIVE record to USED. It reports false when the
	// record was no longer ACTIVE.
	MarkOTPUsed(ctx context.Context, id string, usedAt time.Time) (bool, error)

	// MarkOTPsExpiredBefore flips every ACTIVE record created before cutoff
	// to EXPIRED and returns how many changed.
	MarkOTPsExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// ListOTPsByUser returns every record for userID, newest first.
	ListOTPsByUser(ctx context.Context, userID string) ([]domain.OTP, error)

	DeleteOTPsByUser(ctx context.Context, userID string) (int64, error)
}

type OTPConfig interface {
	GetOTPConfig(ctx context.Context) (domain.OTPConfig, error)
	UpdateOTPConfig(ctx context.Context, cfg domain.OTPConfig) error
}
