package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/otpgate/internal/otp/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op: the caller ends the tx and the outer DB stays open.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(context.Context) error { return nil }

// Nested transactions are not supported.
func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, sql.ErrTxDone }

func (t *txStore) WithTx(context.Context, func(tx store.Tx) error) error { return sql.ErrTxDone }

func (t *txStore) Users() store.Users         { return &usersRepo{db: t.tx} }
func (t *txStore) OTPCodes() store.OTPCodes   { return &otpCodesRepo{db: t.tx} }
func (t *txStore) OTPConfig() store.OTPConfig { return &otpConfigRepo{db: t.tx} }

// ApplyMigrations is a no-op; migrate before opening transactions.
func (t *txStore) ApplyMigrations() error { return nil }
