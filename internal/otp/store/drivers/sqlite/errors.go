package sqlite

import (
	"errors"
	"strings"

	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// mapConstraint turns SQLite constraint failures into store sentinels.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}

	var se *msqlite.Error
	if !errors.As(err, &se) {
		return err
	}

	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return errors.Join(store.ErrAlreadyExists, err)
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return errors.Join(store.ErrReferenceMissing, err)
	}

	// Primary result code only; fall back on the message.
	if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := se.Error()
		switch {
		case strings.Contains(msg, "UNIQUE"):
			return errors.Join(store.ErrAlreadyExists, err)
		case strings.Contains(msg, "FOREIGN KEY"):
			return errors.Join(store.ErrReferenceMissing, err)
		}
	}
	return err
}
