package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
)

const otpColumns = `id, user_id, operation_id, code, status, created_at, used_at`

type otpCodesRepo struct {
	db dbtx
}

func scanOTP(row rowScanner) (domain.OTP, error) {
	var (
		o         domain.OTP
		status    string
		createdAt int64
		usedAt    sql.NullInt64
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.OperationID, &o.Code, &status, &createdAt, &usedAt); err != nil {
		return domain.OTP{}, err
	}
	o.Status = domain.OTPStatus(status)
	o.CreatedAt = fromMillis(createdAt)
	o.UsedAt = mapNullMillis(usedAt)
	return o, nil
}

func (r *otpCodesRepo) CreateOTP(ctx context.Context, o domain.OTP) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_codes (`+otpColumns+`) VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		o.ID, o.UserID, o.OperationID, o.Code, string(o.Status), toMillis(o.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *otpCodesRepo) GetOTPByCode(ctx context.Context, code string) (domain.OTP, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+otpColumns+` FROM otp_codes
		WHERE code = ?
		ORDER BY status = 'ACTIVE' DESC, created_at DESC, id DESC
		LIMIT 1`, code)
	o, err := scanOTP(row)
	if err != nil {
		return domain.OTP{}, mapNotFound(err)
	}
	return o, nil
}

func (r *otpCodesRepo) MarkOTPUsed(ctx context.Context, id string, usedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE otp_codes SET status = 'USED', used_at = ? WHERE id = ? AND status = 'ACTIVE'`,
		toMillis(usedAt), id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *otpCodesRepo) MarkOTPsExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE otp_codes SET status = 'EXPIRED' WHERE status = 'ACTIVE' AND created_at < ?`,
		ceilMillis(cutoff),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *otpCodesRepo) ListOTPsByUser(ctx context.Context, userID string) ([]domain.OTP, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+otpColumns+` FROM otp_codes WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OTP
	for rows.Next() {
		o, err := scanOTP(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *otpCodesRepo) DeleteOTPsByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
