package domain

import "time"

type OTPStatus string

const (
	OTPActive  OTPStatus = "ACTIVE"
	OTPUsed    OTPStatus = "USED"
	OTPExpired OTPStatus = "EXPIRED"
)

// Terminal reports whether no further transition is allowed.
func (s OTPStatus) Terminal() bool {
	return s == OTPUsed || s == OTPExpired
}

// OTP is one issued code. Status only ever moves ACTIVE -> USED or
// ACTIVE -> EXPIRED.
type OTP struct {
	ID          string
	UserID      string
	OperationID string
	Code        string
	Status      OTPStatus
	CreatedAt   time.Time
	UsedAt      *time.Time
}

// ExpiredAt reports whether the code is past its TTL at now. A code is still
// good at exactly CreatedAt+ttl.
func (o OTP) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return now.After(o.CreatedAt.Add(ttl))
}
