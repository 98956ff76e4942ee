package domain

import (
	"fmt"
	"time"
)

const (
	MinCodeLength = 4
	// MaxCodeLength matches the max=12 bound on the validate request body.
	MaxCodeLength = 12
	MinTTLSeconds = 30
)

// OTPConfig is the single live configuration row. It is read fresh on every
// engine call, so updates apply to codes already issued.
type OTPConfig struct {
	CodeLength int
	TTLSeconds int
}

var DefaultOTPConfig = OTPConfig{CodeLength: 6, TTLSeconds: 300}

func (c OTPConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

func (c OTPConfig) Validate() error {
	if c.CodeLength < MinCodeLength || c.CodeLength > MaxCodeLength {
		return fmt.Errorf("%w: code length must be between %d and %d", ErrValidationFailed, MinCodeLength, MaxCodeLength)
	}
	if c.TTLSeconds < MinTTLSeconds {
		return fmt.Errorf("%w: ttl must be at least %d seconds", ErrValidationFailed, MinTTLSeconds)
	}
	return nil
}
