// Package session issues opaque bearer tokens and maps them back to the
// identity that logged in.
package session

import (
	"context"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
)

// DefaultTTL is fixed from issuance; tokens are never renewed.
const DefaultTTL = 30 * time.Minute

// Identity is a snapshot taken at login. Later changes to the user are not
// reflected in tokens already issued.
type Identity struct {
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// Store owns the token -> identity mapping. Implementations are safe for
// concurrent use.
type Store interface {
	// Issue mints a fresh token for id.
	Issue(ctx context.Context, id Identity) (string, error)

	// Resolve reports the identity behind token. Unknown and expired tokens
	// are absent; an expired entry is dropped as a side effect.
	Resolve(ctx context.Context, token string) (Identity, bool, error)

	// Revoke forgets token. Revoking an unknown token is not an error.
	Revoke(ctx context.Context, token string) error
}
