// Package access gates HTTP handlers on a live session token and a minimum
// role.
package access

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/session"
	"github.com/aussiebroadwan/otpgate/pkg/httpx"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
)

type ctxKey struct{}

type caller struct {
	id    session.Identity
	token string
}

// WithIdentity attaches id and the token it was resolved from to ctx.
func WithIdentity(ctx context.Context, id session.Identity, token string) context.Context {
	return context.WithValue(ctx, ctxKey{}, caller{id: id, token: token})
}

// IdentityFromContext returns the identity attached by Gate.Require.
func IdentityFromContext(ctx context.Context) (session.Identity, bool) {
	c, ok := ctx.Value(ctxKey{}).(caller)
	return c.id, ok
}

// TokenFromContext returns the bearer token the request was admitted with.
func TokenFromContext(ctx context.Context) (string, bool) {
	c, ok := ctx.Value(ctxKey{}).(caller)
	if !ok || c.token == "" {
		return "", false
	}
	return c.token, true
}

type Gate struct {
	Sessions session.Store
}

// Require admits requests carrying a live token whose role ranks at least
// min. Authentication is always settled before the role is looked at.
func (g Gate) Require(min domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := httpx.BearerToken(r)
			if !ok {
				httpx.WriteBearerError(w, "missing bearer token")
				return
			}

			id, ok, err := g.Sessions.Resolve(ctx, token)
			if err != nil {
				slogx.FromContext(ctx).Error("session lookup failed", "err", err)
				httpx.WriteError(w, http.StatusInternalServerError, "server_error", "session lookup failed")
				return
			}
			if !ok {
				httpx.WriteBearerError(w, "invalid or expired token")
				return
			}

			if !id.Role.AtLeast(min) {
				slogx.FromContext(ctx).Warn("access denied",
					"user_id", id.UserID, "role", id.Role, "required", min)
				httpx.WriteForbidden(w, "requires role "+string(min))
				return
			}

			ctx = WithIdentity(ctx, id, token)
			ctx = slogx.With(ctx, "user_id", id.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
