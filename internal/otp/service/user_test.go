package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/session"
	"github.com/stretchr/testify/require"
)

func newUserService(e *env) *UserService {
	return &UserService{
		Store:    e.store,
		Sessions: session.NewMemoryStore(e.clock, session.DefaultTTL),
		Clock:    e.clock,
	}
}

func TestRegister(t *testing.T) {
	e := newEnv(t)
	svc := newUserService(e)
	ctx := context.Background()

	u, err := svc.Register(ctx, Registration{
		Username: " bob ",
		Password: "secret1",
		Role:     domain.RoleUser,
		Phone:    "+61400000000",
	})
	require.NoError(t, err)
	require.Equal(t, "bob", u.Username)
	require.NotEqual(t, "secret1", u.PasswordHash)
	require.Equal(t, t0, u.CreatedAt)

	got, err := svc.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "+61400000000", got.Phone)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register(ctx, Registration{Username: "bob", Password: "other12", Role: domain.RoleUser})
		require.ErrorIs(t, err, ErrUsernameTaken)
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("single admin", func(t *testing.T) {
		_, err := svc.Register(ctx, Registration{Username: "root", Password: "secret1", Role: domain.RoleAdmin})
		require.NoError(t, err)

		_, err = svc.Register(ctx, Registration{Username: "root2", Password: "secret1", Role: domain.RoleAdmin})
		require.ErrorIs(t, err, ErrAdminExists)
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("bad input", func(t *testing.T) {
		for _, r := range []Registration{
			{Username: "", Password: "secret1", Role: domain.RoleUser},
			{Username: "carol", Password: "", Role: domain.RoleUser},
			{Username: "carol", Password: "secret1", Role: "GUEST"},
		} {
			_, err := svc.Register(ctx, r)
			require.ErrorIs(t, err, domain.ErrValidationFailed)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.GetUserByID(ctx, "nope")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLoginLogout(t *testing.T) {
	e := newEnv(t)
	svc := newUserService(e)
	ctx := context.Background()

	u, err := svc.Register(ctx, Registration{Username: "bob", Password: "secret1", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "bob", "wrong-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = svc.Login(ctx, "nobody", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := svc.Login(ctx, "bob", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, login.Token)
	require.Equal(t, session.DefaultTTL, login.ExpiresIn)

	id, ok, err := svc.Sessions.Resolve(ctx, login.Token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, session.Identity{UserID: u.ID, Username: "bob", Role: domain.RoleUser}, id)

	require.NoError(t, svc.Logout(ctx, login.Token))
	_, ok, err = svc.Sessions.Resolve(ctx, login.Token)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, svc.Logout(ctx, login.Token))
}

func TestLoginSessionExpires(t *testing.T) {
	e := newEnv(t)
	svc := newUserService(e)
	ctx := context.Background()

	_, err := svc.Register(ctx, Registration{Username: "bob", Password: "secret1", Role: domain.RoleUser})
	require.NoError(t, err)
	login, err := svc.Login(ctx, "bob", "secret1")
	require.NoError(t, err)

	e.clock.Advance(session.DefaultTTL + time.Second)
	_, ok, err := svc.Sessions.Resolve(ctx, login.Token)
	require.NoError(t, err)
	require.False(t, ok)
}
