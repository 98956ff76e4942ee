package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/session"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/pkg/clockx"
	"github.com/aussiebroadwan/otpgate/pkg/cryptox"
	"github.com/aussiebroadwan/otpgate/pkg/idx"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
)

type UserService struct {
	Store    store.Store
	Sessions session.Store
	Clock    clockx.Clock

	// SessionTTL is reported to clients as expires_in. It should match the
	// TTL the session store was built with.
	SessionTTL time.Duration
}

type Registration struct {
	Username       string
	Password       string
	Role           domain.Role
	Email          string
	Phone          string
	TelegramChatID string
}

type Login struct {
	Token     string
	ExpiresIn time.Duration
	User      domain.User
}

// Register creates an account. Only one ADMIN may ever exist at a time.
func (s *UserService) Register(ctx context.Context, r Registration) (domain.User, error) {
	log := slogx.FromContext(ctx)

	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return domain.User{}, invalid("username is required")
	}
	if r.Password == "" {
		return domain.User{}, invalid("password is required")
	}
	if !r.Role.Valid() {
		return domain.User{}, invalid("unknown role %q", r.Role)
	}

	if r.Role == domain.RoleAdmin {
		exists, err := s.Store.Users().AdminExists(ctx)
		if err != nil {
			return domain.User{}, storageFailure(ctx, "check admin", err)
		}
		if exists {
			log.Warn("attempt to register a second admin", slog.String("username", r.Username))
			return domain.User{}, ErrAdminExists
		}
	}

	hash, err := cryptox.HashPassword(r.Password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}

	now := clockx.System{}.Now()
	if s.Clock != nil {
		now = s.Clock.Now()
	}
	u := domain.User{
		ID:             idx.New().String(),
		Username:       r.Username,
		PasswordHash:   hash,
		Role:           r.Role,
		Email:          strings.TrimSpace(r.Email),
		Phone:          strings.TrimSpace(r.Phone),
		TelegramChatID: strings.TrimSpace(r.TelegramChatID),
		CreatedAt:      now,
	}

	err = s.Store.Users().CreateUser(ctx, u)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Either the username is taken or another admin won the race.
		if _, lookupErr := s.Store.Users().GetUserByUsername(ctx, u.Username); lookupErr == nil {
			log.Warn("attempt to register existing username", slog.String("username", u.Username))
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, ErrAdminExists
	}
	if err != nil {
		return domain.User{}, storageFailure(ctx, "create user", err)
	}

	log.Info("registered user",
		slog.String("user_id", u.ID),
		slog.String("username", u.Username),
		slog.String("role", string(u.Role)),
	)
	return u, nil
}

// Login checks the password and opens a session. Unknown users and wrong
// passwords fail the same way.
func (s *UserService) Login(ctx context.Context, username, password string) (Login, error) {
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("login failed: unknown user", slog.String("username", username))
		return Login{}, ErrInvalidCredentials
	}
	if err != nil {
		return Login{}, storageFailure(ctx, "get user", err)
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Warn("login failed: wrong password", slog.String("username", u.Username))
			return Login{}, ErrInvalidCredentials
		}
		log.Error("failed to verify password", slog.String("user_id", u.ID), slog.Any("error", err))
		return Login{}, err
	}

	token, err := s.Sessions.Issue(ctx, session.Identity{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	})
	if err != nil {
		log.Error("failed to issue session", slog.Any("error", err))
		return Login{}, err
	}

	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	log.Info("user logged in", slog.String("user_id", u.ID))
	return Login{Token: token, ExpiresIn: ttl, User: u}, nil
}

// Logout revokes token. Revoking an already dead token succeeds.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if err := s.Sessions.Revoke(ctx, token); err != nil {
		slogx.FromContext(ctx).Error("failed to revoke session", slog.Any("error", err))
		return err
	}
	return nil
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, storageFailure(ctx, "get user", err)
	}
	return u, nil
}
