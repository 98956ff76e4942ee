package otpsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// Session makes calls with a bearer token. It is safe for concurrent use; the
// token never changes after construction.
type Session struct {
	client    *Client
	token     string
	expiresAt time.Time
}

func (s *Session) Token() string { return s.token }

// ExpiresAt is the client-side estimate of when the server drops the token.
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.client.do(ctx, http.MethodPost, "/v1/logout", s.token, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// GenerateOTP issues a code and has the server deliver it on req.Channel.
func (s *Session) GenerateOTP(ctx context.Context, req GenerateOTPRequest) error {
	resp, err := s.client.do(ctx, http.MethodPost, "/v1/otp/generate", s.token, req)
	if err != nil {
		return err
	}
	var out GenerateOTPResponse
	return decodeJSON(resp, &out, http.StatusAccepted)
}

// ValidateOTP reports whether code was accepted. A rejected code is
// (false, nil); transport and other API failures are errors.
func (s *Session) ValidateOTP(ctx context.Context, code string) (bool, error) {
	resp, err := s.client.do(ctx, http.MethodPost, "/v1/otp/validate", s.token, ValidateOTPRequest{Code: code})
	if err != nil {
		return false, err
	}

	var out ValidateOTPResponse
	err = decodeJSON(resp, &out, http.StatusOK)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == ErrorCodeInvalidCode {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return out.Valid, nil
}

// ============================================================================
// Administration (ADMIN role)
// ============================================================================

func (s *Session) GetOTPConfig(ctx context.Context) (*OTPConfigResponse, error) {
	resp, err := s.client.do(ctx, http.MethodGet, "/v1/admin/config", s.token, nil)
	if err != nil {
		return nil, err
	}
	var cfg OTPConfigResponse
	if err := decodeJSON(resp, &cfg, http.StatusOK); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Session) UpdateOTPConfig(ctx context.Context, req UpdateOTPConfigRequest) error {
	resp, err := s.client.do(ctx, http.MethodPatch, "/v1/admin/config", s.token, req)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ListUsers returns every non-admin account.
func (s *Session) ListUsers(ctx context.Context) ([]UserResponse, error) {
	resp, err := s.client.do(ctx, http.MethodGet, "/v1/admin/users", s.token, nil)
	if err != nil {
		return nil, err
	}
	var users []UserResponse
	if err := decodeJSON(resp, &users, http.StatusOK); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Session) DeleteUser(ctx context.Context, userID string) error {
	resp, err := s.client.do(ctx, http.MethodDelete, "/v1/admin/users/"+url.PathEscape(userID), s.token, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ListUserOTPs returns every code issued to userID, newest first.
func (s *Session) ListUserOTPs(ctx context.Context, userID string) ([]OTPResponse, error) {
	resp, err := s.client.do(ctx, http.MethodGet, "/v1/admin/users/"+url.PathEscape(userID)+"/otps", s.token, nil)
	if err != nil {
		return nil, err
	}
	var codes []OTPResponse
	if err := decodeJSON(resp, &codes, http.StatusOK); err != nil {
		return nil, err
	}
	return codes, nil
}
