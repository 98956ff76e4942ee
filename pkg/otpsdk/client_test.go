package otpsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/otpgate/pkg/validx"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL + "/")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginAndBearer(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/login":
			var req LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Equal(t, "alice", req.Username)
			writeJSON(w, http.StatusOK, TokenResponse{Token: "tok-1", TokenType: "Bearer", ExpiresIn: 1800})
		case "/v1/logout":
			require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	s, err := client.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	require.Equal(t, "tok-1", s.Token())
	require.NoError(t, s.Logout(context.Background()))
}

func TestValidateOTPOutcomes(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req ValidateOTPRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.Code {
		case "123456":
			writeJSON(w, http.StatusOK, ValidateOTPResponse{Valid: true})
		case "000000":
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorCodeInvalidCode, ErrorDescription: "Invalid or expired code"})
		default:
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: ErrorCodeUnauthenticated, ErrorDescription: "token expired"})
		}
	})
	s := client.NewSession("tok", 60)

	ok, err := s.ValidateOTP(context.Background(), "123456")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.ValidateOTP(context.Background(), "000000")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = s.ValidateOTP(context.Background(), "999999")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, ErrorCodeUnauthenticated, apiErr.Code)
}

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		code    string
		details map[string]string
	}{
		{
			name:   "error body",
			status: http.StatusConflict,
			body:   `{"error":"conflict","error_description":"username taken"}`,
			code:   ErrorCodeConflict,
		},
		{
			name:    "validation body",
			status:  http.StatusBadRequest,
			body:    `{"code":"validation_error","message":"invalid request","details":{"code":"code must be numeric"}}`,
			code:    ErrorCodeValidation,
			details: map[string]string{"code": "code must be numeric"},
		},
		{
			name:   "unparseable body",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			code:   ErrorCodeServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseErrorResponse(&http.Response{StatusCode: tt.status}, []byte(tt.body))
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Equal(t, tt.code, apiErr.Code)
			require.Equal(t, tt.details, apiErr.Details)
		})
	}

	require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
}

func TestRequestValidation(t *testing.T) {
	t.Parallel()

	require.NoError(t, RegisterRequest{Username: "alice", Password: "secret", Role: RoleUser}.Validate())
	require.NoError(t, ValidateOTPRequest{Code: "0042"}.Validate())
	require.NoError(t, UpdateOTPConfigRequest{Length: 6, TTLSeconds: 300}.Validate())

	tests := []struct {
		name  string
		req   interface{ Validate() error }
		field string
	}{
		{"short username", RegisterRequest{Username: "al", Password: "secret", Role: RoleUser}, "username"},
		{"short password", RegisterRequest{Username: "alice", Password: "123", Role: RoleUser}, "password"},
		{"unknown role", RegisterRequest{Username: "alice", Password: "secret", Role: "ROOT"}, "role"},
		{"bad email", RegisterRequest{Username: "alice", Password: "secret", Role: RoleUser, Email: "x"}, "email"},
		{"non-numeric code", ValidateOTPRequest{Code: "12a4"}, "code"},
		{"short code", ValidateOTPRequest{Code: "123"}, "code"},
		{"missing operation", GenerateOTPRequest{Channel: "SMS"}, "operation_id"},
		{"length too small", UpdateOTPConfigRequest{Length: 3, TTLSeconds: 300}, "length"},
		{"ttl too small", UpdateOTPConfigRequest{Length: 6, TTLSeconds: 29}, "ttl_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr validx.Errors
			require.True(t, errors.As(tt.req.Validate(), &verr))
			require.Contains(t, verr, tt.field)
		})
	}
}
