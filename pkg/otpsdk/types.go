package otpsdk

import (
	"time"

	"github.com/aussiebroadwan/otpgate/pkg/validx"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// ErrorResponse is the body of every non-validation error.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ValidationErrorResponse is returned when a request body fails validation.
type ValidationErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ============================================================================
// Accounts
// ============================================================================

type RegisterRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=50,username"`
	Password       string `json:"password" validate:"required,min=6,max=128"`
	Role           string `json:"role" validate:"required,oneof=USER ADMIN"`
	Email          string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone          string `json:"phone,omitempty" validate:"omitempty,max=32"`
	TelegramChatID string `json:"telegram_chat_id,omitempty" validate:"omitempty,max=64"`
}

func (r RegisterRequest) Validate() error { return validx.Struct(r) }

type UserResponse struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Role           string    `json:"role"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	TelegramChatID string    `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=128"`
}

func (r LoginRequest) Validate() error { return validx.Struct(r) }

// TokenResponse is returned by login. TokenType is always "Bearer".
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// ============================================================================
// One-time codes
// ============================================================================

// GenerateOTPRequest asks for a code to be issued and sent. UserID defaults
// to the caller; only admins may target someone else.
type GenerateOTPRequest struct {
	UserID      string `json:"user_id,omitempty" validate:"omitempty,max=64"`
	OperationID string `json:"operation_id" validate:"required,max=128"`
	Channel     string `json:"channel" validate:"required,max=16"`
}

func (r GenerateOTPRequest) Validate() error { return validx.Struct(r) }

type GenerateOTPResponse struct {
	Status string `json:"status"`
}

type ValidateOTPRequest struct {
	Code string `json:"code" validate:"required,numeric,min=4,max=12"`
}

func (r ValidateOTPRequest) Validate() error { return validx.Struct(r) }

type ValidateOTPResponse struct {
	Valid bool `json:"valid"`
}

type OTPResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	OperationID string     `json:"operation_id"`
	Code        string     `json:"code"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
}

// ============================================================================
// Administration
// ============================================================================

type OTPConfigResponse struct {
	Length     int `json:"length"`
	TTLSeconds int `json:"ttl_seconds"`
}

type UpdateOTPConfigRequest struct {
	Length     int `json:"length" validate:"required,min=4,max=12"`
	TTLSeconds int `json:"ttl_seconds" validate:"required,min=30"`
}

func (r UpdateOTPConfigRequest) Validate() error { return validx.Struct(r) }

// ============================================================================
// Health
// ============================================================================

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database,omitempty"`
	Sessions string `json:"sessions,omitempty"`
}
