package http

import (
	"net/http"

	"github.com/aussiebroadwan/otpgate/internal/otp/access"
	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/pkg/httpx"
	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
)

// AccountHandler serves registration and the session lifecycle.
type AccountHandler struct {
	UserService *service.UserService
}

// HandleRegister handles POST /v1/register
//
//	@Summary		Register account
//	@Description	Creates a USER or ADMIN account. Only one ADMIN may exist.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		otpsdk.RegisterRequest			true	"Account details"
//	@Success		201		{object}	otpsdk.UserResponse
//	@Failure		400		{object}	otpsdk.ValidationErrorResponse
//	@Failure		409		{object}	otpsdk.ErrorResponse	"username taken or admin exists"
//	@Failure		429		{object}	otpsdk.ErrorResponse
//	@Router			/v1/register [post].
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[otpsdk.RegisterRequest](w, r)
	if !ok {
		return
	}

	role, _ := domain.ParseRole(req.Role)
	u, err := h.UserService.Register(r.Context(), service.Registration{
		Username:       req.Username,
		Password:       req.Password,
		Role:           role,
		Email:          req.Email,
		Phone:          req.Phone,
		TelegramChatID: req.TelegramChatID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

// HandleLogin handles POST /v1/login
//
//	@Summary		Log in
//	@Description	Exchanges a username and password for a session token valid for 30 minutes.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			request	body		otpsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	otpsdk.TokenResponse
//	@Failure		400		{object}	otpsdk.ValidationErrorResponse
//	@Failure		401		{object}	otpsdk.ErrorResponse
//	@Failure		429		{object}	otpsdk.ErrorResponse
//	@Router			/v1/login [post].
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[otpsdk.LoginRequest](w, r)
	if !ok {
		return
	}

	login, err := h.UserService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, otpsdk.TokenResponse{
		Token:     login.Token,
		TokenType: "Bearer",
		ExpiresIn: int(login.ExpiresIn.Seconds()),
	})
}

// HandleLogout handles POST /v1/logout
//
//	@Summary	Log out
//	@Tags		Accounts
//	@Security	BearerAuth
//	@Success	204
//	@Failure	401	{object}	otpsdk.ErrorResponse
//	@Router		/v1/logout [post].
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := access.TokenFromContext(r.Context())
	if !ok {
		httpx.WriteBearerError(w, "missing bearer token")
		return
	}
	if err := h.UserService.Logout(r.Context(), token); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
