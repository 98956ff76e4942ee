package http

import (
	"net/http"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/pkg/httpx"
	"github.com/aussiebroadwan/otpgate/pkg/idx"
	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	"github.com/go-chi/chi/v5"
)

// AdminHandler serves the ADMIN-only endpoints.
type AdminHandler struct {
	AdminService *service.AdminService
}

// HandleGetConfig handles GET /v1/admin/config
//
//	@Summary	Get OTP config
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	otpsdk.OTPConfigResponse
//	@Failure	401	{object}	otpsdk.ErrorResponse
//	@Failure	403	{object}	otpsdk.ErrorResponse
//	@Router		/v1/admin/config [get].
func (h *AdminHandler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.AdminService.GetOTPConfig(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, otpsdk.OTPConfigResponse{
		Length:     cfg.CodeLength,
		TTLSeconds: cfg.TTLSeconds,
	})
}

// HandleUpdateConfig handles PATCH /v1/admin/config
//
//	@Summary		Update OTP config
//	@Description	Changes code length and TTL. Takes effect on the next generate, validate or sweep.
//	@Tags			Admin
//	@Accept			json
//	@Security		BearerAuth
//	@Param			request	body	otpsdk.UpdateOTPConfigRequest	true	"New config"
//	@Success		204
//	@Failure		400	{object}	otpsdk.ValidationErrorResponse
//	@Failure		401	{object}	otpsdk.ErrorResponse
//	@Failure		403	{object}	otpsdk.ErrorResponse
//	@Router			/v1/admin/config [patch].
func (h *AdminHandler) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[otpsdk.UpdateOTPConfigRequest](w, r)
	if !ok {
		return
	}

	err := h.AdminService.UpdateOTPConfig(r.Context(), domain.OTPConfig{
		CodeLength: req.Length,
		TTLSeconds: req.TTLSeconds,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListUsers handles GET /v1/admin/users
//
//	@Summary	List non-admin users
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{array}		otpsdk.UserResponse
//	@Failure	401	{object}	otpsdk.ErrorResponse
//	@Failure	403	{object}	otpsdk.ErrorResponse
//	@Router		/v1/admin/users [get].
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.AdminService.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]otpsdk.UserResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleDeleteUser handles DELETE /v1/admin/users/{id}
//
//	@Summary	Delete a user and their codes
//	@Tags		Admin
//	@Security	BearerAuth
//	@Param		id	path	string	true	"User ID"
//	@Success	204
//	@Failure	401	{object}	otpsdk.ErrorResponse
//	@Failure	403	{object}	otpsdk.ErrorResponse
//	@Failure	400	{object}	otpsdk.ErrorResponse
//	@Failure	404	{object}	otpsdk.ErrorResponse
//	@Router		/v1/admin/users/{id} [delete].
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	if err := h.AdminService.DeleteUser(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListUserOTPs handles GET /v1/admin/users/{id}/otps
//
//	@Summary	List a user's codes, newest first
//	@Tags		Admin
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"User ID"
//	@Success	200	{array}		otpsdk.OTPResponse
//	@Failure	401	{object}	otpsdk.ErrorResponse
//	@Failure	403	{object}	otpsdk.ErrorResponse
//	@Failure	400	{object}	otpsdk.ErrorResponse
//	@Failure	404	{object}	otpsdk.ErrorResponse
//	@Router		/v1/admin/users/{id}/otps [get].
func (h *AdminHandler) HandleListUserOTPs(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDParam(w, r)
	if !ok {
		return
	}
	codes, err := h.AdminService.CodesForUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]otpsdk.OTPResponse, len(codes))
	for i, o := range codes {
		out[i] = toOTPResponse(o)
	}
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, out)
}

// userIDParam reads the {id} path segment. User ids are ULIDs, so anything
// else is rejected before it reaches the store.
func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := idx.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, otpsdk.ErrorCodeInvalidRequest, "user id must be a ULID")
		return "", false
	}
	return id.String(), true
}
