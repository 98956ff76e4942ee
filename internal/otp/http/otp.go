package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/otpgate/internal/otp/access"
	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/pkg/httpx"
	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
)

type OTPHandler struct {
	OTPService *service.OTPService
}

// HandleGenerate handles POST /v1/otp/generate
//
//	@Summary		Generate and send a code
//	@Description	Issues a code for the caller (or, for admins, any user) and delivers it on the requested channel.
//	@Tags			OTP
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		otpsdk.GenerateOTPRequest	true	"Operation and channel"
//	@Success		202		{object}	otpsdk.GenerateOTPResponse
//	@Failure		400		{object}	otpsdk.ErrorResponse	"bad input or unsupported channel"
//	@Failure		401		{object}	otpsdk.ErrorResponse
//	@Failure		403		{object}	otpsdk.ErrorResponse	"generating for another user"
//	@Failure		404		{object}	otpsdk.ErrorResponse	"unknown user"
//	@Failure		502		{object}	otpsdk.ErrorResponse	"transport failed"
//	@Router			/v1/otp/generate [post].
func (h *OTPHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := decodeRequest[otpsdk.GenerateOTPRequest](w, r)
	if !ok {
		return
	}

	caller, _ := access.IdentityFromContext(ctx)
	target := strings.TrimSpace(req.UserID)
	if target == "" {
		target = caller.UserID
	}
	if target != caller.UserID && !caller.Role.AtLeast(domain.RoleAdmin) {
		slogx.FromContext(ctx).Warn("refused to generate otp for another user",
			"target_user_id", target)
		httpx.WriteForbidden(w, "only an admin may generate codes for another user")
		return
	}

	if err := h.OTPService.Deliver(ctx, target, req.OperationID, req.Channel); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusAccepted, otpsdk.GenerateOTPResponse{Status: "sent"})
}

// HandleValidate handles POST /v1/otp/validate
//
//	@Summary		Validate a code
//	@Description	Consumes a code. Each code validates at most once, and only within its TTL.
//	@Tags			OTP
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		otpsdk.ValidateOTPRequest	true	"Code"
//	@Success		200		{object}	otpsdk.ValidateOTPResponse
//	@Failure		400		{object}	otpsdk.ErrorResponse	"invalid or expired code"
//	@Failure		401		{object}	otpsdk.ErrorResponse
//	@Router			/v1/otp/validate [post].
func (h *OTPHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest[otpsdk.ValidateOTPRequest](w, r)
	if !ok {
		return
	}

	valid, err := h.OTPService.Validate(r.Context(), req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !valid {
		httpx.WriteError(w, http.StatusBadRequest, otpsdk.ErrorCodeInvalidCode, "Invalid or expired code")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, otpsdk.ValidateOTPResponse{Valid: true})
}
