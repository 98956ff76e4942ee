package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/otpgate/internal/otp/domain"
	"github.com/aussiebroadwan/otpgate/internal/otp/notify"
	"github.com/aussiebroadwan/otpgate/pkg/httpx"
	"github.com/aussiebroadwan/otpgate/pkg/otpsdk"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
	"github.com/aussiebroadwan/otpgate/pkg/validx"
)

const maxBodyBytes = 64 << 10

// writeServiceError maps a service error onto a status code and error body.
// Internal failures are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var unsupported *notify.UnsupportedChannelError
	switch {
	case errors.As(err, &unsupported):
		httpx.WriteError(w, http.StatusBadRequest, otpsdk.ErrorCodeInvalidRequest, unsupported.Error())
	case errors.Is(err, domain.ErrValidationFailed):
		httpx.WriteError(w, http.StatusBadRequest, otpsdk.ErrorCodeInvalidRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, otpsdk.ErrorCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, otpsdk.ErrorCodeConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		httpx.WriteError(w, http.StatusUnauthorized, otpsdk.ErrorCodeUnauthenticated, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, otpsdk.ErrorCodeForbidden, err.Error())
	case errors.Is(err, domain.ErrDeliveryFailed):
		httpx.WriteError(w, http.StatusBadGateway, otpsdk.ErrorCodeDeliveryFailed, "could not deliver the code")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, otpsdk.ErrorCodeServerError, "internal server error")
	}
}

type validatable interface {
	Validate() error
}

// decodeRequest reads and validates a JSON body. On failure it has already
// written the response and returns false.
func decodeRequest[T validatable](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := httpx.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, otpsdk.ErrorCodeInvalidRequest, "invalid JSON in request body")
		return req, false
	}

	err := req.Validate()
	if err == nil {
		return req, true
	}

	var fields validx.Errors
	if errors.As(err, &fields) {
		httpx.WriteJSON(w, http.StatusBadRequest, otpsdk.ValidationErrorResponse{
			Code:    otpsdk.ErrorCodeValidation,
			Message: "request validation failed",
			Details: fields,
		})
		return req, false
	}

	slogx.FromContext(r.Context()).Error("validator failed", "error", err)
	httpx.WriteError(w, http.StatusInternalServerError, otpsdk.ErrorCodeServerError, "internal server error")
	return req, false
}
