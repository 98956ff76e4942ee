package domain

import "errors"

// Service errors. Callers match with errors.Is; the HTTP layer maps each one
// to a status code.
var (
	ErrValidationFailed   = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrDeliveryFailed     = errors.New("delivery failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
