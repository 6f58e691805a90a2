package handlers

import (
	"errors"
	"net/http"

	"github.com/forecasthub/service-credentials/service/business"
	"github.com/forecasthub/service-credentials/service/models"
)

// httpStatusForError maps the error taxonomy onto response codes: malformed
// input rejects the request, invalid state transitions conflict, unknown
// resources are not found and everything else is internal.
func httpStatusForError(err error) int {
	switch {
	case errors.Is(err, business.ErrAPIKeyNameRequired),
		errors.Is(err, business.ErrRevokeReasonRequired),
		errors.Is(err, business.ErrNegativeExpiry),
		errors.Is(err, business.ErrInvalidBlockDuration),
		errors.Is(err, models.ErrInvalidDuration):
		return http.StatusBadRequest

	case errors.Is(err, models.ErrAPIKeyAlreadyRevoked),
		errors.Is(err, models.ErrAPIKeyAlreadyActive),
		errors.Is(err, models.ErrSessionAlreadyRevoked),
		errors.Is(err, business.ErrContactAlreadyRegistered):
		return http.StatusConflict

	case errors.Is(err, business.ErrAPIKeyNotFound),
		errors.Is(err, business.ErrSessionNotFound):
		return http.StatusNotFound

	case errors.Is(err, business.ErrInvalidCredentials),
		errors.Is(err, business.ErrInvalidBearerToken):
		return http.StatusUnauthorized

	case errors.Is(err, business.ErrTooManyAttempts):
		return http.StatusTooManyRequests

	default:
		return http.StatusInternalServerError
	}
}
