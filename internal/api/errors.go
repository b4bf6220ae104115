package api

import (
	"errors"
	"net/http"

	"github.com/openmotors/car-users-api/internal/api/shared"
	"github.com/openmotors/car-users-api/internal/domain"
	"github.com/openmotors/car-users-api/internal/platform/logger"
)

// RespondWithDomainError translates a domain error into the standard
// `{message, errorCode}` body. Errors outside the two domain code spaces
// are logged and collapsed to a generic 500 so internal details never
// reach the client.
func RespondWithDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code, ok := domain.ErrorCode(err)
	if !ok {
		log := logger.FromContextOrDefault(r.Context(), nil)
		log.Error("unexpected error", "error", err.Error(), "path", r.URL.Path)
		shared.RespondWithError(w, r, http.StatusInternalServerError,
			"An unexpected error occurred", 0)
		return
	}

	shared.RespondWithError(w, r, statusForDomainError(err), err.Error(), code)
}

// statusForDomainError maps a domain error to its HTTP status. Routing is
// by error kind, never by the numeric code, since the user and car code
// spaces overlap.
func statusForDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrUnauthorizedSession),
		errors.Is(err, domain.ErrInvalidLoginOrPassword),
		errors.Is(err, domain.ErrCarUnauthorized),
		errors.Is(err, domain.ErrCarUnauthorizedSession):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrCarNotFound):
		return http.StatusNotFound

	default:
		return http.StatusBadRequest
	}
}
