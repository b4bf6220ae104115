package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openmotors/car-users-api/internal/api/shared"
	"github.com/openmotors/car-users-api/internal/domain"
)

// getPathID extracts a positive numeric id from the URL path parameters.
func getPathID(r *http.Request, paramName string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, paramName), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrUserInvalidFields
	}
	return id, nil
}

// getPathCarID is getPathID with the failure expressed in the car error
// space.
func getPathCarID(r *http.Request, paramName string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, paramName), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrCarInvalidFields
	}
	return id, nil
}

// principalFrom extracts the authenticated principal bound by the gate.
// Routes behind RequireAuthenticated always carry one; the false branch
// only fires if a handler is miswired onto a public route.
func principalFrom(r *http.Request) (domain.Principal, bool) {
	return shared.PrincipalFrom(r.Context())
}
