package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/openmotors/car-users-api/internal/api/shared"
	"github.com/openmotors/car-users-api/internal/domain"
	"github.com/openmotors/car-users-api/internal/platform/logger"
	"github.com/openmotors/car-users-api/internal/service"
	"github.com/openmotors/car-users-api/internal/service/auth"
)

// AuthHandler handles the token issuance endpoint.
type AuthHandler struct {
	userService      service.UserService
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	logger           *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userService service.UserService,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		userService:      userService,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		logger:           logger.With(slog.String("component", "auth_handler")),
	}
}

// Signin handles POST /api/signin. Unknown login and wrong password produce
// the same response so the endpoint does not leak which logins exist.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		RespondWithDomainError(w, r, domain.ErrInvalidLoginOrPassword)
		return
	}
	if req.Login == "" || req.Password == "" {
		RespondWithDomainError(w, r, domain.ErrInvalidLoginOrPassword)
		return
	}

	log := logger.FromContextOrDefault(r.Context(), h.logger)

	user, err := h.userService.GetByLogin(r.Context(), req.Login)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			RespondWithDomainError(w, r, err)
			return
		}
		RespondWithDomainError(w, r, domain.ErrInvalidLoginOrPassword)
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		RespondWithDomainError(w, r, domain.ErrInvalidLoginOrPassword)
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), user.Login, user.ID)
	if err != nil {
		log.Error("failed to generate token",
			slog.String("error", err.Error()),
			slog.Int64("user_id", user.ID))
		RespondWithDomainError(w, r, err)
		return
	}

	// Signin already succeeded; a failed timestamp update is logged, not
	// surfaced.
	if err := h.userService.RecordLogin(r.Context(), user.ID); err != nil {
		log.Warn("failed to record last login",
			slog.String("error", err.Error()),
			slog.Int64("user_id", user.ID))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TokenResponse{Token: token})
}
