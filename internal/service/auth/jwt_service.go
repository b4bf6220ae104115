package auth

import (
	"context"
	"time"
)

// JWTService defines operations for managing JWT authentication tokens.
// Tokens are stateless: validity is purely a function of signature and
// clock, never of server-side session state.
type JWTService interface {
	// GenerateToken creates a signed token carrying the user's login as
	// subject and the numeric user id as a custom claim.
	GenerateToken(ctx context.Context, login string, userID int64) (string, error)

	// ValidateToken verifies signature and expiry and extracts the claims.
	// Fails with ErrExpiredToken, ErrInvalidToken, or ErrMalformedToken.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// Subject decodes the token and returns its subject (the login).
	// Same failure kinds as ValidateToken.
	Subject(ctx context.Context, tokenString string) (string, error)

	// IsValid collapses ValidateToken to a boolean. Used as a secondary
	// confirmation gate.
	IsValid(ctx context.Context, tokenString string) bool
}

// Claims represents the decoded content of an authentication token.
type Claims struct {
	// Subject is the login of the user the token was issued for.
	Subject string

	// UserID is the numeric id of that user.
	UserID int64

	IssuedAt  time.Time
	ExpiresAt time.Time

	// ID is the unique token id (jti claim).
	ID string
}
