package auth

import "errors"

// Common authentication service errors.
var (
	// ErrInvalidToken indicates the token's signature does not verify.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token is past its expiry.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrMalformedToken indicates the token is structurally unparsable.
	ErrMalformedToken = errors.New("malformed authentication token")

	// ErrMissingToken indicates a token was expected but not provided.
	ErrMissingToken = errors.New("authentication token is missing")
)
