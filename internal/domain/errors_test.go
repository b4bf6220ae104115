package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	if got := int(ErrInvalidLoginOrPassword.Code); got != 1 {
		t.Errorf("invalid login code = %d, want 1", got)
	}
	if got := int(ErrUnauthorizedSession.Code); got != 9 {
		t.Errorf("unauthorized session code = %d, want 9", got)
	}
	if got := int(ErrLicensePlateExists.Code); got != 3 {
		t.Errorf("license plate exists code = %d, want 3", got)
	}
	if got := int(ErrCarInvalidPhoto.Code); got != 8 {
		t.Errorf("invalid photo code = %d, want 8", got)
	}
}

func TestErrorsIsMatchesWrapped(t *testing.T) {
	wrapped := fmt.Errorf("creating user: %w", ErrEmailAlreadyExists)
	if !errors.Is(wrapped, ErrEmailAlreadyExists) {
		t.Error("wrapped user error should match its sentinel")
	}
	if errors.Is(wrapped, ErrLoginAlreadyExists) {
		t.Error("wrapped user error should not match a different sentinel")
	}
}

func TestUserAndCarCodeSpacesAreDistinct(t *testing.T) {
	// Codes overlap numerically across the two spaces; matching must be
	// by kind, never by value.
	if errors.Is(ErrUserNotFound, error(ErrCarNotFound)) {
		t.Error("user error must not match car error of the same code")
	}
}

func TestErrorCodeExtraction(t *testing.T) {
	if code, ok := ErrorCode(ErrCarNotFound); !ok || code != 6 {
		t.Errorf("ErrorCode(ErrCarNotFound) = %d, %v; want 6, true", code, ok)
	}
	if _, ok := ErrorCode(errors.New("plain")); ok {
		t.Error("ErrorCode should reject errors outside the taxonomy")
	}
}
