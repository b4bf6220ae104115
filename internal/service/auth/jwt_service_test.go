package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-chars!"

func newTestService(t *testing.T, lifetime time.Duration) *hmacJWTService {
	t.Helper()
	svc, err := NewJWTService(testSecret, lifetime)
	require.NoError(t, err)
	return svc.(*hmacJWTService)
}

func TestNewJWTServiceValidation(t *testing.T) {
	_, err := NewJWTService("short", time.Hour)
	assert.Error(t, err, "short secret must be rejected")

	_, err = NewJWTService(testSecret, 0)
	assert.Error(t, err, "non-positive lifetime must be rejected")

	_, err = NewJWTService(testSecret, time.Hour)
	assert.NoError(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Hour)

	token, err := svc.GenerateToken(ctx, "ada", 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ada", claims.Subject)
	assert.Equal(t, int64(42), claims.UserID)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt))

	subject, err := svc.Subject(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ada", subject)
	assert.True(t, svc.IsValid(ctx, token))
}

func TestTokenExpiry(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Hour)

	issued := time.Now()
	svc.timeFunc = func() time.Time { return issued }

	token, err := svc.GenerateToken(ctx, "ada", 42)
	require.NoError(t, err)

	// Still valid one minute before expiry.
	svc.timeFunc = func() time.Time { return issued.Add(59 * time.Minute) }
	_, err = svc.ValidateToken(ctx, token)
	assert.NoError(t, err)

	// Expired one minute after.
	svc.timeFunc = func() time.Time { return issued.Add(61 * time.Minute) }
	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.False(t, svc.IsValid(ctx, token))
}

func TestTokenSignedWithForeignSecret(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Hour)

	other, err := NewJWTService("another-secret-that-is-32-chars-long!!", time.Hour)
	require.NoError(t, err)

	token, err := other.GenerateToken(ctx, "ada", 42)
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWithoutExpiry(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Hour)

	// Correctly signed, but carries no exp (and no iat). Every token this
	// service issues expires, so it must be rejected, not accepted or
	// crashed on.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ada", "uid": 42})
	token, err := unsigned.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.False(t, svc.IsValid(ctx, token))
}

func TestMalformedToken(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, time.Hour)

	_, err := svc.ValidateToken(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrMalformedToken)

	_, err = svc.Subject(ctx, "")
	assert.ErrorIs(t, err, ErrMalformedToken)
}
