package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmotors/car-users-api/internal/api/shared"
	"github.com/openmotors/car-users-api/internal/domain"
	"github.com/openmotors/car-users-api/internal/mocks"
	"github.com/openmotors/car-users-api/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedUser plants a stored user with a known hash, bypassing the create
// flow so the test does not need a database transaction.
func seedUser(users *mocks.MockUserStore, id int64, login, hash string) {
	users.Users[id] = &domain.User{ID: id, Login: login, Email: login + "@example.com", HashedPassword: hash}
}

func newSigninHandler(t *testing.T) (*AuthHandler, *mocks.MockUserStore, *mocks.MockJWTService, *mocks.MockPasswordVerifier) {
	t.Helper()

	users, cars := mocks.NewMockStores()
	userSvc := service.NewUserService(users, cars, &mocks.MockPasswordHasher{}, nil, discardLogger())
	jwt := &mocks.MockJWTService{Token: "issued.jwt.token"}
	verifier := &mocks.MockPasswordVerifier{}
	return NewAuthHandler(userSvc, jwt, verifier, discardLogger()), users, jwt, verifier
}

func postSignin(t *testing.T, h *AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/signin", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.Signin(rec, req)
	return rec
}

func TestSigninSuccess(t *testing.T) {
	h, users, _, _ := newSigninHandler(t)
	seedUser(users, 7, "ada", "hashed:secret1")

	rec := postSignin(t, h, `{"login":"ada","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "issued.jwt.token", body.Token)

	assert.NotNil(t, users.Users[7].LastLogin, "successful signin stamps last login")
}

func TestSigninRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		prep func(users *mocks.MockUserStore, verifier *mocks.MockPasswordVerifier)
	}{
		{
			name: "unknown login",
			body: `{"login":"ghost","password":"secret1"}`,
		},
		{
			name: "wrong password",
			body: `{"login":"ada","password":"wrong"}`,
			prep: func(users *mocks.MockUserStore, verifier *mocks.MockPasswordVerifier) {
				seedUser(users, 7, "ada", "hashed:secret1")
				verifier.CompareErr = errors.New("hash mismatch")
			},
		},
		{
			name: "empty credentials",
			body: `{"login":"","password":""}`,
		},
		{
			name: "malformed body",
			body: `{not json`,
		},
	}

	// All rejection paths share one response shape so the endpoint never
	// reveals whether the login exists.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, users, _, verifier := newSigninHandler(t)
			if tt.prep != nil {
				tt.prep(users, verifier)
			}

			rec := postSignin(t, h, tt.body)
			require.Equal(t, http.StatusUnauthorized, rec.Code)

			var body shared.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, domain.ErrInvalidLoginOrPassword.Message, body.Message)
			assert.Equal(t, int(domain.ErrInvalidLoginOrPassword.Code), body.ErrorCode)
		})
	}
}

func TestSigninTokenFailure(t *testing.T) {
	h, users, jwt, _ := newSigninHandler(t)
	seedUser(users, 7, "ada", "hashed:secret1")
	jwt.Err = errors.New("signing key unavailable")

	rec := postSignin(t, h, `{"login":"ada","password":"secret1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
