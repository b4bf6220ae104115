package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("CARAPI_DATABASE_URL", "postgres://app:pw@localhost:5432/cars")
	t.Setenv("CARAPI_AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CARAPI_STORAGE_ENDPOINT", "localhost:9000")
	t.Setenv("CARAPI_STORAGE_ACCESS_KEY", "minio")
	t.Setenv("CARAPI_STORAGE_SECRET_KEY", "minio123")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 60, cfg.Auth.TokenLifetimeMinutes)
	assert.Equal(t, "car-users-photos", cfg.Storage.Bucket)
	assert.False(t, cfg.Storage.UseSSL)
	assert.Contains(t, cfg.Server.PublicPaths, "POST /api/signin")
	assert.Contains(t, cfg.Server.PublicPaths, "GET /api/cars/*/photo")
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CARAPI_SERVER_PORT", "9090")
	t.Setenv("CARAPI_SERVER_LOG_LEVEL", "debug")
	t.Setenv("CARAPI_AUTH_TOKEN_LIFETIME_MINUTES", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 15, cfg.Auth.TokenLifetimeMinutes)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T)
	}{
		{
			name:   "missing database url",
			mutate: func(t *testing.T) { t.Setenv("CARAPI_DATABASE_URL", "") },
		},
		{
			name:   "short jwt secret",
			mutate: func(t *testing.T) { t.Setenv("CARAPI_AUTH_JWT_SECRET", "tooshort") },
		},
		{
			name:   "bad log level",
			mutate: func(t *testing.T) { t.Setenv("CARAPI_SERVER_LOG_LEVEL", "verbose") },
		},
		{
			name:   "port out of range",
			mutate: func(t *testing.T) { t.Setenv("CARAPI_SERVER_PORT", "70000") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			tt.mutate(t)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation")
		})
	}
}
