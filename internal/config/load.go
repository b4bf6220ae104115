package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// defaultPublicPaths are the routes reachable without a bearer token when
// CARAPI_SERVER_PUBLIC_PATHS is unset.
var defaultPublicPaths = []string{
	"POST /api/signin",
	"POST /api/users",
	"GET /api/users",
	"GET /api/users/ordered",
	"GET /api/users/*",
	"GET /api/users/*/photo",
	"GET /api/cars/*/photo",
	"GET /health",
}

// Load configuration from environment variables and optionally a config
// file. Environment variables take precedence over values from config
// files. Returns a populated Config struct or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.public_paths", defaultPublicPaths)
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("storage.bucket", "car-users-photos")
	v.SetDefault("storage.use_ssl", false)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CARAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A config file is optional; only its absence is tolerated.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// AutomaticEnv alone does not surface env-only keys to Unmarshal;
	// each key has to be bound explicitly.
	for _, key := range []string{
		"server.port", "server.log_level", "server.public_paths",
		"database.url",
		"auth.jwt_secret", "auth.token_lifetime_minutes",
		"storage.endpoint", "storage.access_key", "storage.secret_key",
		"storage.bucket", "storage.use_ssl",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
