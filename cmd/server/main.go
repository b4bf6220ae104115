// Package main implements the entry point for the car/users API server,
// which manages users and their cars behind a stateless JWT bearer gate.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/openmotors/car-users-api/internal/config"
	"github.com/openmotors/car-users-api/internal/platform/logger"
	"github.com/openmotors/car-users-api/internal/redact"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// run loads configuration, wires the application, and serves HTTP until a
// shutdown signal arrives.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_url", redact.URL(cfg.Database.URL)))

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}
