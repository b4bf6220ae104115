package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/openmotors/car-users-api/internal/config"
	"github.com/openmotors/car-users-api/internal/platform/objectstore"
	"github.com/openmotors/car-users-api/internal/platform/postgres"
	"github.com/openmotors/car-users-api/internal/redact"
	"github.com/openmotors/car-users-api/internal/service"
	"github.com/openmotors/car-users-api/internal/service/auth"
	"github.com/openmotors/car-users-api/internal/store"
	"github.com/openmotors/car-users-api/migrations"
)

// application holds the long-lived dependencies shared by the HTTP
// handlers.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userService service.UserService
	carService  service.CarService
	jwtService  auth.JWTService
	hasher      *auth.BcryptHasher
	photoStore  store.PhotoStore
}

// newApplication wires the full dependency graph: database, migrations,
// object storage, and the service layer.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupDatabase(ctx, cfg.Database.URL, logger)
	if err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	photoStore, err := objectstore.NewMinioPhotoStore(ctx, objectstore.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	}, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set up photo storage: %w", err)
	}

	jwtService, err := auth.NewJWTService(
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenLifetimeMinutes)*time.Minute,
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set up token service: %w", err)
	}

	userStore := postgres.NewPostgresUserStore(db, logger)
	carStore := postgres.NewPostgresCarStore(db, logger)
	hasher := auth.NewBcryptHasher()

	userService := service.NewUserService(userStore, carStore, hasher, db, logger)
	carService := service.NewCarService(carStore, userService, logger)

	return &application{
		config:      cfg,
		logger:      logger,
		db:          db,
		userService: userService,
		carService:  carService,
		jwtService:  jwtService,
		hasher:      hasher,
		photoStore:  photoStore,
	}, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", "error", err)
	}
}

// setupDatabase opens the connection pool and verifies connectivity.
func setupDatabase(ctx context.Context, url string, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		// Driver errors can echo the DSN; scrub before surfacing.
		return nil, fmt.Errorf("failed to ping database: %s", redact.Error(err))
	}

	logger.Info("database connection established")
	return db, nil
}

// applyMigrations runs the embedded goose migrations to the latest version.
func applyMigrations(db *sql.DB, logger *slog.Logger) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	logger.Info("migrations applied", "version", version)
	return nil
}
