package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/openmotors/car-users-api/internal/domain"
	"github.com/openmotors/car-users-api/internal/platform/logger"
	"github.com/openmotors/car-users-api/internal/store"
)

// PostgresCarStore implements the store.CarStore interface using a
// PostgreSQL database as the storage backend.
type PostgresCarStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCarStore creates a new PostgreSQL implementation of the
// CarStore interface.
func NewPostgresCarStore(db store.DBTX, logger *slog.Logger) *PostgresCarStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCarStore{
		db:     db,
		logger: logger.With(slog.String("component", "car_store")),
	}
}

// Ensure PostgresCarStore implements store.CarStore interface
var _ store.CarStore = (*PostgresCarStore)(nil)

// WithTx implements store.CarStore.WithTx
func (s *PostgresCarStore) WithTx(tx *sql.Tx) store.CarStore {
	return &PostgresCarStore{db: tx, logger: s.logger}
}

// Create implements store.CarStore.Create
func (s *PostgresCarStore) Create(ctx context.Context, car *domain.Car) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := insertCar(ctx, s.db, car); err != nil {
		log.Error("failed to create car",
			slog.String("error", err.Error()),
			slog.Int64("owner_id", car.OwnerID),
			slog.String("license_plate", car.LicensePlate))
		return MapError(err)
	}

	log.Info("car created",
		slog.Int64("car_id", car.ID),
		slog.Int64("owner_id", car.OwnerID))
	return nil
}

const carColumns = `id, fabrication_year, license_plate, model, color,
	user_id, usage_count, photo_url`

// GetByID implements store.CarStore.GetByID
func (s *PostgresCarStore) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE id = $1`

	car, err := scanCar(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCarNotFound
		}
		return nil, MapError(err)
	}
	return car, nil
}

// GetAllByOwner implements store.CarStore.GetAllByOwner
func (s *PostgresCarStore) GetAllByOwner(ctx context.Context, ownerID int64) ([]domain.Car, error) {
	query := `SELECT ` + carColumns + ` FROM cars WHERE user_id = $1 ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var cars []domain.Car
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, MapError(err)
		}
		cars = append(cars, *car)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return cars, nil
}

// Update implements store.CarStore.Update
func (s *PostgresCarStore) Update(ctx context.Context, car *domain.Car) error {
	query := `
		UPDATE cars
		SET fabrication_year = $1, license_plate = $2, model = $3,
		    color = $4, usage_count = $5, photo_url = $6
		WHERE id = $7
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		car.Year,
		car.LicensePlate,
		car.Model,
		car.Color,
		car.UsageCount,
		nullableString(car.PhotoURL),
		car.ID,
	)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrCarNotFound)
}

// SetPhotoURL implements store.CarStore.SetPhotoURL
func (s *PostgresCarStore) SetPhotoURL(ctx context.Context, id int64, photoURL string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE cars SET photo_url = $1 WHERE id = $2`, photoURL, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrCarNotFound)
}

// Delete implements store.CarStore.Delete
func (s *PostgresCarStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM cars WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete car",
			slog.String("error", err.Error()),
			slog.Int64("car_id", id))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrCarNotFound); err != nil {
		return err
	}

	log.Info("car deleted", slog.Int64("car_id", id))
	return nil
}

// ExistsByLicensePlate implements store.CarStore.ExistsByLicensePlate
func (s *PostgresCarStore) ExistsByLicensePlate(ctx context.Context, plate string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM cars WHERE license_plate = $1)`, plate).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// SumUsageByOwner implements store.CarStore.SumUsageByOwner
func (s *PostgresCarStore) SumUsageByOwner(ctx context.Context, ownerID int64) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(usage_count), 0) FROM cars WHERE user_id = $1`,
		ownerID).Scan(&total)
	if err != nil {
		return 0, MapError(err)
	}
	return total, nil
}

// insertCar performs the shared car INSERT, assigning the generated id to
// the passed car. User creation reuses it to persist attached cars in the
// same transaction.
func insertCar(ctx context.Context, db store.DBTX, car *domain.Car) error {
	query := `
		INSERT INTO cars (fabrication_year, license_plate, model, color,
		                  user_id, usage_count, photo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return db.QueryRowContext(
		ctx,
		query,
		car.Year,
		car.LicensePlate,
		car.Model,
		car.Color,
		car.OwnerID,
		car.UsageCount,
		nullableString(car.PhotoURL),
	).Scan(&car.ID)
}

func scanCar(row rowScanner) (*domain.Car, error) {
	var car domain.Car
	var photoURL sql.NullString

	err := row.Scan(
		&car.ID,
		&car.Year,
		&car.LicensePlate,
		&car.Model,
		&car.Color,
		&car.OwnerID,
		&car.UsageCount,
		&photoURL,
	)
	if err != nil {
		return nil, err
	}

	car.PhotoURL = photoURL.String
	return &car, nil
}
