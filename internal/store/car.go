package store

import (
	"context"
	"database/sql"

	"github.com/openmotors/car-users-api/internal/domain"
)

// CarStore defines the interface for car data persistence.
type CarStore interface {
	// Create saves a new car and assigns its ID.
	// Returns ErrLicensePlateExists on a uniqueness violation.
	Create(ctx context.Context, car *domain.Car) error

	// GetByID retrieves a car by its unique ID.
	// Returns ErrCarNotFound if the car does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Car, error)

	// GetAllByOwner retrieves all cars owned by the given user.
	GetAllByOwner(ctx context.Context, ownerID int64) ([]domain.Car, error)

	// Update overwrites the car's mutable columns, including the usage
	// counter. Returns ErrCarNotFound if absent, ErrLicensePlateExists on
	// a plate uniqueness violation.
	Update(ctx context.Context, car *domain.Car) error

	// SetPhotoURL overwrites only the photo reference.
	SetPhotoURL(ctx context.Context, id int64, photoURL string) error

	// Delete removes a car. Returns ErrCarNotFound if absent.
	Delete(ctx context.Context, id int64) error

	// ExistsByLicensePlate reports whether a car with the exact plate is
	// persisted. Matching is exact: case and punctuation variants are
	// distinct plates.
	ExistsByLicensePlate(ctx context.Context, licensePlate string) (bool, error)

	// SumUsageByOwner computes the sum of usage counters over the owner's
	// cars, straight from persisted rows.
	SumUsageByOwner(ctx context.Context, ownerID int64) (int, error)

	// WithTx returns a CarStore bound to the given transaction.
	WithTx(tx *sql.Tx) CarStore
}
