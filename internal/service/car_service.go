package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openmotors/car-users-api/internal/domain"
	"github.com/openmotors/car-users-api/internal/store"
)

// CarService enforces car invariants: required fields, plausible year,
// license-plate format and uniqueness, ownership checks, and per-car usage
// counters.
type CarService interface {
	// Create persists a new car for its owner. The owner back-reference
	// must already be set; orphan cars are disallowed.
	Create(ctx context.Context, car *domain.Car) (*domain.Car, error)

	// Update overwrites the car's mutable fields. The requester must own
	// the car being updated.
	Update(ctx context.Context, id, requesterID int64, patch *domain.Car) (*domain.Car, error)

	// Delete removes the car and recomputes the former owner's aggregate.
	Delete(ctx context.Context, id int64) error

	// TouchUsage increments the car's usage counter by one, persists it,
	// and triggers the owner's aggregate recomputation. Viewing a car
	// through its owner counts as use.
	TouchUsage(ctx context.Context, id int64) (*domain.Car, error)

	GetByID(ctx context.Context, id int64) (*domain.Car, error)
	GetByOwner(ctx context.Context, ownerID int64) ([]domain.Car, error)
	LicensePlateExists(ctx context.Context, licensePlate string) (bool, error)

	// UpdatePhoto overwrites only the car's photo reference.
	UpdatePhoto(ctx context.Context, id int64, photoURL string) (*domain.Car, error)
}

// CarServiceImpl implements the CarService interface.
type CarServiceImpl struct {
	carStore   store.CarStore
	aggregator UsageAggregator
	logger     *slog.Logger
}

var _ CarService = (*CarServiceImpl)(nil)

// NewCarService creates a new CarService. The aggregator is the narrow
// interface back into the user side used after usage/ownership changes.
func NewCarService(carStore store.CarStore, aggregator UsageAggregator, logger *slog.Logger) *CarServiceImpl {
	return &CarServiceImpl{
		carStore:   carStore,
		aggregator: aggregator,
		logger:     logger.With("component", "car_service"),
	}
}

// Create validates and persists a new car.
func (s *CarServiceImpl) Create(ctx context.Context, car *domain.Car) (*domain.Car, error) {
	if err := car.Validate(); err != nil {
		return nil, err
	}
	if car.OwnerID == 0 {
		return nil, domain.ErrCarInvalidFields
	}

	// Check-then-act; the plate's unique constraint is the backstop.
	taken, err := s.carStore.ExistsByLicensePlate(ctx, car.LicensePlate)
	if err != nil {
		return nil, fmt.Errorf("failed to check license plate uniqueness: %w", err)
	}
	if taken {
		return nil, domain.ErrLicensePlateExists
	}

	car.UsageCount = 0
	if err := s.carStore.Create(ctx, car); err != nil {
		return nil, mapCarStoreError(err)
	}

	if err := s.aggregator.RecomputeAggregate(ctx, car.OwnerID); err != nil {
		return nil, err
	}

	s.logger.Info("car created",
		"car_id", car.ID,
		"owner_id", car.OwnerID,
		"license_plate", car.LicensePlate)
	return car, nil
}

// Update applies the patch to an existing car. The usage counter is never
// written from a patch; it only moves through TouchUsage.
func (s *CarServiceImpl) Update(ctx context.Context, id, requesterID int64, patch *domain.Car) (*domain.Car, error) {
	existing, err := s.carStore.GetByID(ctx, id)
	if err != nil {
		return nil, mapCarStoreError(err)
	}

	if existing.OwnerID != requesterID {
		s.logger.Warn("update rejected: car belongs to another user",
			"car_id", id,
			"owner_id", existing.OwnerID,
			"requester_id", requesterID)
		return nil, domain.ErrCarInvalidFields
	}

	if err := patch.Validate(); err != nil {
		return nil, err
	}

	if patch.LicensePlate != existing.LicensePlate {
		taken, err := s.carStore.ExistsByLicensePlate(ctx, patch.LicensePlate)
		if err != nil {
			return nil, fmt.Errorf("failed to check license plate uniqueness: %w", err)
		}
		if taken {
			return nil, domain.ErrLicensePlateExists
		}
	}

	existing.LicensePlate = patch.LicensePlate
	existing.Model = patch.Model
	existing.Color = patch.Color
	existing.Year = patch.Year
	if patch.PhotoURL != "" {
		existing.PhotoURL = patch.PhotoURL
	}

	if err := s.carStore.Update(ctx, existing); err != nil {
		return nil, mapCarStoreError(err)
	}

	s.logger.Info("car updated", "car_id", id, "owner_id", existing.OwnerID)
	return existing, nil
}

// Delete removes the car by id and recomputes the former owner's
// aggregate usage.
func (s *CarServiceImpl) Delete(ctx context.Context, id int64) error {
	existing, err := s.carStore.GetByID(ctx, id)
	if err != nil {
		return mapCarStoreError(err)
	}

	if err := s.carStore.Delete(ctx, id); err != nil {
		return mapCarStoreError(err)
	}

	if err := s.aggregator.RecomputeAggregate(ctx, existing.OwnerID); err != nil {
		return err
	}

	s.logger.Info("car deleted", "car_id", id, "owner_id", existing.OwnerID)
	return nil
}

// TouchUsage increments and persists the car's usage counter, then
// recomputes the owner's aggregate. The increment and the aggregate write
// are a read-modify-write pair across two entities with no atomicity
// guarantee; concurrent touches on the same car can lose an increment.
func (s *CarServiceImpl) TouchUsage(ctx context.Context, id int64) (*domain.Car, error) {
	car, err := s.carStore.GetByID(ctx, id)
	if err != nil {
		return nil, mapCarStoreError(err)
	}

	car.UsageCount++
	if err := s.carStore.Update(ctx, car); err != nil {
		return nil, mapCarStoreError(err)
	}

	if car.OwnerID != 0 {
		if err := s.aggregator.RecomputeAggregate(ctx, car.OwnerID); err != nil {
			return nil, err
		}
	}

	s.logger.Debug("car usage touched", "car_id", id, "usage", car.UsageCount)
	return car, nil
}

// GetByID retrieves a car by id.
func (s *CarServiceImpl) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	car, err := s.carStore.GetByID(ctx, id)
	if err != nil {
		return nil, mapCarStoreError(err)
	}
	return car, nil
}

// GetByOwner retrieves all cars owned by the given user.
func (s *CarServiceImpl) GetByOwner(ctx context.Context, ownerID int64) ([]domain.Car, error) {
	cars, err := s.carStore.GetAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars for user %d: %w", ownerID, err)
	}
	return cars, nil
}

// LicensePlateExists reports whether a persisted car has the exact plate.
func (s *CarServiceImpl) LicensePlateExists(ctx context.Context, licensePlate string) (bool, error) {
	return s.carStore.ExistsByLicensePlate(ctx, licensePlate)
}

// UpdatePhoto overwrites only the car's photo reference.
func (s *CarServiceImpl) UpdatePhoto(ctx context.Context, id int64, photoURL string) (*domain.Car, error) {
	if err := s.carStore.SetPhotoURL(ctx, id, photoURL); err != nil {
		return nil, mapCarStoreError(err)
	}
	return s.GetByID(ctx, id)
}

// mapCarStoreError translates store-level failures into the car-domain
// taxonomy.
func mapCarStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrCarNotFound):
		return domain.ErrCarNotFound
	case errors.Is(err, store.ErrLicensePlateExists):
		return domain.ErrLicensePlateExists
	default:
		return err
	}
}
