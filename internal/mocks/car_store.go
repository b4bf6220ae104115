package mocks

import (
	"context"
	"database/sql"
	"sort"

	"github.com/openmotors/car-users-api/internal/domain"
	"github.com/openmotors/car-users-api/internal/store"
)

// MockCarStore implements store.CarStore for testing
type MockCarStore struct {
	// Function fields for customizable behavior
	CreateFn               func(ctx context.Context, car *domain.Car) error
	GetByIDFn              func(ctx context.Context, id int64) (*domain.Car, error)
	GetAllByOwnerFn        func(ctx context.Context, ownerID int64) ([]domain.Car, error)
	UpdateFn               func(ctx context.Context, car *domain.Car) error
	SetPhotoURLFn          func(ctx context.Context, id int64, photoURL string) error
	DeleteFn               func(ctx context.Context, id int64) error
	ExistsByLicensePlateFn func(ctx context.Context, licensePlate string) (bool, error)
	SumUsageByOwnerFn      func(ctx context.Context, ownerID int64) (int, error)

	// Data for default implementation
	Cars   map[int64]*domain.Car
	nextID int64
}

var _ store.CarStore = (*MockCarStore)(nil)

// NewMockCarStore creates a new mock store with initialized defaults
func NewMockCarStore() *MockCarStore {
	return &MockCarStore{Cars: make(map[int64]*domain.Car)}
}

// WithTx implements the CarStore interface; the mock has no transactions.
func (m *MockCarStore) WithTx(tx *sql.Tx) store.CarStore { return m }

// Create implements the CarStore interface
func (m *MockCarStore) Create(ctx context.Context, car *domain.Car) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, car)
	}

	for _, existing := range m.Cars {
		if existing.LicensePlate == car.LicensePlate {
			return store.ErrLicensePlateExists
		}
	}

	m.nextID++
	car.ID = m.nextID
	copied := *car
	m.Cars[car.ID] = &copied
	return nil
}

// GetByID implements the CarStore interface
func (m *MockCarStore) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	car, ok := m.Cars[id]
	if !ok {
		return nil, store.ErrCarNotFound
	}
	copied := *car
	return &copied, nil
}

// GetAllByOwner implements the CarStore interface
func (m *MockCarStore) GetAllByOwner(ctx context.Context, ownerID int64) ([]domain.Car, error) {
	if m.GetAllByOwnerFn != nil {
		return m.GetAllByOwnerFn(ctx, ownerID)
	}

	var cars []domain.Car
	for _, car := range m.Cars {
		if car.OwnerID == ownerID {
			cars = append(cars, *car)
		}
	}
	sort.Slice(cars, func(i, j int) bool { return cars[i].ID < cars[j].ID })
	return cars, nil
}

// Update implements the CarStore interface
func (m *MockCarStore) Update(ctx context.Context, car *domain.Car) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, car)
	}

	existing, ok := m.Cars[car.ID]
	if !ok {
		return store.ErrCarNotFound
	}
	copied := *car
	copied.OwnerID = existing.OwnerID
	m.Cars[car.ID] = &copied
	return nil
}

// SetPhotoURL implements the CarStore interface
func (m *MockCarStore) SetPhotoURL(ctx context.Context, id int64, photoURL string) error {
	if m.SetPhotoURLFn != nil {
		return m.SetPhotoURLFn(ctx, id, photoURL)
	}

	car, ok := m.Cars[id]
	if !ok {
		return store.ErrCarNotFound
	}
	car.PhotoURL = photoURL
	return nil
}

// Delete implements the CarStore interface
func (m *MockCarStore) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	if _, ok := m.Cars[id]; !ok {
		return store.ErrCarNotFound
	}
	delete(m.Cars, id)
	return nil
}

// ExistsByLicensePlate implements the CarStore interface
func (m *MockCarStore) ExistsByLicensePlate(ctx context.Context, licensePlate string) (bool, error) {
	if m.ExistsByLicensePlateFn != nil {
		return m.ExistsByLicensePlateFn(ctx, licensePlate)
	}

	for _, car := range m.Cars {
		if car.LicensePlate == licensePlate {
			return true, nil
		}
	}
	return false, nil
}

// SumUsageByOwner implements the CarStore interface
func (m *MockCarStore) SumUsageByOwner(ctx context.Context, ownerID int64) (int, error) {
	if m.SumUsageByOwnerFn != nil {
		return m.SumUsageByOwnerFn(ctx, ownerID)
	}

	total := 0
	for _, car := range m.Cars {
		if car.OwnerID == ownerID {
			total += car.UsageCount
		}
	}
	return total, nil
}
