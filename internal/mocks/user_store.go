package mocks

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/openmotors/car-users-api/internal/domain"
	"github.com/openmotors/car-users-api/internal/store"
)

// MockUserStore implements store.UserStore for testing
type MockUserStore struct {
	// Function fields for customizable behavior
	CreateFn        func(ctx context.Context, user *domain.User) error
	GetByIDFn       func(ctx context.Context, id int64) (*domain.User, error)
	GetByLoginFn    func(ctx context.Context, login string) (*domain.User, error)
	GetAllFn        func(ctx context.Context) ([]domain.User, error)
	UpdateFn        func(ctx context.Context, user *domain.User) error
	SetLastLoginFn  func(ctx context.Context, id int64, at time.Time) error
	SetPhotoURLFn   func(ctx context.Context, id int64, photoURL string) error
	SetTotalUsageFn func(ctx context.Context, id int64, total int) error
	DeleteFn        func(ctx context.Context, id int64) error
	ExistsByEmailFn func(ctx context.Context, email string) (bool, error)
	ExistsByLoginFn func(ctx context.Context, login string) (bool, error)

	// Data for default implementation
	Users  map[int64]*domain.User
	nextID int64

	// CarStore, when set, backs the cars attached to fetched users, the
	// same shape the real store returns.
	CarStore *MockCarStore
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a new mock store with initialized defaults
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{Users: make(map[int64]*domain.User)}
}

// NewMockStores creates a linked user/car store pair sharing car data.
func NewMockStores() (*MockUserStore, *MockCarStore) {
	cars := NewMockCarStore()
	users := NewMockUserStore()
	users.CarStore = cars
	return users, cars
}

// WithTx implements the UserStore interface; the mock has no transactions.
func (m *MockUserStore) WithTx(tx *sql.Tx) store.UserStore { return m }

// Create implements the UserStore interface
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}

	for _, existing := range m.Users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
		if existing.Login == user.Login {
			return store.ErrLoginExists
		}
	}

	m.nextID++
	user.ID = m.nextID

	copied := *user
	copied.Cars = nil
	m.Users[user.ID] = &copied

	if m.CarStore != nil {
		for i := range user.Cars {
			user.Cars[i].OwnerID = user.ID
			if err := m.CarStore.Create(ctx, &user.Cars[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetByID implements the UserStore interface
func (m *MockUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	user, ok := m.Users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return m.withCars(ctx, user)
}

// GetByLogin implements the UserStore interface
func (m *MockUserStore) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	if m.GetByLoginFn != nil {
		return m.GetByLoginFn(ctx, login)
	}

	for _, user := range m.Users {
		if user.Login == login {
			return m.withCars(ctx, user)
		}
	}
	return nil, store.ErrUserNotFound
}

// GetAll implements the UserStore interface
func (m *MockUserStore) GetAll(ctx context.Context) ([]domain.User, error) {
	if m.GetAllFn != nil {
		return m.GetAllFn(ctx)
	}

	var users []domain.User
	for _, user := range m.Users {
		u, err := m.withCars(ctx, user)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// Update implements the UserStore interface
func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}

	if _, ok := m.Users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	copied := *user
	copied.Cars = nil
	m.Users[user.ID] = &copied
	return nil
}

// SetLastLogin implements the UserStore interface
func (m *MockUserStore) SetLastLogin(ctx context.Context, id int64, at time.Time) error {
	if m.SetLastLoginFn != nil {
		return m.SetLastLoginFn(ctx, id, at)
	}

	user, ok := m.Users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.LastLogin = &at
	return nil
}

// SetPhotoURL implements the UserStore interface
func (m *MockUserStore) SetPhotoURL(ctx context.Context, id int64, photoURL string) error {
	if m.SetPhotoURLFn != nil {
		return m.SetPhotoURLFn(ctx, id, photoURL)
	}

	user, ok := m.Users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.PhotoURL = photoURL
	return nil
}

// SetTotalUsage implements the UserStore interface
func (m *MockUserStore) SetTotalUsage(ctx context.Context, id int64, total int) error {
	if m.SetTotalUsageFn != nil {
		return m.SetTotalUsageFn(ctx, id, total)
	}

	user, ok := m.Users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.TotalUsage = total
	return nil
}

// Delete implements the UserStore interface
func (m *MockUserStore) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	if _, ok := m.Users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(m.Users, id)

	if m.CarStore != nil {
		for carID, car := range m.CarStore.Cars {
			if car.OwnerID == id {
				delete(m.CarStore.Cars, carID)
			}
		}
	}
	return nil
}

// ExistsByEmail implements the UserStore interface
func (m *MockUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.ExistsByEmailFn != nil {
		return m.ExistsByEmailFn(ctx, email)
	}

	for _, user := range m.Users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// ExistsByLogin implements the UserStore interface
func (m *MockUserStore) ExistsByLogin(ctx context.Context, login string) (bool, error) {
	if m.ExistsByLoginFn != nil {
		return m.ExistsByLoginFn(ctx, login)
	}

	for _, user := range m.Users {
		if user.Login == login {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserStore) withCars(ctx context.Context, user *domain.User) (*domain.User, error) {
	copied := *user
	if m.CarStore != nil {
		cars, err := m.CarStore.GetAllByOwner(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		copied.Cars = cars
	}
	return &copied, nil
}
