// Package service implements the domain logic between the HTTP surface and
// storage: invariant enforcement for users and cars, credential handling,
// and usage aggregation.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openmotors/car-users-api/internal/domain"
	"github.com/openmotors/car-users-api/internal/service/auth"
	"github.com/openmotors/car-users-api/internal/store"
)

// UsageAggregator recomputes a user's aggregate usage counter. It is the
// narrow one-way interface the car ledger calls after any usage or
// ownership change, so the car side never holds a full user service
// reference.
type UsageAggregator interface {
	RecomputeAggregate(ctx context.Context, userID int64) error
}

// UserService enforces user invariants: required fields, email/login
// format, uniqueness, password hashing, and aggregate usage recomputation.
type UserService interface {
	UsageAggregator

	// Create persists a new user. Supplied cars are attached to the new
	// user before persisting.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	// Update overwrites the user's mutable fields and merges the supplied
	// car list. Cars present in the patch with an id must already belong
	// to the user; cars absent from a non-empty patch list are detached
	// and hard-deleted.
	Update(ctx context.Context, id int64, patch *domain.User) (*domain.User, error)

	// Delete removes the user and cascades removal of owned cars.
	Delete(ctx context.Context, id int64) error

	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	GetAll(ctx context.Context) ([]domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	LoginExists(ctx context.Context, login string) (bool, error)

	// RecordLogin stamps the user's last-login timestamp.
	RecordLogin(ctx context.Context, id int64) error

	// UpdatePhoto overwrites only the user's photo reference.
	UpdatePhoto(ctx context.Context, id int64, photoURL string) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface.
type UserServiceImpl struct {
	userStore store.UserStore
	carStore  store.CarStore
	hasher    auth.PasswordHasher
	db        *sql.DB
	logger    *slog.Logger
	timeFunc  func() time.Time

	// runTx wraps multi-write operations in a transaction. Tests replace
	// it to run against mock stores without a database.
	runTx func(ctx context.Context, fn store.TxFn) error
}

var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService.
func NewUserService(
	userStore store.UserStore,
	carStore store.CarStore,
	hasher auth.PasswordHasher,
	db *sql.DB,
	logger *slog.Logger,
) *UserServiceImpl {
	s := &UserServiceImpl{
		userStore: userStore,
		carStore:  carStore,
		hasher:    hasher,
		db:        db,
		logger:    logger.With("component", "user_service"),
		timeFunc:  time.Now,
	}
	s.runTx = func(ctx context.Context, fn store.TxFn) error {
		return store.RunInTransaction(ctx, s.db, fn)
	}
	return s
}

// Create validates and persists a new user, hashing the password and
// attaching any supplied cars to the new owner.
func (s *UserServiceImpl) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := user.ValidateForCreate(); err != nil {
		return nil, err
	}

	// Check-then-act: concurrent creates with the same key can both pass
	// these checks; the unique constraint in the store is the backstop and
	// surfaces as the same domain error below.
	emailTaken, err := s.userStore.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if emailTaken {
		return nil, domain.ErrEmailAlreadyExists
	}

	loginTaken, err := s.userStore.ExistsByLogin(ctx, user.Login)
	if err != nil {
		return nil, fmt.Errorf("failed to check login uniqueness: %w", err)
	}
	if loginTaken {
		return nil, domain.ErrLoginAlreadyExists
	}

	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err, "login", user.Login)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""
	user.CreatedAt = s.timeFunc().UTC()
	user.LastLogin = nil

	// Supplied cars are attached to the new owner with a fresh usage
	// counter; the store assigns the owner back-reference once the user id
	// is known.
	for i := range user.Cars {
		user.Cars[i].UsageCount = 0
	}

	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		return nil, mapUserStoreError(err)
	}

	user.RecalculateTotalUsage()

	s.logger.Info("user created",
		"user_id", user.ID,
		"login", user.Login,
		"cars", len(user.Cars))
	return user, nil
}

// Update applies the patch to an existing user. The password is re-hashed
// only when the patch supplies a non-empty one; the photo reference is
// overwritten only when non-empty; the car list is merged explicitly.
func (s *UserServiceImpl) Update(ctx context.Context, id int64, patch *domain.User) (*domain.User, error) {
	existing, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserStoreError(err)
	}

	if err := patch.ValidateForUpdate(); err != nil {
		return nil, err
	}

	// Validate the car merge before mutating anything, so a rejected patch
	// leaves both users' data unchanged.
	var plan *carMergePlan
	if len(patch.Cars) > 0 {
		plan, err = s.planCarMerge(ctx, id, existing.Cars, patch.Cars)
		if err != nil {
			return nil, err
		}
	}

	existing.FirstName = patch.FirstName
	existing.LastName = patch.LastName
	existing.Email = patch.Email
	existing.Birthday = patch.Birthday
	existing.Phone = patch.Phone
	existing.Login = patch.Login

	if patch.PhotoURL != "" {
		existing.PhotoURL = patch.PhotoURL
	}

	if patch.Password != "" {
		hashed, err := s.hasher.Hash(patch.Password)
		if err != nil {
			s.logger.Error("failed to hash password", "error", err, "user_id", id)
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		existing.HashedPassword = hashed
	}

	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		txUsers := s.userStore.WithTx(tx)
		txCars := s.carStore.WithTx(tx)

		if err := txUsers.Update(ctx, existing); err != nil {
			return err
		}

		if plan == nil {
			return nil
		}
		for i := range plan.toCreate {
			if err := txCars.Create(ctx, &plan.toCreate[i]); err != nil {
				return err
			}
		}
		for i := range plan.toUpdate {
			if err := txCars.Update(ctx, &plan.toUpdate[i]); err != nil {
				return err
			}
		}
		// Detached cars are hard-deleted: a car with no owner would be an
		// orphan, which the data model disallows.
		for _, carID := range plan.toDetach {
			if err := txCars.Delete(ctx, carID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapUserStoreError(err)
	}

	if plan != nil {
		if err := s.RecomputeAggregate(ctx, id); err != nil {
			return nil, err
		}
	}

	updated, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserStoreError(err)
	}

	s.logger.Info("user updated", "user_id", id)
	return updated, nil
}

// Delete removes the user by id, cascading removal of owned cars.
func (s *UserServiceImpl) Delete(ctx context.Context, id int64) error {
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.userStore.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return mapUserStoreError(err)
	}

	s.logger.Info("user deleted", "user_id", id)
	return nil
}

// GetByID retrieves a user with its car collection attached.
func (s *UserServiceImpl) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		return nil, mapUserStoreError(err)
	}
	return user, nil
}

// GetByLogin retrieves a user by login.
func (s *UserServiceImpl) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	user, err := s.userStore.GetByLogin(ctx, login)
	if err != nil {
		return nil, mapUserStoreError(err)
	}
	return user, nil
}

// GetAll retrieves every user.
func (s *UserServiceImpl) GetAll(ctx context.Context) ([]domain.User, error) {
	users, err := s.userStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// EmailExists reports whether a persisted user has the email.
func (s *UserServiceImpl) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.userStore.ExistsByEmail(ctx, email)
}

// LoginExists reports whether a persisted user has the login.
func (s *UserServiceImpl) LoginExists(ctx context.Context, login string) (bool, error) {
	return s.userStore.ExistsByLogin(ctx, login)
}

// RecordLogin stamps the user's last-login timestamp.
func (s *UserServiceImpl) RecordLogin(ctx context.Context, id int64) error {
	if err := s.userStore.SetLastLogin(ctx, id, s.timeFunc().UTC()); err != nil {
		return mapUserStoreError(err)
	}
	return nil
}

// UpdatePhoto overwrites only the user's photo reference.
func (s *UserServiceImpl) UpdatePhoto(ctx context.Context, id int64, photoURL string) (*domain.User, error) {
	if err := s.userStore.SetPhotoURL(ctx, id, photoURL); err != nil {
		return nil, mapUserStoreError(err)
	}
	return s.GetByID(ctx, id)
}

// RecomputeAggregate re-derives the user's aggregate usage counter from
// the persisted usage counters of its cars. Increment-then-recompute is a
// read-modify-write pair across two entities with no atomicity guarantee;
// concurrent increments on the same car can race.
func (s *UserServiceImpl) RecomputeAggregate(ctx context.Context, userID int64) error {
	total, err := s.carStore.SumUsageByOwner(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to sum car usage for user %d: %w", userID, err)
	}
	if err := s.userStore.SetTotalUsage(ctx, userID, total); err != nil {
		return mapUserStoreError(err)
	}

	s.logger.Debug("recomputed aggregate usage", "user_id", userID, "total", total)
	return nil
}

// carMergePlan is the outcome of diffing a user's existing car collection
// against the desired collection from an update patch.
type carMergePlan struct {
	toCreate []domain.Car
	toUpdate []domain.Car
	toDetach []int64
}

// planCarMerge diffs (existing, desired) into (to-create, to-update,
// to-detach). A desired entry with an id must belong to the user being
// updated; an entry owned by another user rejects the whole patch.
func (s *UserServiceImpl) planCarMerge(
	ctx context.Context,
	ownerID int64,
	existing []domain.Car,
	desired []domain.Car,
) (*carMergePlan, error) {
	byID := make(map[int64]domain.Car, len(existing))
	for _, c := range existing {
		byID[c.ID] = c
	}

	plan := &carMergePlan{}
	kept := make(map[int64]bool, len(desired))

	for _, want := range desired {
		if want.ID == 0 {
			created := want
			created.OwnerID = ownerID
			created.UsageCount = 0
			if err := created.Validate(); err != nil {
				return nil, domain.ErrUserInvalidFields
			}
			plan.toCreate = append(plan.toCreate, created)
			continue
		}

		current, owned := byID[want.ID]
		if !owned {
			// The id exists on some other user's car, or not at all.
			// Either way this patch may not claim it.
			other, err := s.carStore.GetByID(ctx, want.ID)
			if err != nil {
				if errors.Is(err, store.ErrCarNotFound) {
					return nil, domain.ErrCarNotFound
				}
				return nil, fmt.Errorf("failed to resolve car %d: %w", want.ID, err)
			}
			s.logger.Warn("update rejected: car belongs to another user",
				"user_id", ownerID,
				"car_id", want.ID,
				"owner_id", other.OwnerID)
			return nil, domain.ErrUserInvalidFields
		}

		merged := current
		merged.Year = want.Year
		merged.LicensePlate = want.LicensePlate
		merged.Model = want.Model
		merged.Color = want.Color
		if want.PhotoURL != "" {
			merged.PhotoURL = want.PhotoURL
		}
		if err := merged.Validate(); err != nil {
			return nil, domain.ErrUserInvalidFields
		}
		plan.toUpdate = append(plan.toUpdate, merged)
		kept[want.ID] = true
	}

	for _, c := range existing {
		if !kept[c.ID] {
			plan.toDetach = append(plan.toDetach, c.ID)
		}
	}

	return plan, nil
}

// mapUserStoreError translates store-level failures, including constraint
// violations racing past a check-then-act uniqueness check, into the
// user-domain taxonomy.
func mapUserStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrUserNotFound):
		return domain.ErrUserNotFound
	case errors.Is(err, store.ErrEmailExists):
		return domain.ErrEmailAlreadyExists
	case errors.Is(err, store.ErrLoginExists):
		return domain.ErrLoginAlreadyExists
	case errors.Is(err, store.ErrLicensePlateExists):
		return domain.ErrLicensePlateExists
	case errors.Is(err, store.ErrCarNotFound):
		return domain.ErrCarNotFound
	default:
		return err
	}
}
