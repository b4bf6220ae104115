package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmotors/car-users-api/internal/domain"
	"github.com/openmotors/car-users-api/internal/mocks"
	"github.com/openmotors/car-users-api/internal/store"
)

func newTestUserService(t *testing.T) (*UserServiceImpl, *mocks.MockUserStore, *mocks.MockCarStore) {
	t.Helper()

	userStore, carStore := mocks.NewMockStores()
	svc := NewUserService(
		userStore,
		carStore,
		&mocks.MockPasswordHasher{},
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	// Mock stores have no transactions; run the body directly.
	svc.runTx = func(ctx context.Context, fn store.TxFn) error {
		return fn(ctx, (*sql.Tx)(nil))
	}
	return svc, userStore, carStore
}

func newUserFixture() *domain.User {
	return &domain.User{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Birthday:  time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC),
		Login:     "ada",
		Password:  "secret1",
		Phone:     "+5511999990000",
	}
}

func TestUserCreate(t *testing.T) {
	ctx := context.Background()
	svc, userStore, _ := newTestUserService(t)

	before := time.Now().UTC()
	created, err := svc.Create(ctx, newUserFixture())
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.Equal(t, "hashed:secret1", created.HashedPassword)
	assert.Empty(t, created.Password, "plaintext must be cleared after hashing")
	assert.Nil(t, created.LastLogin)
	assert.False(t, created.CreatedAt.Before(before), "CreatedAt must be stamped")
	assert.Zero(t, created.TotalUsage)

	stored := userStore.Users[created.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "hashed:secret1", stored.HashedPassword)
}

func TestUserCreateWithCars(t *testing.T) {
	ctx := context.Background()
	svc, _, carStore := newTestUserService(t)

	user := newUserFixture()
	user.Cars = []domain.Car{
		{Year: 2020, LicensePlate: "ABC-1234", Model: "Roadster", Color: "red", UsageCount: 99},
	}

	created, err := svc.Create(ctx, user)
	require.NoError(t, err)

	require.Len(t, created.Cars, 1)
	car := created.Cars[0]
	assert.NotZero(t, car.ID)
	assert.Equal(t, created.ID, car.OwnerID)
	assert.Zero(t, car.UsageCount, "supplied usage counters reset to zero")
	assert.Len(t, carStore.Cars, 1)
}

func TestUserCreateValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(u *domain.User)
		wantErr error
	}{
		{"missing login", func(u *domain.User) { u.Login = "" }, domain.ErrUserMissingFields},
		{"bad email", func(u *domain.User) { u.Email = "nope" }, domain.ErrUserInvalidFields},
		{"short password", func(u *domain.User) { u.Password = "123" }, domain.ErrUserInvalidFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestUserService(t)
			user := newUserFixture()
			tt.mutate(user)
			_, err := svc.Create(ctx, user)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUserCreateDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestUserService(t)

	_, err := svc.Create(ctx, newUserFixture())
	require.NoError(t, err)

	dupEmail := newUserFixture()
	dupEmail.Login = "other"
	_, err = svc.Create(ctx, dupEmail)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	dupLogin := newUserFixture()
	dupLogin.Email = "other@example.com"
	_, err = svc.Create(ctx, dupLogin)
	assert.ErrorIs(t, err, domain.ErrLoginAlreadyExists)
}

func TestUserCreateConstraintRace(t *testing.T) {
	// The check-then-act uniqueness check passed, but the insert lost the
	// race and hit the constraint.
	ctx := context.Background()
	svc, userStore, _ := newTestUserService(t)

	userStore.CreateFn = func(ctx context.Context, user *domain.User) error {
		return store.ErrLoginExists
	}

	_, err := svc.Create(ctx, newUserFixture())
	assert.ErrorIs(t, err, domain.ErrLoginAlreadyExists)
}

func TestUserUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestUserService(t)

	created, err := svc.Create(ctx, newUserFixture())
	require.NoError(t, err)

	patch := newUserFixture()
	patch.FirstName = "Augusta"
	patch.Password = ""

	updated, err := svc.Update(ctx, created.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Equal(t, "hashed:secret1", updated.HashedPassword,
		"empty patch password keeps the current hash")

	patch.Password = "newsecret"
	updated, err = svc.Update(ctx, created.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, "hashed:newsecret", updated.HashedPassword)
}

func TestUserUpdateNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestUserService(t)

	_, err := svc.Update(ctx, 404, newUserFixture())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserUpdateCarMerge(t *testing.T) {
	ctx := context.Background()
	svc, userStore, carStore := newTestUserService(t)

	user := newUserFixture()
	user.Cars = []domain.Car{
		{Year: 2018, LicensePlate: "KEEP-001", Model: "Hatch", Color: "blue"},
		{Year: 2019, LicensePlate: "DROP-001", Model: "Sedan", Color: "gray"},
	}
	created, err := svc.Create(ctx, user)
	require.NoError(t, err)
	keepID := created.Cars[0].ID
	dropID := created.Cars[1].ID

	// Touch the kept car so the merge must preserve its counter.
	carStore.Cars[keepID].UsageCount = 4

	patch := newUserFixture()
	patch.Cars = []domain.Car{
		{ID: keepID, Year: 2018, LicensePlate: "KEEP-001", Model: "Hatch GT", Color: "blue"},
		{Year: 2024, LicensePlate: "NEW-0001", Model: "Wagon", Color: "green"},
	}

	updated, err := svc.Update(ctx, created.ID, patch)
	require.NoError(t, err)
	require.Len(t, updated.Cars, 2)

	_, stillThere := carStore.Cars[dropID]
	assert.False(t, stillThere, "detached car must be hard-deleted")

	kept := carStore.Cars[keepID]
	assert.Equal(t, "Hatch GT", kept.Model)
	assert.Equal(t, 4, kept.UsageCount, "merge must not overwrite usage")

	assert.Equal(t, 4, userStore.Users[created.ID].TotalUsage,
		"aggregate recomputed after merge")
}

func TestUserUpdateRejectsForeignCar(t *testing.T) {
	ctx := context.Background()
	svc, userStore, carStore := newTestUserService(t)

	victim := newUserFixture()
	victim.Cars = []domain.Car{{Year: 2020, LicensePlate: "VIC-0001", Model: "Coupe", Color: "black"}}
	victimUser, err := svc.Create(ctx, victim)
	require.NoError(t, err)
	victimCarID := victimUser.Cars[0].ID

	attacker := newUserFixture()
	attacker.Email = "mallory@example.com"
	attacker.Login = "mallory"
	attackerUser, err := svc.Create(ctx, attacker)
	require.NoError(t, err)

	patch := newUserFixture()
	patch.Email = "mallory@example.com"
	patch.Login = "mallory"
	patch.FirstName = "Changed"
	patch.Cars = []domain.Car{
		{ID: victimCarID, Year: 2020, LicensePlate: "VIC-0001", Model: "Coupe", Color: "black"},
	}

	_, err = svc.Update(ctx, attackerUser.ID, patch)
	assert.ErrorIs(t, err, domain.ErrUserInvalidFields)

	// A rejected patch changes nothing.
	assert.Equal(t, victimUser.ID, carStore.Cars[victimCarID].OwnerID)
	assert.Equal(t, "Ada", userStore.Users[attackerUser.ID].FirstName)
}

func TestUserDelete(t *testing.T) {
	ctx := context.Background()
	svc, _, carStore := newTestUserService(t)

	user := newUserFixture()
	user.Cars = []domain.Car{{Year: 2020, LicensePlate: "ABC-1234", Model: "Roadster", Color: "red"}}
	created, err := svc.Create(ctx, user)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Empty(t, carStore.Cars, "delete cascades to owned cars")

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), domain.ErrUserNotFound)
}

func TestUserRecordLogin(t *testing.T) {
	ctx := context.Background()
	svc, userStore, _ := newTestUserService(t)

	created, err := svc.Create(ctx, newUserFixture())
	require.NoError(t, err)
	require.Nil(t, created.LastLogin)

	require.NoError(t, svc.RecordLogin(ctx, created.ID))
	assert.NotNil(t, userStore.Users[created.ID].LastLogin)

	assert.ErrorIs(t, svc.RecordLogin(ctx, 404), domain.ErrUserNotFound)
}

func TestRecomputeAggregate(t *testing.T) {
	ctx := context.Background()
	svc, userStore, carStore := newTestUserService(t)

	created, err := svc.Create(ctx, newUserFixture())
	require.NoError(t, err)

	carStore.Cars[1] = &domain.Car{ID: 1, OwnerID: created.ID, UsageCount: 3}
	carStore.Cars[2] = &domain.Car{ID: 2, OwnerID: created.ID, UsageCount: 4}
	carStore.Cars[3] = &domain.Car{ID: 3, OwnerID: 999, UsageCount: 100}

	require.NoError(t, svc.RecomputeAggregate(ctx, created.ID))
	assert.Equal(t, 7, userStore.Users[created.ID].TotalUsage,
		"aggregate equals the sum over owned cars only")
}
