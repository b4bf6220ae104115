package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openmotors/car-users-api/internal/domain"
	"github.com/openmotors/car-users-api/internal/mocks"
)

func newTestCarService(t *testing.T) (*CarServiceImpl, *UserServiceImpl, *mocks.MockUserStore, *mocks.MockCarStore) {
	t.Helper()

	userSvc, userStore, carStore := newTestUserService(t)
	carSvc := NewCarService(carStore, userSvc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return carSvc, userSvc, userStore, carStore
}

func newOwner(t *testing.T, svc *UserServiceImpl) *domain.User {
	t.Helper()

	owner, err := svc.Create(context.Background(), newUserFixture())
	require.NoError(t, err)
	return owner
}

func newCarFixture(ownerID int64) *domain.Car {
	return &domain.Car{
		Year:         2021,
		LicensePlate: "XYZ-9876",
		Model:        "Compact",
		Color:        "silver",
		OwnerID:      ownerID,
	}
}

func TestCarCreate(t *testing.T) {
	ctx := context.Background()
	carSvc, userSvc, userStore, _ := newTestCarService(t)
	owner := newOwner(t, userSvc)

	car := newCarFixture(owner.ID)
	car.UsageCount = 50

	created, err := carSvc.Create(ctx, car)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Zero(t, created.UsageCount, "usage always starts at zero")
	assert.Zero(t, userStore.Users[owner.ID].TotalUsage)
}

func TestCarCreateRequiresOwner(t *testing.T) {
	ctx := context.Background()
	carSvc, _, _, _ := newTestCarService(t)

	_, err := carSvc.Create(ctx, newCarFixture(0))
	assert.ErrorIs(t, err, domain.ErrCarInvalidFields)
}

func TestCarCreateValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(c *domain.Car)
		wantErr error
	}{
		{"missing plate", func(c *domain.Car) { c.LicensePlate = "" }, domain.ErrCarMissingFields},
		{"short plate", func(c *domain.Car) { c.LicensePlate = "AB1" }, domain.ErrCarInvalidFields},
		{"implausible year", func(c *domain.Car) { c.Year = 1900 }, domain.ErrCarInvalidFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carSvc, userSvc, _, _ := newTestCarService(t)
			owner := newOwner(t, userSvc)
			car := newCarFixture(owner.ID)
			tt.mutate(car)
			_, err := carSvc.Create(ctx, car)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCarCreateDuplicatePlate(t *testing.T) {
	ctx := context.Background()
	carSvc, userSvc, _, _ := newTestCarService(t)
	owner := newOwner(t, userSvc)

	_, err := carSvc.Create(ctx, newCarFixture(owner.ID))
	require.NoError(t, err)

	_, err = carSvc.Create(ctx, newCarFixture(owner.ID))
	assert.ErrorIs(t, err, domain.ErrLicensePlateExists)
}

func TestCarUpdate(t *testing.T) {
	ctx := context.Background()
	carSvc, userSvc, _, carStore := newTestCarService(t)
	owner := newOwner(t, userSvc)

	created, err := carSvc.Create(ctx, newCarFixture(owner.ID))
	require.NoError(t, err)
	carStore.Cars[created.ID].UsageCount = 7

	patch := newCarFixture(owner.ID)
	patch.Model = "Compact GT"
	patch.UsageCount = 1000

	updated, err := carSvc.Update(ctx, created.ID, owner.ID, patch)
	require.NoError(t, err)
	assert.Equal(t, "Compact GT", updated.Model)
	assert.Equal(t, 7, updated.UsageCount, "usage never moves through a patch")
}

func TestCarUpdatePlateUniqueness(t *testing.T) {
	ctx := context.Background()
	carSvc, userSvc, _, _ := newTestCarService(t)
	owner := newOwner(t, userSvc)

	first, err := carSvc.Create(ctx, newCarFixture(owner.ID))
	require.NoError(t, err)

	second := newCarFixture(owner.ID)
	second.LicensePlate = "ABC-0001"
	_, err = carSvc.Create(ctx, second)
	require.NoError(t, err)

	// Keeping your own plate is not a conflict.
	patch := newCarFixture(owner.ID)
	patch.Color = "black"
	_, err = carSvc.Update(ctx, first.ID, owner.ID, patch)
	require.NoError(t, err)

	// Moving onto another car's plate is.
	patch.LicensePlate = "ABC-0001"
	_, err = carSvc.Update(ctx, first.ID, owner.ID, patch)
	assert.ErrorIs(t, err, domain.ErrLicensePlateExists)
}

func TestCarUpdateRejectsForeignRequester(t *testing.T) {
	ctx := context.Background()
	carSvc, userSvc, _, carStore := newTestCarService(t)
	owner := newOwner(t, userSvc)

	created, err := carSvc.Create(ctx, newCarFixture(owner.ID))
	require.NoError(t, err)

	patch := newCarFixture(owner.ID)
	patch.Model = "Stolen"

	_, err = carSvc.Update(ctx, created.ID, owner.ID+1, patch)
	assert.ErrorIs(t, err, domain.ErrCarInvalidFields)
	assert.Equal(t, "Compact", carStore.Cars[created.ID].Model, "rejected patch changes nothing")
}

func TestCarUpdateNotFound(t *testing.T) {
	ctx := context.Background()
	carSvc, _, _, _ := newTestCarService(t)

	_, err := carSvc.Update(ctx, 404, 1, newCarFixture(1))
	assert.ErrorIs(t, err, domain.ErrCarNotFound)
}

func TestCarDeleteRecomputesAggregate(t *testing.T) {
	ctx := context.Background()
	carSvc, userSvc, userStore, carStore := newTestCarService(t)
	owner := newOwner(t, userSvc)

	created, err := carSvc.Create(ctx, newCarFixture(owner.ID))
	require.NoError(t, err)

	carStore.Cars[created.ID].UsageCount = 5
	require.NoError(t, userSvc.RecomputeAggregate(ctx, owner.ID))
	require.Equal(t, 5, userStore.Users[owner.ID].TotalUsage)

	require.NoError(t, carSvc.Delete(ctx, created.ID))
	assert.Empty(t, carStore.Cars)
	assert.Zero(t, userStore.Users[owner.ID].TotalUsage,
		"former owner's aggregate drops with the car")

	assert.ErrorIs(t, carSvc.Delete(ctx, created.ID), domain.ErrCarNotFound)
}

func TestCarTouchUsage(t *testing.T) {
	ctx := context.Background()
	carSvc, userSvc, userStore, _ := newTestCarService(t)
	owner := newOwner(t, userSvc)

	created, err := carSvc.Create(ctx, newCarFixture(owner.ID))
	require.NoError(t, err)

	var touched *domain.Car
	for i := 0; i < 3; i++ {
		touched, err = carSvc.TouchUsage(ctx, created.ID)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, touched.UsageCount)
	assert.Equal(t, 3, userStore.Users[owner.ID].TotalUsage,
		"owner aggregate follows the counter")
}

func TestCarUpdatePhoto(t *testing.T) {
	ctx := context.Background()
	carSvc, userSvc, _, _ := newTestCarService(t)
	owner := newOwner(t, userSvc)

	created, err := carSvc.Create(ctx, newCarFixture(owner.ID))
	require.NoError(t, err)

	updated, err := carSvc.UpdatePhoto(ctx, created.ID, "/api/cars/1/photo")
	require.NoError(t, err)
	assert.Equal(t, "/api/cars/1/photo", updated.PhotoURL)

	_, err = carSvc.UpdatePhoto(ctx, 404, "/api/cars/404/photo")
	assert.ErrorIs(t, err, domain.ErrCarNotFound)
}
