package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations. Services
// translate these into domain error codes at their boundary.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would violate a
	// uniqueness constraint. Application-level existence checks are
	// check-then-act; the database constraint is the real backstop and
	// surfaces through this error.
	ErrDuplicate = errors.New("entity already exists")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrCarNotFound indicates the requested car does not exist.
	ErrCarNotFound = fmt.Errorf("%w: car", ErrNotFound)

	// ErrEmailExists indicates a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrLoginExists indicates a user with the given login already exists.
	ErrLoginExists = fmt.Errorf("%w: login", ErrDuplicate)

	// ErrLicensePlateExists indicates a car with the given license plate
	// already exists.
	ErrLicensePlateExists = fmt.Errorf("%w: license plate", ErrDuplicate)

	// ErrPhotoNotFound indicates no photo object is stored for the entity.
	ErrPhotoNotFound = fmt.Errorf("%w: photo", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
