// Package postgres implements the store interfaces on PostgreSQL.
package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openmotors/car-users-api/internal/store"
)

// PostgreSQL error codes
const (
	// uniqueViolationCode is the PostgreSQL error code for unique
	// constraint violations
	uniqueViolationCode = "23505"

	// foreignKeyViolationCode is the PostgreSQL error code for foreign key
	// violations
	foreignKeyViolationCode = "23503"
)

// Unique constraint names from the migrations. Check-then-act uniqueness
// checks in the services can race; these constraints are the backstop, and
// their violations are mapped back to the same store errors the
// application-level checks produce.
const (
	usersEmailConstraint  = "users_email_key"
	usersLoginConstraint  = "users_login_key"
	carsPlateConstraint   = "cars_license_plate_key"
	carsOwnerFKConstraint = "cars_user_id_fkey"
)

// MapError maps a database error to the appropriate store error, wrapping
// the original for debugging context.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			switch pgErr.ConstraintName {
			case usersEmailConstraint:
				return fmt.Errorf("%w: %v", store.ErrEmailExists, err)
			case usersLoginConstraint:
				return fmt.Errorf("%w: %v", store.ErrLoginExists, err)
			case carsPlateConstraint:
				return fmt.Errorf("%w: %v", store.ErrLicensePlateExists, err)
			}
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case foreignKeyViolationCode:
			if pgErr.ConstraintName == carsOwnerFKConstraint {
				return fmt.Errorf("%w: %v", store.ErrUserNotFound, err)
			}
		}
	}

	return err
}

// IsUniqueViolation checks if the given error is a PostgreSQL unique
// constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// CheckRowsAffected examines the number of rows affected by a database
// operation; zero rows means the target does not exist.
func CheckRowsAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
