// Package store provides abstractions and implementations for data persistence.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/openmotors/car-users-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user and assigns its ID. The user's cars, if any,
	// are persisted with the owner back-reference already set by the caller.
	// Returns ErrEmailExists or ErrLoginExists on a uniqueness violation.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user with its car collection attached.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByLogin retrieves a user by login, with cars attached.
	// Returns ErrUserNotFound if the user does not exist.
	GetByLogin(ctx context.Context, login string) (*domain.User, error)

	// GetAll retrieves every user, each with its car collection attached.
	GetAll(ctx context.Context) ([]domain.User, error)

	// Update overwrites the user's mutable columns. The caller provides a
	// complete user including HashedPassword. Returns ErrUserNotFound if
	// absent, ErrEmailExists/ErrLoginExists on uniqueness violations.
	Update(ctx context.Context, user *domain.User) error

	// SetLastLogin stamps the last-login timestamp.
	SetLastLogin(ctx context.Context, id int64, at time.Time) error

	// SetPhotoURL overwrites only the photo reference.
	SetPhotoURL(ctx context.Context, id int64, photoURL string) error

	// SetTotalUsage persists the derived aggregate usage counter.
	SetTotalUsage(ctx context.Context, id int64, total int) error

	// Delete removes a user. Owned cars are removed by the ON DELETE
	// CASCADE constraint. Returns ErrUserNotFound if absent.
	Delete(ctx context.Context, id int64) error

	// ExistsByEmail reports whether a user with the email is persisted.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByLogin reports whether a user with the login is persisted.
	ExistsByLogin(ctx context.Context, login string) (bool, error)

	// WithTx returns a UserStore bound to the given transaction.
	WithTx(tx *sql.Tx) UserStore
}
