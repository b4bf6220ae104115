package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/openmotors/car-users-api/internal/store"
)

func pgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, ConstraintName: constraint}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil passes through", nil, nil},
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"email constraint", pgError("23505", "users_email_key"), store.ErrEmailExists},
		{"login constraint", pgError("23505", "users_login_key"), store.ErrLoginExists},
		{"plate constraint", pgError("23505", "cars_license_plate_key"), store.ErrLicensePlateExists},
		{"unknown unique constraint", pgError("23505", "something_else_key"), store.ErrDuplicate},
		{"owner foreign key", pgError("23503", "cars_user_id_fkey"), store.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestMapErrorWrapped(t *testing.T) {
	// Driver errors often arrive wrapped; mapping must see through that.
	wrapped := fmt.Errorf("insert user: %w", pgError("23505", "users_login_key"))
	assert.ErrorIs(t, MapError(wrapped), store.ErrLoginExists)
}

func TestMapErrorPassthrough(t *testing.T) {
	unrelated := errors.New("connection reset")
	assert.Equal(t, unrelated, MapError(unrelated))

	otherPg := pgError("42P01", "")
	assert.Equal(t, error(otherPg), MapError(otherPg))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(pgError("23505", "users_email_key")))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", pgError("23505", ""))))
	assert.False(t, IsUniqueViolation(pgError("23503", "cars_user_id_fkey")))
	assert.False(t, IsUniqueViolation(errors.New("not a pg error")))
}
