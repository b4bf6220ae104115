package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/openmotors/car-users-api/internal/domain"
	"github.com/openmotors/car-users-api/internal/platform/logger"
	"github.com/openmotors/car-users-api/internal/store"
)

// PostgresUserStore implements the store.UserStore interface using a
// PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the
// UserStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// WithTx implements store.UserStore.WithTx
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{db: tx, logger: s.logger}
}

// Create implements store.UserStore.Create
// It inserts the user row, then inserts any attached cars with the owner
// back-reference set to the freshly assigned user id.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO users (first_name, last_name, email, birthday, login,
		                   password, phone, created_at, last_login, photo_url,
		                   total_usage_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Birthday,
		user.Login,
		user.HashedPassword,
		user.Phone,
		user.CreatedAt,
		user.LastLogin,
		nullableString(user.PhotoURL),
		user.TotalUsage,
	).Scan(&user.ID)
	if err != nil {
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("login", user.Login))
		return MapError(err)
	}

	for i := range user.Cars {
		user.Cars[i].OwnerID = user.ID
		if err := insertCar(ctx, s.db, &user.Cars[i]); err != nil {
			log.Error("failed to create user's car",
				slog.String("error", err.Error()),
				slog.Int64("user_id", user.ID),
				slog.String("license_plate", user.Cars[i].LicensePlate))
			return MapError(err)
		}
	}

	log.Info("user created",
		slog.Int64("user_id", user.ID),
		slog.String("login", user.Login))
	return nil
}

const userColumns = `id, first_name, last_name, email, birthday, login,
	password, phone, created_at, last_login, photo_url, total_usage_count`

// GetByID implements store.UserStore.GetByID
func (s *PostgresUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := s.scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, MapError(err)
	}

	if err := s.attachCars(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByLogin implements store.UserStore.GetByLogin
func (s *PostgresUserStore) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1`

	user, err := s.scanUser(s.db.QueryRowContext(ctx, query, login))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, MapError(err)
	}

	if err := s.attachCars(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetAll implements store.UserStore.GetAll
// Users and cars are fetched in two queries and joined in memory.
func (s *PostgresUserStore) GetAll(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var users []domain.User
	index := make(map[int64]int)
	for rows.Next() {
		user, err := s.scanUser(rows)
		if err != nil {
			return nil, MapError(err)
		}
		index[user.ID] = len(users)
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	carRows, err := s.db.QueryContext(ctx,
		`SELECT `+carColumns+` FROM cars ORDER BY id`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = carRows.Close() }()

	for carRows.Next() {
		car, err := scanCar(carRows)
		if err != nil {
			return nil, MapError(err)
		}
		if i, ok := index[car.OwnerID]; ok {
			users[i].Cars = append(users[i].Cars, *car)
		}
	}
	if err := carRows.Err(); err != nil {
		return nil, MapError(err)
	}

	return users, nil
}

// Update implements store.UserStore.Update
func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, email = $3, birthday = $4,
		    login = $5, password = $6, phone = $7, last_login = $8,
		    photo_url = $9, total_usage_count = $10
		WHERE id = $11
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Birthday,
		user.Login,
		user.HashedPassword,
		user.Phone,
		user.LastLogin,
		nullableString(user.PhotoURL),
		user.TotalUsage,
		user.ID,
	)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// SetLastLogin implements store.UserStore.SetLastLogin
func (s *PostgresUserStore) SetLastLogin(ctx context.Context, id int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// SetPhotoURL implements store.UserStore.SetPhotoURL
func (s *PostgresUserStore) SetPhotoURL(ctx context.Context, id int64, photoURL string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET photo_url = $1 WHERE id = $2`, photoURL, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// SetTotalUsage implements store.UserStore.SetTotalUsage
func (s *PostgresUserStore) SetTotalUsage(ctx context.Context, id int64, total int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET total_usage_count = $1 WHERE id = $2`, total, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// Delete implements store.UserStore.Delete
// Owned cars are removed by the ON DELETE CASCADE constraint.
func (s *PostgresUserStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete user",
			slog.String("error", err.Error()),
			slog.Int64("user_id", id))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrUserNotFound); err != nil {
		return err
	}

	log.Info("user deleted", slog.Int64("user_id", id))
	return nil
}

// ExistsByEmail implements store.UserStore.ExistsByEmail
func (s *PostgresUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// ExistsByLogin implements store.UserStore.ExistsByLogin
func (s *PostgresUserStore) ExistsByLogin(ctx context.Context, login string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE login = $1)`, login).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning code.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresUserStore) scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var lastLogin sql.NullTime
	var photoURL sql.NullString

	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Birthday,
		&user.Login,
		&user.HashedPassword,
		&user.Phone,
		&user.CreatedAt,
		&lastLogin,
		&photoURL,
		&user.TotalUsage,
	)
	if err != nil {
		return nil, err
	}

	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	user.PhotoURL = photoURL.String
	return &user, nil
}

func (s *PostgresUserStore) attachCars(ctx context.Context, user *domain.User) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+carColumns+` FROM cars WHERE user_id = $1 ORDER BY id`, user.ID)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return MapError(err)
		}
		user.Cars = append(user.Cars, *car)
	}
	return MapError(rows.Err())
}

// nullableString maps "" to NULL for optional text columns.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
