package users

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warden-rbac/warden/internal/shared"
)

// Repository defines persistence operations for the identity store.
type Repository interface {
	FindActiveByEmail(ctx context.Context, email string) (*User, error)
	FindActiveByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*User, error)
	SetPassword(ctx context.Context, id int64, hash string) error
	Deactivate(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, password_hash, first_name, last_name, middle_name, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.MiddleName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindActiveByEmail fetches an active user by email. Inactive rows are
// invisible here, which is what makes deactivation final for logins.
func (r *PGRepository) FindActiveByEmail(ctx context.Context, email string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 AND is_active = TRUE`, email))
}

// FindActiveByID fetches an active user by ID. Token resolution goes through
// here, so deactivating an account invalidates outstanding tokens at once.
func (r *PGRepository) FindActiveByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND is_active = TRUE`, id))
}

// Create inserts a new user row. A duplicate email surfaces as
// shared.ErrDuplicateEmail via the unique constraint, never via a prior
// existence check.
func (r *PGRepository) Create(ctx context.Context, user *User) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, middle_name, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		 RETURNING id, is_active, created_at, updated_at`,
		user.Email, user.PasswordHash, user.FirstName, user.LastName, user.MiddleName,
	).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	return mapUniqueViolation(err)
}

// UpdateProfile applies only the supplied fields and returns the fresh row.
// Changing the email re-hits the unique constraint, which already excludes
// the user's own row.
func (r *PGRepository) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (*User, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
	add := func(column string, value string) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if update.Email != nil {
		add("email", *update.Email)
	}
	if update.FirstName != nil {
		add("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		add("last_name", *update.LastName)
	}
	if update.MiddleName != nil {
		add("middle_name", *update.MiddleName)
	}
	if len(sets) == 0 {
		return r.FindActiveByID(ctx, id)
	}
	args = append(args, id)
	query := `UPDATE users SET ` + joinSets(sets) + `, updated_at = NOW() WHERE id = $` + strconv.Itoa(len(args)) + ` AND is_active = TRUE RETURNING ` + userColumns
	user, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return user, nil
}

// SetPassword stores a new credential digest.
func (r *PGRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	return err
}

// Deactivate flips is_active off. Deactivating an already-inactive user is a
// no-op success.
func (r *PGRepository) Deactivate(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func joinSets(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}

func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicateEmail
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
