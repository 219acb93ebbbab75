package roles

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for the role catalog.
type Repository interface {
	RolesOf(ctx context.Context, userID int64) ([]int64, error)
	EnsureRole(ctx context.Context, name, description string) (Role, error)
	Grant(ctx context.Context, userID, roleID int64) error
	ListRoles(ctx context.Context) ([]Role, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// RolesOf returns the role IDs linked to the user. An empty set is valid:
// such a user authenticates fine and fails every permission check.
func (r *PGRepository) RolesOf(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roleIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		roleIDs = append(roleIDs, id)
	}
	return roleIDs, rows.Err()
}

// EnsureRole is an idempotent get-or-create by name, done in one statement so
// concurrent callers cannot race past the unique constraint. The no-op
// DO UPDATE keeps RETURNING populated on the conflict path.
func (r *PGRepository) EnsureRole(ctx context.Context, name, description string) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx,
		`INSERT INTO roles (name, description) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name, description`,
		name, description,
	).Scan(&role.ID, &role.Name, &role.Description)
	return role, err
}

// Grant links a role to a user. Granting an already-held role is a no-op
// success via the unique (user_id, role_id) constraint.
func (r *PGRepository) Grant(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, roleID,
	)
	return err
}

// ListRoles returns all roles ordered by name.
func (r *PGRepository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
