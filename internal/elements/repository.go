// Package elements is the resource catalog: the registry of business
// elements (protected resource categories) rules can reference.
package elements

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warden-rbac/warden/internal/authz"
	"github.com/warden-rbac/warden/internal/shared"
)

// Repository defines persistence operations for business elements.
type Repository interface {
	FindByName(ctx context.Context, name string) (authz.Element, error)
	Ensure(ctx context.Context, name, description string) (authz.Element, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByName fetches an element by its unique name. Absence surfaces as
// shared.ErrNotFound, which the evaluator turns into ResourceNotConfigured.
// A configuration gap is never reported as a denial.
func (r *PGRepository) FindByName(ctx context.Context, name string) (authz.Element, error) {
	var element authz.Element
	err := r.pool.QueryRow(ctx, `SELECT id, name, description FROM business_elements WHERE name = $1`, name).
		Scan(&element.ID, &element.Name, &element.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authz.Element{}, shared.ErrNotFound
		}
		return authz.Element{}, err
	}
	return element, nil
}

// Ensure is an idempotent get-or-create used by bootstrap.
func (r *PGRepository) Ensure(ctx context.Context, name, description string) (authz.Element, error) {
	var element authz.Element
	err := r.pool.QueryRow(ctx,
		`INSERT INTO business_elements (name, description) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name, description`,
		name, description,
	).Scan(&element.ID, &element.Name, &element.Description)
	return element, err
}

var _ Repository = (*PGRepository)(nil)
