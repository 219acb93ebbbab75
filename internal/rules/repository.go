// Package rules owns the access rule table: the per (role, element) grant
// matrix the evaluator reads.
package rules

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warden-rbac/warden/internal/authz"
)

// ElementName is the business element guarding the rule table itself. The
// admin role's blanket grant on it terminates the circular gate.
const ElementName = "access_rules"

// Repository defines persistence operations for access rules.
type Repository interface {
	RulesFor(ctx context.Context, roleIDs []int64, elementID int64) ([]authz.Rule, error)
	Upsert(ctx context.Context, roleID, elementID int64, grants authz.Grants) (authz.Rule, error)
	ListAll(ctx context.Context) ([]authz.Rule, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const ruleColumns = `role_id, element_id, read_own, read_all, "create", update_own, update_all, delete_own, delete_all`

// RulesFor returns the rules the given roles hold on an element. The unique
// (role_id, element_id) constraint guarantees at most one row per role.
func (r *PGRepository) RulesFor(ctx context.Context, roleIDs []int64, elementID int64) ([]authz.Rule, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+ruleColumns+` FROM access_rules WHERE element_id = $1 AND role_id = ANY($2)`,
		elementID, roleIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []authz.Rule
	for rows.Next() {
		var rule authz.Rule
		if err := rows.Scan(&rule.RoleID, &rule.ElementID, &rule.ReadOwn, &rule.ReadAll, &rule.Create, &rule.UpdateOwn, &rule.UpdateAll, &rule.DeleteOwn, &rule.DeleteAll); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// Upsert creates or replaces the single rule row for the pair in one
// statement, so concurrent writers converge on one row instead of racing a
// check-then-write.
func (r *PGRepository) Upsert(ctx context.Context, roleID, elementID int64, grants authz.Grants) (authz.Rule, error) {
	var rule authz.Rule
	err := r.pool.QueryRow(ctx,
		`INSERT INTO access_rules (role_id, element_id, read_own, read_all, "create", update_own, update_all, delete_own, delete_all)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (role_id, element_id) DO UPDATE SET
		   read_own = EXCLUDED.read_own,
		   read_all = EXCLUDED.read_all,
		   "create" = EXCLUDED."create",
		   update_own = EXCLUDED.update_own,
		   update_all = EXCLUDED.update_all,
		   delete_own = EXCLUDED.delete_own,
		   delete_all = EXCLUDED.delete_all
		 RETURNING `+ruleColumns,
		roleID, elementID, grants.ReadOwn, grants.ReadAll, grants.Create, grants.UpdateOwn, grants.UpdateAll, grants.DeleteOwn, grants.DeleteAll,
	).Scan(&rule.RoleID, &rule.ElementID, &rule.ReadOwn, &rule.ReadAll, &rule.Create, &rule.UpdateOwn, &rule.UpdateAll, &rule.DeleteOwn, &rule.DeleteAll)
	return rule, err
}

// ListAll returns every rule row.
func (r *PGRepository) ListAll(ctx context.Context) ([]authz.Rule, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+ruleColumns+` FROM access_rules ORDER BY role_id, element_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []authz.Rule
	for rows.Next() {
		var rule authz.Rule
		if err := rows.Scan(&rule.RoleID, &rule.ElementID, &rule.ReadOwn, &rule.ReadAll, &rule.Create, &rule.UpdateOwn, &rule.UpdateAll, &rule.DeleteOwn, &rule.DeleteAll); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
