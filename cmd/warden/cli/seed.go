// Package cli holds the bootstrap commands shipped with the warden binary.
package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warden-rbac/warden/internal/elements"
	"github.com/warden-rbac/warden/internal/platform/db"
	"github.com/warden-rbac/warden/internal/products"
	"github.com/warden-rbac/warden/internal/roles"
	"github.com/warden-rbac/warden/internal/rules"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		middle_name TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS business_elements (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role_id BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, role_id)
	)`,
	`CREATE TABLE IF NOT EXISTS access_rules (
		id BIGSERIAL PRIMARY KEY,
		role_id BIGINT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
		element_id BIGINT NOT NULL REFERENCES business_elements(id) ON DELETE CASCADE,
		read_own BOOLEAN NOT NULL DEFAULT FALSE,
		read_all BOOLEAN NOT NULL DEFAULT FALSE,
		"create" BOOLEAN NOT NULL DEFAULT FALSE,
		update_own BOOLEAN NOT NULL DEFAULT FALSE,
		update_all BOOLEAN NOT NULL DEFAULT FALSE,
		delete_own BOOLEAN NOT NULL DEFAULT FALSE,
		delete_all BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (role_id, element_id)
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		actor_id BIGINT NOT NULL,
		action TEXT NOT NULL,
		entity TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		meta JSONB,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Seed creates the schema when absent and loads the bootstrap reference
// data: the admin/user roles, the products and access_rules elements, and
// the default grant matrix. Existing rule rows are left alone so re-running
// seed never clobbers administrative changes.
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("cli: create schema: %w", err)
		}
	}

	rolesRepo := roles.NewRepository(pool)
	elementsRepo := elements.NewRepository(pool)

	adminRole, err := rolesRepo.EnsureRole(ctx, roles.NameAdmin, "Full access to all resources")
	if err != nil {
		return fmt.Errorf("cli: ensure admin role: %w", err)
	}
	userRole, err := rolesRepo.EnsureRole(ctx, roles.NameUser, "Regular user scoped to own resources")
	if err != nil {
		return fmt.Errorf("cli: ensure user role: %w", err)
	}

	productsElement, err := elementsRepo.Ensure(ctx, products.ElementName, "Products in the system")
	if err != nil {
		return fmt.Errorf("cli: ensure products element: %w", err)
	}
	rulesElement, err := elementsRepo.Ensure(ctx, rules.ElementName, "Access control rules")
	if err != nil {
		return fmt.Errorf("cli: ensure access_rules element: %w", err)
	}

	defaults := []struct {
		roleID    int64
		elementID int64
		grants    [7]bool // read_own, read_all, create, update_own, update_all, delete_own, delete_all
	}{
		{adminRole.ID, productsElement.ID, [7]bool{false, true, true, false, true, false, true}},
		{adminRole.ID, rulesElement.ID, [7]bool{false, true, true, false, false, false, false}},
		{userRole.ID, productsElement.ID, [7]bool{true, false, true, true, false, true, false}},
	}
	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for _, d := range defaults {
			_, err := tx.Exec(ctx,
				`INSERT INTO access_rules (role_id, element_id, read_own, read_all, "create", update_own, update_all, delete_own, delete_all)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				 ON CONFLICT (role_id, element_id) DO NOTHING`,
				d.roleID, d.elementID, d.grants[0], d.grants[1], d.grants[2], d.grants[3], d.grants[4], d.grants[5], d.grants[6],
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cli: seed rules: %w", err)
	}
	return nil
}
