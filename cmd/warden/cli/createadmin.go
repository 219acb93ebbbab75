package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warden-rbac/warden/internal/auth"
	"github.com/warden-rbac/warden/internal/roles"
	"github.com/warden-rbac/warden/internal/users"
)

// CreateAdmin creates an account holding the admin role. Role creation and
// the grant are idempotent, so pointing the command at an existing role is
// fine; an existing email is not.
func CreateAdmin(ctx context.Context, pool *pgxpool.Pool, email, password, firstName, lastName string) error {
	if email == "" || password == "" {
		return errors.New("cli: email and password are required")
	}

	rolesRepo := roles.NewRepository(pool)
	service := users.NewService(users.NewRepository(pool), auth.NewVerifier(0), nil)

	user, err := service.Register(ctx, users.RegisterInput{
		Email:          email,
		Password:       password,
		PasswordRepeat: password,
		FirstName:      firstName,
		LastName:       lastName,
	})
	if err != nil {
		return fmt.Errorf("cli: create admin account: %w", err)
	}

	adminRole, err := rolesRepo.EnsureRole(ctx, roles.NameAdmin, "Full access to all resources")
	if err != nil {
		return fmt.Errorf("cli: ensure admin role: %w", err)
	}
	if err := rolesRepo.Grant(ctx, user.ID, adminRole.ID); err != nil {
		return fmt.Errorf("cli: grant admin role: %w", err)
	}
	return nil
}
