package roles

import (
	"context"
	"errors"
	"strings"
)

// Service orchestrates role catalog operations.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RolesOf returns the set of role IDs held by the user.
func (s *Service) RolesOf(ctx context.Context, userID int64) ([]int64, error) {
	return s.repo.RolesOf(ctx, userID)
}

// EnsureRole gets or creates a role by name.
func (s *Service) EnsureRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("roles: role name required")
	}
	return s.repo.EnsureRole(ctx, name, strings.TrimSpace(description))
}

// Grant attaches a role to a user, idempotently.
func (s *Service) Grant(ctx context.Context, userID, roleID int64) error {
	return s.repo.Grant(ctx, userID, roleID)
}

// GrantByName ensures the named role exists and attaches it to the user.
func (s *Service) GrantByName(ctx context.Context, userID int64, name, description string) error {
	role, err := s.EnsureRole(ctx, name, description)
	if err != nil {
		return err
	}
	return s.repo.Grant(ctx, userID, role.ID)
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}
