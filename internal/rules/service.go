package rules

import (
	"context"
	"errors"

	"github.com/warden-rbac/warden/internal/authz"
)

// Service orchestrates access rule operations.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RulesFor implements authz.RuleSource.
func (s *Service) RulesFor(ctx context.Context, roleIDs []int64, elementID int64) ([]authz.Rule, error) {
	return s.repo.RulesFor(ctx, roleIDs, elementID)
}

// Upsert creates or replaces the rule for a (role, element) pair.
func (s *Service) Upsert(ctx context.Context, roleID, elementID int64, grants authz.Grants) (authz.Rule, error) {
	if roleID <= 0 {
		return authz.Rule{}, errors.New("rules: role id required")
	}
	if elementID <= 0 {
		return authz.Rule{}, errors.New("rules: element id required")
	}
	return s.repo.Upsert(ctx, roleID, elementID, grants)
}

// ListAll returns every configured rule.
func (s *Service) ListAll(ctx context.Context) ([]authz.Rule, error) {
	return s.repo.ListAll(ctx)
}

var _ authz.RuleSource = (*Service)(nil)
