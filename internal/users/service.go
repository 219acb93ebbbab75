package users

import (
	"context"
	"strings"

	"github.com/warden-rbac/warden/internal/shared"
)

// CredentialVerifier is the opaque password capability. Verify treats a
// mismatch as a normal false, never as an error.
type CredentialVerifier interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// RoleGranter attaches a role to an account by name, creating the role when
// it does not exist yet. Both steps are idempotent.
type RoleGranter interface {
	GrantByName(ctx context.Context, userID int64, name, description string) error
}

// Service wraps identity store business rules.
type Service struct {
	repo     Repository
	verifier CredentialVerifier
	roles    RoleGranter
}

// NewService constructs a new Service.
func NewService(repo Repository, verifier CredentialVerifier, roles RoleGranter) *Service {
	return &Service{repo: repo, verifier: verifier, roles: roles}
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Email          string
	Password       string
	PasswordRepeat string
	FirstName      string
	LastName       string
	MiddleName     string
}

// Register creates an account. Mismatched confirmation passwords fail before
// any row is written; new accounts receive the well-known "user" role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if in.Password != in.PasswordRepeat {
		return nil, shared.ErrPasswordMismatch
	}
	hash, err := s.verifier.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		MiddleName:   strings.TrimSpace(in.MiddleName),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	if s.roles != nil {
		if err := s.roles.GrantByName(ctx, user.ID, "user", "Regular user scoped to own resources"); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// UpdateProfile applies a partial profile change for the given user.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (*User, error) {
	if update.Email != nil {
		trimmed := strings.TrimSpace(*update.Email)
		update.Email = &trimmed
	}
	return s.repo.UpdateProfile(ctx, userID, update)
}

// Deactivate soft-deletes the account. Outstanding tokens die with it since
// token resolution only sees active rows.
func (s *Service) Deactivate(ctx context.Context, userID int64) error {
	return s.repo.Deactivate(ctx, userID)
}

// SetPassword hashes and stores a new password for the user.
func (s *Service) SetPassword(ctx context.Context, userID int64, plaintext string) error {
	hash, err := s.verifier.Hash(plaintext)
	if err != nil {
		return err
	}
	return s.repo.SetPassword(ctx, userID, hash)
}
