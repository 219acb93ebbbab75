package auth

import (
	"context"
	"errors"

	"github.com/warden-rbac/warden/internal/shared"
	"github.com/warden-rbac/warden/internal/users"
)

// UserSource resolves accounts for authentication. Both lookups only see
// active rows.
type UserSource interface {
	FindActiveByEmail(ctx context.Context, email string) (*users.User, error)
	FindActiveByID(ctx context.Context, id int64) (*users.User, error)
}

// Service wraps authentication business rules.
type Service struct {
	users    UserSource
	verifier *Verifier
	tokens   *TokenIssuer
}

// NewService constructs a new Service.
func NewService(source UserSource, verifier *Verifier, tokens *TokenIssuer) *Service {
	return &Service{users: source, verifier: verifier, tokens: tokens}
}

// Login validates credentials and issues a token. Unknown email, inactive
// account and wrong password all collapse into shared.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, *users.User, error) {
	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil, shared.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !s.verifier.Verify(password, user.PasswordHash) {
		return "", nil, shared.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ResolveIdentity turns a bearer token into the identity of a live account.
func (s *Service) ResolveIdentity(ctx context.Context, token string) (*shared.Identity, error) {
	userID, err := s.tokens.Resolve(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindActiveByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &shared.Identity{ID: user.ID, Email: user.Email}, nil
}
