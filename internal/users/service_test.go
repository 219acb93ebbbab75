package users

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warden-rbac/warden/internal/shared"
)

type memoryRepo struct {
	nextID int64
	byID   map[int64]*User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, byID: map[int64]*User{}}
}

func (r *memoryRepo) FindActiveByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.byID {
		if u.Email == email && u.IsActive {
			copied := *u
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryRepo) FindActiveByID(_ context.Context, id int64) (*User, error) {
	u, ok := r.byID[id]
	if !ok || !u.IsActive {
		return nil, shared.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memoryRepo) Create(_ context.Context, user *User) error {
	for _, existing := range r.byID {
		if existing.Email == user.Email {
			return shared.ErrDuplicateEmail
		}
	}
	user.ID = r.nextID
	user.IsActive = true
	r.nextID++
	copied := *user
	r.byID[user.ID] = &copied
	return nil
}

func (r *memoryRepo) UpdateProfile(_ context.Context, id int64, update ProfileUpdate) (*User, error) {
	u, ok := r.byID[id]
	if !ok || !u.IsActive {
		return nil, shared.ErrNotFound
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	if update.MiddleName != nil {
		u.MiddleName = *update.MiddleName
	}
	copied := *u
	return &copied, nil
}

func (r *memoryRepo) SetPassword(_ context.Context, id int64, hash string) error {
	u, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *memoryRepo) Deactivate(_ context.Context, id int64) error {
	if u, ok := r.byID[id]; ok {
		u.IsActive = false
	}
	return nil
}

type plainVerifier struct{}

func (plainVerifier) Hash(plaintext string) (string, error) { return "hash:" + plaintext, nil }

func (plainVerifier) Verify(plaintext, digest string) bool { return "hash:"+plaintext == digest }

type recordingGranter struct {
	grants []string
}

func (g *recordingGranter) GrantByName(_ context.Context, userID int64, name, _ string) error {
	g.grants = append(g.grants, name)
	return nil
}

func TestRegisterRejectsMismatchedPasswordsBeforeWriting(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, plainVerifier{}, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:          "a@example.com",
		Password:       "secret",
		PasswordRepeat: "different",
	})
	require.ErrorIs(t, err, shared.ErrPasswordMismatch)
	require.Empty(t, repo.byID)
}

func TestRegisterGrantsDefaultRole(t *testing.T) {
	repo := newMemoryRepo()
	granter := &recordingGranter{}
	svc := NewService(repo, plainVerifier{}, granter)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:          "  a@example.com  ",
		Password:       "secret",
		PasswordRepeat: "secret",
		FirstName:      "Ada",
		LastName:       "Lovelace",
	})
	require.NoError(t, err)
	require.Equal(t, "a@example.com", user.Email)
	require.Equal(t, []string{"user"}, granter.grants)
	require.True(t, strings.HasPrefix(user.PasswordHash, "hash:"))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, plainVerifier{}, nil)

	in := RegisterInput{Email: "a@example.com", Password: "secret", PasswordRepeat: "secret"}
	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrDuplicateEmail)
}

func TestDeactivateHidesAccount(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, plainVerifier{}, nil)

	user, err := svc.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "secret", PasswordRepeat: "secret"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), user.ID))

	_, err = repo.FindActiveByID(context.Background(), user.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.FindActiveByEmail(context.Background(), user.Email)
	require.ErrorIs(t, err, shared.ErrNotFound)

	// Re-running is a no-op, not an error.
	require.NoError(t, svc.Deactivate(context.Background(), user.ID))
}

func TestUpdateProfileTrimsEmail(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, plainVerifier{}, nil)

	user, err := svc.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "secret", PasswordRepeat: "secret"})
	require.NoError(t, err)

	email := "  b@example.com "
	updated, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{Email: &email})
	require.NoError(t, err)
	require.Equal(t, "b@example.com", updated.Email)
}
