package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util/errorutil"
)

func seedUser(t *testing.T, repo repository.UserRepository, id, email string, role domain.Role, active bool) *domain.User {
	t.Helper()
	user := &domain.User{ID: id, Email: email, Name: id, PasswordHash: "x", Role: role, IsActive: active}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func issue(t *testing.T, mgr TokenManager, subject string) string {
	t.Helper()
	token, _, err := mgr.Issue(subject, 0)
	require.NoError(t, err)
	return token
}

func TestGateAuthenticate(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepository()
	tokens := NewJWTManager("secret", time.Hour)
	gate := NewGate(tokens, repo)

	seedUser(t, repo, "u1", "user@x.com", domain.RoleUser, true)
	seedUser(t, repo, "u2", "off@x.com", domain.RoleUser, false)

	user, err := gate.Authenticate(ctx, issue(t, tokens, "user@x.com"))
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)

	cases := map[string]string{
		"empty":           "",
		"garbage":         "garbage",
		"unknown subject": issue(t, tokens, "ghost@x.com"),
		"inactive user":   issue(t, tokens, "off@x.com"),
		"foreign secret":  issue(t, NewJWTManager("other", time.Hour), "user@x.com"),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := gate.Authenticate(ctx, token)
			require.ErrorIs(t, err, apperrors.ErrUnauthorized)
		})
	}
}

func TestGateAuthenticateExpired(t *testing.T) {
	repo := repository.NewMemoryUserRepository()
	tokens := NewJWTManager("secret", time.Minute)
	seedUser(t, repo, "u1", "user@x.com", domain.RoleAdmin, true)
	token := issue(t, tokens, "user@x.com")

	tokens.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err := NewGate(tokens, repo).Authenticate(context.Background(), token)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestGateDeletedAfterIssuance(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepository()
	tokens := NewJWTManager("secret", time.Hour)
	gate := NewGate(tokens, repo)

	seedUser(t, repo, "u1", "user@x.com", domain.RoleAdmin, true)
	token := issue(t, tokens, "user@x.com")
	require.NoError(t, repo.Delete(ctx, "u1"))

	_, err := gate.RequireAdmin(ctx, token)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestGateRequireAdmin(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepository()
	tokens := NewJWTManager("secret", time.Hour)
	gate := NewGate(tokens, repo)

	seedUser(t, repo, "a", "admin@x.com", domain.RoleAdmin, true)
	seedUser(t, repo, "u", "user@x.com", domain.RoleUser, true)
	seedUser(t, repo, "p", "pending@x.com", domain.RolePending, true)

	admin, err := gate.RequireAdmin(ctx, issue(t, tokens, "admin@x.com"))
	require.NoError(t, err)
	require.Equal(t, "a", admin.ID)

	for _, email := range []string{"user@x.com", "pending@x.com"} {
		_, err := gate.RequireAdmin(ctx, issue(t, tokens, email))
		require.ErrorIs(t, err, apperrors.ErrForbidden, email)
	}

	_, err = gate.RequireAdmin(ctx, "garbage")
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

type failingRepo struct {
	repository.UserRepository
}

func (failingRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, errors.New("connection reset")
}

func TestGateStorageFailure(t *testing.T) {
	tokens := NewJWTManager("secret", time.Hour)
	gate := NewGate(tokens, failingRepo{})

	_, err := gate.Authenticate(context.Background(), issue(t, tokens, "user@x.com"))
	require.ErrorIs(t, err, apperrors.ErrPersistence)
}
