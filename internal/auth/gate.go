package auth

import (
	"context"
	"errors"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util/errorutil"
)

// Gate resolves bearer tokens into users and enforces role requirements.
// It holds no session state; identity is re-derived from the token on each call.
type Gate struct {
	tokens TokenManager
	users  repository.UserRepository
}

// NewGate constructs a gate.
func NewGate(tokens TokenManager, users repository.UserRepository) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Authenticate returns the user the token was issued to.
func (g *Gate) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorized("missing token")
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, apperrors.NewUnauthorized("token expired")
		}
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	user, err := g.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, apperrors.NewPersistenceError(err)
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("account inactive")
	}
	return user, nil
}

// RequireAdmin authenticates the token and requires the admin role.
func (g *Gate) RequireAdmin(ctx context.Context, token string) (*domain.User, error) {
	user, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, apperrors.NewForbidden("admin role required")
	}
	return user, nil
}
