package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
)

// EnsureAdmin seeds an administrator when the directory is empty and
// credentials are configured. It reports whether a user was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return false, nil
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("bootstrap count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	in, err := normalizeSignup(SignupInput{Email: email, Name: "Admin", Password: password})
	if err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}

	user, err := s.newUser(in, domain.RolePending)
	if err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
	if err := s.users.Register(ctx, user); err != nil {
		// Another instance seeded the same account first.
		if errors.Is(err, repository.ErrConflict) {
			return false, nil
		}
		return false, fmt.Errorf("bootstrap create admin: %w", err)
	}
	if user.Role != domain.RoleAdmin {
		// A signup claimed the empty directory between Count and Register.
		if err := s.users.Delete(ctx, user.ID); err != nil {
			return false, fmt.Errorf("bootstrap discard pending admin: %w", err)
		}
		s.logger.Warn("bootstrap admin skipped; directory was claimed by another signup",
			zap.String("email", user.Email),
		)
		return false, nil
	}

	s.logger.Info("bootstrap admin user created",
		zap.String("email", user.Email),
		zap.String("user_id", user.ID),
	)
	return true, nil
}
