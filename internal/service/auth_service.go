package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/repository"
	apperrors "github.com/spec-kit/auth-service/pkg/util/errorutil"
)

// Pagination bounds for ListUsers.
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// SignupInput carries the fields for creating an account.
type SignupInput struct {
	Email           string
	Name            string
	Password        string
	ProfileImageURL string
}

// LoginResult is returned on successful login. The user carries no password hash.
type LoginResult struct {
	Token     string
	TokenType string
	ExpiresAt time.Time
	User      domain.User
}

// AuthService coordinates signup, login and user administration.
type AuthService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	tokens auth.TokenManager
	gate   *auth.Gate
	logger *zap.Logger

	// dummyHash is verified against when the email is unknown so a miss
	// costs the same hashing work as a wrong password.
	dummyHash string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Users  repository.UserRepository
	Hasher auth.PasswordHasher
	Tokens auth.TokenManager
	Logger *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dummyHash, err := deps.Hasher.Hash(uuid.NewString())
	if err != nil {
		logger.Warn("failed to prepare dummy password digest", zap.Error(err))
	}
	return &AuthService{
		users:     deps.Users,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		gate:      auth.NewGate(deps.Tokens, deps.Users),
		logger:    logger,
		dummyHash: dummyHash,
	}
}

// Signup creates an account. The first account ever created becomes admin;
// every later one starts pending. The directory decides the role atomically
// with the insert, so concurrent first signups yield a single admin.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	in, err := normalizeSignup(in)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.storageFailure("lookup user by email", err)
	}

	user, err := s.newUser(in, domain.RolePending)
	if err != nil {
		return nil, err
	}
	if err := s.users.Register(ctx, user); err != nil {
		return nil, s.createFailure(in.Email, err)
	}
	return user, nil
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Spend the same hashing work as a real check so response time
			// does not reveal whether the email exists.
			s.hasher.Verify(password, s.dummyHash)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, s.storageFailure("lookup user by email", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.Role == domain.RolePending {
		return nil, apperrors.ErrPendingApproval
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("account inactive")
	}

	token, expiresAt, err := s.tokens.Issue(user.Email, s.tokens.TTL())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	return &LoginResult{
		Token:     token,
		TokenType: domain.TokenType,
		ExpiresAt: expiresAt,
		User:      *user,
	}, nil
}

// GetSelf returns the caller's own record.
func (s *AuthService) GetSelf(ctx context.Context, token string) (*domain.User, error) {
	return s.gate.Authenticate(ctx, token)
}

// ListUsers pages through all users. Admin only.
func (s *AuthService) ListUsers(ctx context.Context, token string, skip, limit int) ([]domain.User, error) {
	if _, err := s.gate.RequireAdmin(ctx, token); err != nil {
		return nil, err
	}

	if skip < 0 {
		return nil, apperrors.NewValidationError("skip must not be negative", map[string]any{"skip": skip})
	}
	switch {
	case limit < 0:
		return nil, apperrors.NewValidationError("limit must not be negative", map[string]any{"limit": limit})
	case limit == 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	users, err := s.users.List(ctx, skip, limit)
	if err != nil {
		return nil, s.storageFailure("list users", err)
	}
	return users, nil
}

// UpdateUserRole assigns role to the target user. Admin only.
func (s *AuthService) UpdateUserRole(ctx context.Context, token, targetID, role string) (*domain.User, error) {
	if _, err := s.gate.RequireAdmin(ctx, token); err != nil {
		return nil, err
	}

	newRole, ok := domain.ParseRole(role)
	if !ok {
		return nil, apperrors.NewInvalidRole(role)
	}

	target, err := s.findByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	target.Role = newRole
	if err := s.users.Update(ctx, target); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": targetID})
		}
		return nil, s.storageFailure("update user role", err)
	}
	return target, nil
}

// DeleteUser permanently removes the target user. Admin only; admins cannot delete themselves.
func (s *AuthService) DeleteUser(ctx context.Context, token, targetID string) error {
	admin, err := s.gate.RequireAdmin(ctx, token)
	if err != nil {
		return err
	}

	if _, err := s.findByID(ctx, targetID); err != nil {
		return err
	}
	if targetID == admin.ID {
		return apperrors.ErrSelfDeletion
	}

	if err := s.users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", map[string]any{"id": targetID})
		}
		return s.storageFailure("delete user", err)
	}
	return nil
}

// UpdateProfile changes the caller's display name and profile image.
// An empty image URL keeps the current one.
func (s *AuthService) UpdateProfile(ctx context.Context, token, name, profileImageURL string) (*domain.User, error) {
	user, err := s.gate.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	user.Name = name
	if url := strings.TrimSpace(profileImageURL); url != "" {
		user.ProfileImageURL = url
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, s.storageFailure("update profile", err)
	}
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	user, err := s.gate.Authenticate(ctx, token)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("user not found")
		}
		return s.storageFailure("update password", err)
	}
	return nil
}

// CreateUser lets an admin add an account with an explicit role.
// An empty role means pending.
func (s *AuthService) CreateUser(ctx context.Context, token string, in SignupInput, role string) (*domain.User, error) {
	if _, err := s.gate.RequireAdmin(ctx, token); err != nil {
		return nil, err
	}

	newRole := domain.RolePending
	if strings.TrimSpace(role) != "" {
		parsed, ok := domain.ParseRole(role)
		if !ok {
			return nil, apperrors.NewInvalidRole(role)
		}
		newRole = parsed
	}

	in, err := normalizeSignup(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.storageFailure("lookup user by email", err)
	}

	return s.createUser(ctx, in, newRole)
}

func (s *AuthService) createUser(ctx context.Context, in SignupInput, role domain.Role) (*domain.User, error) {
	user, err := s.newUser(in, role)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, s.createFailure(in.Email, err)
	}
	return user, nil
}

func (s *AuthService) newUser(in SignupInput, role domain.Role) (*domain.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.User{
		ID:              uuid.NewString(),
		Email:           in.Email,
		Name:            in.Name,
		PasswordHash:    hash,
		Role:            role,
		ProfileImageURL: in.ProfileImageURL,
		IsActive:        true,
	}, nil
}

func (s *AuthService) createFailure(email string, err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return apperrors.NewConflict("email already registered", map[string]any{"email": email})
	}
	return s.storageFailure("create user", err)
}

func (s *AuthService) findByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, s.storageFailure("lookup user by id", err)
	}
	return user, nil
}

func (s *AuthService) storageFailure(op string, err error) error {
	s.logger.Error("user directory failure", zap.String("op", op), zap.Error(err))
	return apperrors.NewPersistenceError(err)
}

func normalizeSignup(in SignupInput) (SignupInput, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.ProfileImageURL = strings.TrimSpace(in.ProfileImageURL)

	details := map[string]any{}
	if in.Email == "" {
		details["email"] = "required"
	} else if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		details["email"] = "invalid format"
	}
	if in.Name == "" {
		details["name"] = "required"
	}
	if problem := passwordProblem(in.Password); problem != "" {
		details["password"] = problem
	}
	if len(details) > 0 {
		return in, apperrors.NewValidationError("invalid signup payload", details)
	}

	if in.ProfileImageURL == "" {
		in.ProfileImageURL = domain.DefaultProfileImageURL
	}
	return in, nil
}

func validatePassword(password string) error {
	if problem := passwordProblem(password); problem != "" {
		return apperrors.NewValidationError("invalid password", map[string]any{"password": problem})
	}
	return nil
}

func passwordProblem(password string) string {
	switch {
	case password == "":
		return "required"
	case len(password) > auth.MaxPasswordBytes:
		return "must be at most 72 bytes"
	}
	return ""
}
