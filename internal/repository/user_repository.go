package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/auth-service/internal/domain"
)

// listPrealloc caps the slice capacity reserved for a page before rows arrive.
const listPrealloc = 128

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrConflict is returned when a write violates the unique email constraint.
	ErrConflict = errors.New("user email already exists")
)

// UserRepository defines persistence access for user records.
//
// Register inserts a self-service signup. The stored role is admin when the
// directory is empty and pending otherwise; that decision and the insert are
// atomic, and user.Role is set to the stored value.
//
// List returns users in store-natural order (creation order for the bundled
// implementations); callers must not rely on it for correctness. A
// non-positive limit yields an empty page.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Register(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, skip, limit int) ([]domain.User, error)
}
