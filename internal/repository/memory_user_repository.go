package repository

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/auth-service/internal/domain"
)

// MemoryUserRepository keeps users in process memory. Email uniqueness is
// enforced under the same lock as the insert.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
	order   []string
	now     func() time.Time
}

// NewMemoryUserRepository returns an empty in-memory directory.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(user)
}

func (r *MemoryUserRepository) Register(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	role := domain.RolePending
	if len(r.byID) == 0 {
		role = domain.RoleAdmin
	}
	previous := user.Role
	user.Role = role
	if err := r.insertLocked(user); err != nil {
		user.Role = previous
		return err
	}
	return nil
}

func (r *MemoryUserRepository) insertLocked(user *domain.User) error {
	if _, exists := r.byEmail[user.Email]; exists {
		return ErrConflict
	}
	if _, exists := r.byID[user.ID]; exists {
		return ErrConflict
	}

	now := r.now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	r.order = append(r.order, user.ID)
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[user.ID]
	if !ok {
		return ErrNotFound
	}
	if user.Email != current.Email {
		if _, taken := r.byEmail[user.Email]; taken {
			return ErrConflict
		}
		delete(r.byEmail, current.Email)
		r.byEmail[user.Email] = user.ID
	}

	user.CreatedAt = current.CreatedAt
	user.UpdatedAt = r.now().UTC()
	r.byID[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	user := r.byID[id]
	return &user, nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, user.Email)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryUserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

func (r *MemoryUserRepository) List(_ context.Context, skip, limit int) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	skip = max(skip, 0)
	if skip >= len(r.order) || limit <= 0 {
		return []domain.User{}, nil
	}
	end := skip + limit
	if end > len(r.order) {
		end = len(r.order)
	}
	users := make([]domain.User, 0, end-skip)
	for _, id := range r.order[skip:end] {
		users = append(users, r.byID[id])
	}
	return users, nil
}
