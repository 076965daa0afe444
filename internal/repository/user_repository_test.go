package repository_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/persistence"
	"github.com/spec-kit/auth-service/internal/repository"
)

// backends returns a fresh, empty repository per supported store.
// Postgres runs only when TEST_POSTGRES_URL points at a disposable database.
func backends(t *testing.T) map[string]func(t *testing.T) repository.UserRepository {
	t.Helper()
	out := map[string]func(t *testing.T) repository.UserRepository{
		"memory": func(t *testing.T) repository.UserRepository {
			return repository.NewMemoryUserRepository()
		},
		"sqlite": func(t *testing.T) repository.UserRepository {
			ctx := context.Background()
			lite, err := persistence.OpenSQLite(ctx, filepath.Join(t.TempDir(), "auth.db"), zap.NewNop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = lite.Close() })
			require.NoError(t, persistence.RunMigrations(ctx, lite.DB, "sqlite", zap.NewNop()))
			return repository.NewSQLiteUserRepository(lite.DB)
		},
	}
	if url := os.Getenv("TEST_POSTGRES_URL"); url != "" {
		out["postgres"] = func(t *testing.T) repository.UserRepository {
			ctx := context.Background()
			dir, err := persistence.OpenDirectory(ctx, config.DatabaseConfig{URL: url, RunMigrations: true}, zap.NewNop())
			require.NoError(t, err)
			t.Cleanup(dir.Close)
			pg := dir.Users
			users, err := pg.List(ctx, 0, 10000)
			require.NoError(t, err)
			for _, u := range users {
				require.NoError(t, pg.Delete(ctx, u.ID))
			}
			return pg
		}
	}
	return out
}

func newUser(id, email string) *domain.User {
	return &domain.User{
		ID:              id,
		Email:           email,
		Name:            "Name " + id,
		PasswordHash:    "hash-" + id,
		Role:            domain.RolePending,
		ProfileImageURL: domain.DefaultProfileImageURL,
		IsActive:        true,
	}
}

func TestUserRepositoryContract(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("create and lookup", func(t *testing.T) {
				ctx := context.Background()
				repo := open(t)

				user := newUser("id-1", "a@x.com")
				require.NoError(t, repo.Create(ctx, user))
				require.False(t, user.CreatedAt.IsZero())

				byEmail, err := repo.GetByEmail(ctx, "a@x.com")
				require.NoError(t, err)
				require.Equal(t, "id-1", byEmail.ID)
				require.Equal(t, domain.RolePending, byEmail.Role)
				require.Equal(t, "hash-id-1", byEmail.PasswordHash)
				require.True(t, byEmail.IsActive)

				byID, err := repo.GetByID(ctx, "id-1")
				require.NoError(t, err)
				require.Equal(t, "a@x.com", byID.Email)

				_, err = repo.GetByEmail(ctx, "A@x.com")
				require.ErrorIs(t, err, repository.ErrNotFound)
				_, err = repo.GetByID(ctx, "missing")
				require.ErrorIs(t, err, repository.ErrNotFound)
			})

			t.Run("duplicate email conflicts", func(t *testing.T) {
				ctx := context.Background()
				repo := open(t)

				require.NoError(t, repo.Create(ctx, newUser("id-1", "a@x.com")))
				err := repo.Create(ctx, newUser("id-2", "a@x.com"))
				require.ErrorIs(t, err, repository.ErrConflict)

				count, err := repo.Count(ctx)
				require.NoError(t, err)
				require.Equal(t, int64(1), count)
			})

			t.Run("update", func(t *testing.T) {
				ctx := context.Background()
				repo := open(t)

				user := newUser("id-1", "a@x.com")
				require.NoError(t, repo.Create(ctx, user))
				require.NoError(t, repo.Create(ctx, newUser("id-2", "b@x.com")))

				user.Role = domain.RoleUser
				user.Name = "Renamed"
				require.NoError(t, repo.Update(ctx, user))

				got, err := repo.GetByID(ctx, "id-1")
				require.NoError(t, err)
				require.Equal(t, domain.RoleUser, got.Role)
				require.Equal(t, "Renamed", got.Name)

				user.Email = "b@x.com"
				require.ErrorIs(t, repo.Update(ctx, user), repository.ErrConflict)

				require.ErrorIs(t, repo.Update(ctx, newUser("ghost", "ghost@x.com")), repository.ErrNotFound)
			})

			t.Run("delete", func(t *testing.T) {
				ctx := context.Background()
				repo := open(t)

				require.NoError(t, repo.Create(ctx, newUser("id-1", "a@x.com")))
				require.NoError(t, repo.Delete(ctx, "id-1"))
				require.ErrorIs(t, repo.Delete(ctx, "id-1"), repository.ErrNotFound)

				_, err := repo.GetByEmail(ctx, "a@x.com")
				require.ErrorIs(t, err, repository.ErrNotFound)

				// The email is free again after deletion.
				require.NoError(t, repo.Create(ctx, newUser("id-2", "a@x.com")))
			})

			t.Run("count and list", func(t *testing.T) {
				ctx := context.Background()
				repo := open(t)

				count, err := repo.Count(ctx)
				require.NoError(t, err)
				require.Zero(t, count)

				for i := 0; i < 5; i++ {
					require.NoError(t, repo.Create(ctx, newUser(fmt.Sprintf("id-%d", i), fmt.Sprintf("u%d@x.com", i))))
				}

				count, err = repo.Count(ctx)
				require.NoError(t, err)
				require.Equal(t, int64(5), count)

				all, err := repo.List(ctx, 0, 100)
				require.NoError(t, err)
				require.Len(t, all, 5)

				page, err := repo.List(ctx, 3, 10)
				require.NoError(t, err)
				require.Len(t, page, 2)

				page, err = repo.List(ctx, 1, 2)
				require.NoError(t, err)
				require.Len(t, page, 2)

				page, err = repo.List(ctx, 10, 10)
				require.NoError(t, err)
				require.Empty(t, page)

				page, err = repo.List(ctx, 0, 0)
				require.NoError(t, err)
				require.Empty(t, page)

				page, err = repo.List(ctx, 0, -1)
				require.NoError(t, err)
				require.Empty(t, page)

				page, err = repo.List(ctx, -3, 2)
				require.NoError(t, err)
				require.Len(t, page, 2)
			})

			t.Run("register assigns first admin then pending", func(t *testing.T) {
				ctx := context.Background()
				repo := open(t)

				first := newUser("id-1", "a@x.com")
				first.Role = domain.RoleUser
				require.NoError(t, repo.Register(ctx, first))
				require.Equal(t, domain.RoleAdmin, first.Role)
				require.False(t, first.CreatedAt.IsZero())

				second := newUser("id-2", "b@x.com")
				require.NoError(t, repo.Register(ctx, second))
				require.Equal(t, domain.RolePending, second.Role)

				stored, err := repo.GetByID(ctx, "id-1")
				require.NoError(t, err)
				require.Equal(t, domain.RoleAdmin, stored.Role)

				require.ErrorIs(t, repo.Register(ctx, newUser("id-3", "a@x.com")), repository.ErrConflict)
			})

			t.Run("concurrent registers elect one admin", func(t *testing.T) {
				ctx := context.Background()
				repo := open(t)

				const workers = 8
				var wg sync.WaitGroup
				for i := 0; i < workers; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						if err := repo.Register(ctx, newUser(fmt.Sprintf("id-%d", i), fmt.Sprintf("u%d@x.com", i))); err != nil {
							t.Errorf("register %d: %v", i, err)
						}
					}(i)
				}
				wg.Wait()

				users, err := repo.List(ctx, 0, 100)
				require.NoError(t, err)
				require.Len(t, users, workers)
				admins := 0
				for _, u := range users {
					if u.IsAdmin() {
						admins++
					} else {
						require.Equal(t, domain.RolePending, u.Role)
					}
				}
				require.Equal(t, 1, admins)
			})

			t.Run("concurrent creates with same email", func(t *testing.T) {
				ctx := context.Background()
				repo := open(t)

				const workers = 8
				var (
					wg        sync.WaitGroup
					mu        sync.Mutex
					succeeded int
					conflicts int
				)
				for i := 0; i < workers; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						err := repo.Create(ctx, newUser(fmt.Sprintf("id-%d", i), "race@x.com"))
						mu.Lock()
						defer mu.Unlock()
						switch {
						case err == nil:
							succeeded++
						case err == repository.ErrConflict:
							conflicts++
						default:
							t.Errorf("unexpected error: %v", err)
						}
					}(i)
				}
				wg.Wait()

				require.Equal(t, 1, succeeded)
				require.Equal(t, workers-1, conflicts)
			})
		})
	}
}
