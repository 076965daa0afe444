package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/auth-service/internal/domain"
)

const pgUniqueViolation = "23505"

// registerLockKey serializes signups across service instances so the
// empty-directory check and the insert see the same state.
const registerLockKey int64 = 0x61757468 // "auth"

const userColumns = `id, email, name, password_hash, role, profile_image_url, is_active, created_at, updated_at`

type postgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository returns a Postgres-backed implementation.
func NewPostgresUserRepository(pool *pgxpool.Pool) UserRepository {
	return &postgresUserRepository{pool: pool}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, email, name, password_hash, role, profile_image_url, is_active)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		string(user.Role),
		user.ProfileImageURL,
		user.IsActive,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return mapPostgresError(err)
}

func (r *postgresUserRepository) Register(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, email, name, password_hash, role, profile_image_url, is_active)
        VALUES ($1, $2, $3, $4,
                CASE WHEN EXISTS (SELECT 1 FROM users) THEN 'pending' ELSE 'admin' END,
                $5, $6)
        RETURNING role, created_at, updated_at`

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, registerLockKey); err != nil {
			return err
		}
		var role string
		err := tx.QueryRow(ctx, query,
			user.ID,
			user.Email,
			user.Name,
			user.PasswordHash,
			user.ProfileImageURL,
			user.IsActive,
		).Scan(&role, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return mapPostgresError(err)
		}
		user.Role = domain.Role(role)
		return nil
	})
}

func (r *postgresUserRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET email=$1, name=$2, password_hash=$3, role=$4, profile_image_url=$5, is_active=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Email,
		user.Name,
		user.PasswordHash,
		string(user.Role),
		user.ProfileImageURL,
		user.IsActive,
		user.ID,
	).Scan(&user.UpdatedAt)
	return mapPostgresError(err)
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanPostgresUser(r.pool.QueryRow(ctx, query, id))
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return scanPostgresUser(r.pool.QueryRow(ctx, query, email))
}

func (r *postgresUserRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresUserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *postgresUserRepository) List(ctx context.Context, skip, limit int) ([]domain.User, error) {
	if limit <= 0 {
		return []domain.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id OFFSET $1 LIMIT $2`

	rows, err := r.pool.Query(ctx, query, max(skip, 0), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, min(limit, listPrealloc))
	for rows.Next() {
		user, err := scanPostgresUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func scanPostgresUser(row pgx.Row) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&role,
		&user.ProfileImageURL,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, mapPostgresError(err)
	}
	user.Role = domain.Role(role)
	if !user.Role.Valid() {
		return nil, fmt.Errorf("user %s has unknown stored role %q", user.ID, role)
	}
	return &user, nil
}

func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	return err
}
