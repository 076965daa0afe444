package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/spec-kit/auth-service/internal/domain"
)

type sqliteUserRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteUserRepository returns a SQLite-backed implementation.
func NewSQLiteUserRepository(db *sql.DB) UserRepository {
	return &sqliteUserRepository{db: db, now: time.Now}
}

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func (r *sqliteUserRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, email, name, password_hash, role, profile_image_url, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := r.now().UTC().Truncate(time.Millisecond)
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		string(user.Role),
		user.ProfileImageURL,
		user.IsActive,
		toMillis(now),
		toMillis(now),
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// Register relies on SQLite running each statement under the database write
// lock, so the EXISTS check and the insert cannot interleave with another writer.
func (r *sqliteUserRepository) Register(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, email, name, password_hash, role, profile_image_url, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?,
                CASE WHEN EXISTS (SELECT 1 FROM users) THEN 'pending' ELSE 'admin' END,
                ?, ?, ?, ?)
        RETURNING role`

	now := r.now().UTC().Truncate(time.Millisecond)
	var role string
	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.ProfileImageURL,
		user.IsActive,
		toMillis(now),
		toMillis(now),
	).Scan(&role)
	if err != nil {
		return mapSQLiteError(err)
	}
	user.Role = domain.Role(role)
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *sqliteUserRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET email=?, name=?, password_hash=?, role=?, profile_image_url=?, is_active=?, updated_at=?
        WHERE id=?`

	now := r.now().UTC().Truncate(time.Millisecond)
	res, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.Name,
		user.PasswordHash,
		string(user.Role),
		user.ProfileImageURL,
		user.IsActive,
		toMillis(now),
		user.ID,
	)
	if err != nil {
		return mapSQLiteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	user.UpdatedAt = now
	return nil
}

func (r *sqliteUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=?`
	return scanSQLiteUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=?`
	return scanSQLiteUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *sqliteUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteUserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *sqliteUserRepository) List(ctx context.Context, skip, limit int) ([]domain.User, error) {
	if limit <= 0 {
		return []domain.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, rowid LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, max(skip, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, min(limit, listPrealloc))
	for rows.Next() {
		user, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteUser(row rowScanner) (*domain.User, error) {
	var (
		user      domain.User
		role      string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&role,
		&user.ProfileImageURL,
		&user.IsActive,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, mapSQLiteError(err)
	}
	user.Role = domain.Role(role)
	if !user.Role.Valid() {
		return nil, fmt.Errorf("user %s has unknown stored role %q", user.ID, role)
	}
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	return &user, nil
}

func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return ErrConflict
		}
	}
	return err
}
