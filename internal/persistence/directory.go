package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/repository"
)

// Directory bundles the user repository with the handle backing it.
type Directory struct {
	Users  repository.UserRepository
	Driver string

	postgres *Postgres
	sqlite   *SQLite
}

// OpenDirectory connects the backend selected by DATABASE_URL and applies
// migrations when enabled.
func OpenDirectory(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Directory, error) {
	driver, err := cfg.Driver()
	if err != nil {
		return nil, err
	}

	switch driver {
	case config.DriverPostgres:
		pg, err := NewPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.RunMigrations {
			sqlDB := pg.SQLDB()
			err := RunMigrations(ctx, sqlDB, "postgres", logger)
			_ = sqlDB.Close()
			if err != nil {
				pg.Close()
				return nil, err
			}
		}
		return &Directory{Users: repository.NewPostgresUserRepository(pg.PoolHandle()), Driver: driver, postgres: pg}, nil

	case config.DriverSQLite:
		lite, err := OpenSQLite(ctx, cfg.SQLitePath(), logger)
		if err != nil {
			return nil, err
		}
		if cfg.RunMigrations {
			if err := RunMigrations(ctx, lite.DB, "sqlite", logger); err != nil {
				_ = lite.Close()
				return nil, err
			}
		}
		return &Directory{Users: repository.NewSQLiteUserRepository(lite.DB), Driver: driver, sqlite: lite}, nil

	default:
		logger.Warn("using in-memory user directory; data is lost on restart")
		return &Directory{Users: repository.NewMemoryUserRepository(), Driver: driver}, nil
	}
}

// Ping verifies the backing store is reachable.
func (d *Directory) Ping(ctx context.Context) error {
	switch {
	case d.postgres != nil:
		return d.postgres.Ping(ctx)
	case d.sqlite != nil:
		return d.sqlite.Ping(ctx)
	default:
		return nil
	}
}

// Close releases the backing store.
func (d *Directory) Close() {
	if d == nil {
		return
	}
	d.postgres.Close()
	_ = d.sqlite.Close()
}
