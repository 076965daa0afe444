package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/persistence/migrations"
)

// RunMigrations applies the embedded migrations for dialect ("postgres" or "sqlite").
func RunMigrations(ctx context.Context, db *sql.DB, dialect string, logger *zap.Logger) error {
	if db == nil {
		logger.Warn("no database handle available; skipping migrations")
		return nil
	}

	var gooseDialect goose.Dialect
	switch dialect {
	case "postgres":
		gooseDialect = goose.DialectPostgres
	case "sqlite":
		gooseDialect = goose.DialectSQLite3
	default:
		return fmt.Errorf("unsupported migration dialect %q", dialect)
	}

	dir, err := fs.Sub(migrations.FS, dialect)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	provider, err := goose.NewProvider(gooseDialect, db, dir)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, res := range results {
		logger.Info("applied migration", zap.String("file", res.Source.Path), zap.Duration("duration", res.Duration))
	}

	logger.Info("migrations applied", zap.String("dialect", dialect), zap.Int("count", len(results)))
	return nil
}
