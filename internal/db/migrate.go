package db

import (
	"context"
	"embed"
	"path"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, in filename order, each in its own transaction. It
// returns how many were applied.
func (db *DB) Migrate(ctx context.Context, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	_, err := db.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		return 0, errors.Wrap(err, "create schema_migrations")
	}

	files, err := migrationFiles()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, filename := range files {
		version := strings.SplitN(filename, "_", 2)[0]

		var exists bool
		err := db.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&exists)
		if err != nil {
			return applied, errors.Wrapf(err, "check %s", filename)
		}
		if exists {
			logger.Debug("skipping migration", zap.String("migration", filename))
			continue
		}

		sqlBytes, err := migrations.ReadFile(path.Join("migrations", filename))
		if err != nil {
			return applied, errors.Wrapf(err, "read %s", filename)
		}

		logger.Info("applying migration", zap.String("migration", filename), zap.String("version", version))

		tx, err := db.pool.Begin(ctx)
		if err != nil {
			return applied, errors.Wrapf(err, "begin tx for %s", filename)
		}
		if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback(ctx)
			return applied, errors.Wrapf(err, "execute %s", filename)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			_ = tx.Rollback(ctx)
			return applied, errors.Wrapf(err, "record %s", filename)
		}
		if err := tx.Commit(ctx); err != nil {
			return applied, errors.Wrapf(err, "commit %s", filename)
		}
		applied++
	}

	logger.Info("migrations complete", zap.Int("applied", applied), zap.Int("total", len(files)))
	return applied, nil
}

// migrationFiles lists the embedded .sql files in apply order.
func migrationFiles() ([]string, error) {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
