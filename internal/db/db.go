// Package db provides PostgreSQL storage for the HR admin API.
package db

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConflict is returned when a write violates a unique or foreign key
// constraint.
var ErrConflict = errors.New("conflicts with existing record")

// ErrNotFound is returned by updates that matched no row.
var ErrNotFound = errors.New("record not found")

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// isNoRows reports whether err means the query matched nothing.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// constraintError maps unique (23505) and foreign key (23503) violations to
// ErrConflict and wraps everything else with msg.
func constraintError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "23503") {
		return errors.Wrapf(ErrConflict, "%s: %s", msg, pgErr.ConstraintName)
	}
	return errors.Wrap(err, msg)
}

// jsonb marshals v for a JSONB column. A nil slice is stored as empty.
func jsonb(v any, empty string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal jsonb value")
	}
	if string(b) == "null" {
		return []byte(empty), nil
	}
	return b, nil
}

// unjsonb decodes a JSONB column into v. Empty input leaves v untouched.
func unjsonb(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.Wrap(err, "failed to unmarshal jsonb value")
	}
	return nil
}
