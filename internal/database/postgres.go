package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS series (
	key          TEXT PRIMARY KEY,
	retention_ms BIGINT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS series_points (
	key   TEXT NOT NULL REFERENCES series (key),
	ts_ms BIGINT NOT NULL,
	value NUMERIC NOT NULL,
	PRIMARY KEY (key, ts_ms)
);`

// PostgresSink stores series as rows in PostgreSQL. Retention is recorded per
// series but expired points are not pruned.
type PostgresSink struct {
	Pool *pgxpool.Pool
}

// NewPostgresSink connects to dsn and creates the schema.
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	sink := &PostgresSink{Pool: pool}
	if err := sink.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return sink, nil
}

// Migrate creates the tables if they do not exist.
func (s *PostgresSink) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// EnsureSeries registers a series. Existing series are left untouched.
func (s *PostgresSink) EnsureSeries(ctx context.Context, key string, retention time.Duration) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO series (key, retention_ms) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
		key, retention.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("ensure series %s: %w", key, err)
	}
	return nil
}

// Append writes a point. A point at an existing timestamp replaces it.
func (s *PostgresSink) Append(ctx context.Context, key string, ts time.Time, value decimal.Decimal) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO series_points (key, ts_ms, value) VALUES ($1, $2, $3)
		 ON CONFLICT (key, ts_ms) DO UPDATE SET value = EXCLUDED.value`,
		key, ts.UnixMilli(), value,
	)
	if err != nil {
		return fmt.Errorf("append %s: %w", key, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresSink) Close() error {
	s.Pool.Close()
	return nil
}
