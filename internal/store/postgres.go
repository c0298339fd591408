package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS ledger_documents (
	key        text PRIMARY KEY,
	body       jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
)`

const upsertDocument = `
INSERT INTO ledger_documents (key, body, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`

// PostgresAdapter stores documents in a jsonb column.
type PostgresAdapter struct {
	pool *pgxpool.Pool
}

// NewPostgresAdapter connects to the database, verifies the connection and
// creates the documents table if it is missing.
func NewPostgresAdapter(ctx context.Context, dsn string) (*PostgresAdapter, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	a := &PostgresAdapter{pool: pool}
	if err := a.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return a, nil
}

// EnsureSchema creates the documents table.
func (a *PostgresAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.pool.Exec(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("failed to create ledger_documents: %w", err)
	}
	return nil
}

// Load implements Adapter.
func (a *PostgresAdapter) Load(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := a.pool.QueryRow(ctx, `SELECT body FROM ledger_documents WHERE key = $1`, key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", key, err)
	}
	return body, nil
}

// Save implements Adapter.
func (a *PostgresAdapter) Save(ctx context.Context, key string, data []byte) error {
	if _, err := a.pool.Exec(ctx, upsertDocument, key, string(data)); err != nil {
		return fmt.Errorf("failed to save document %s: %w", key, err)
	}
	return nil
}

// Revision implements Revisioner using updated_at.
func (a *PostgresAdapter) Revision(ctx context.Context, key string) (string, error) {
	var micros int64
	err := a.pool.QueryRow(ctx,
		`SELECT (extract(epoch FROM updated_at) * 1000000)::bigint FROM ledger_documents WHERE key = $1`, key,
	).Scan(&micros)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read revision of %s: %w", key, err)
	}
	return strconv.FormatInt(micros, 10), nil
}

// Close releases the connection pool.
func (a *PostgresAdapter) Close() {
	a.pool.Close()
}

var (
	_ Adapter    = (*PostgresAdapter)(nil)
	_ Revisioner = (*PostgresAdapter)(nil)
)
