package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgStore is the Postgres implementation of Store, backed by the
// kv_entries table created by the goose migrations.
type pgStore struct {
	db db
}

// NewPGStore constructs a Store backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewPGStore(db db) Store {
	return &pgStore{db: db}
}

// Get reads the JSON document stored under key.
func (s *pgStore) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT value FROM kv_entries WHERE key = @key`

	var value []byte
	err := s.db.QueryRow(ctx, q, pgx.NamedArgs{"key": key}).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repo.pgStore.Get: %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("repo.pgStore.Get: %w", err)
	}
	return value, nil
}

// Put upserts the document under key and bumps updated_at.
func (s *pgStore) Put(ctx context.Context, key string, value []byte) error {
	const q = `
		INSERT INTO kv_entries (key, value)
		VALUES (@key, @value)
		ON CONFLICT (key) DO UPDATE
		SET value      = EXCLUDED.value,
		    updated_at = now()`

	// jsonb accepts the raw document as text.
	_, err := s.db.Exec(ctx, q, pgx.NamedArgs{"key": key, "value": string(value)})
	if err != nil {
		return fmt.Errorf("repo.pgStore.Put: %w", err)
	}
	return nil
}

// Delete removes all given keys in one statement.
func (s *pgStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	const q = `DELETE FROM kv_entries WHERE key = ANY(@keys)`

	if _, err := s.db.Exec(ctx, q, pgx.NamedArgs{"keys": keys}); err != nil {
		return fmt.Errorf("repo.pgStore.Delete: %w", err)
	}
	return nil
}
