package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver for database/sql

	"github.com/pkordes/nexttrip/backend/internal/domain"
)

// OpenSQLite opens (creating if needed) the SQLite database file at path.
// A single connection is used so writes are serialised the way the browser
// serialised localStorage writes.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("repo.OpenSQLite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("repo.OpenSQLite: ping: %w", err)
	}
	return db, nil
}

// sqliteStore is the SQLite implementation of Store. It expects the
// kv_entries table from the sqlite migrations.
type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore constructs a Store over an open database/sql handle.
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db, now: time.Now}
}

func (s *sqliteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("repo.sqliteStore.Get: %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("repo.sqliteStore.Get: %w", err)
	}
	return []byte(value), nil
}

func (s *sqliteStore) Put(ctx context.Context, key string, value []byte) error {
	const q = `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value, updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, q, key, string(value), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("repo.sqliteStore.Put: %w", err)
	}
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	q := `DELETE FROM kv_entries WHERE key IN (` + placeholders + `)`
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("repo.sqliteStore.Delete: %w", err)
	}
	return nil
}
