// Package testutil provides shared helpers for store tests.
// Postgres helpers skip automatically when TEST_DATABASE_URL is not set, so
// unit tests can run without a running database. SQLite and Redis helpers
// always run: they use a temp file and an in-process miniredis server.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/pkordes/nexttrip/backend/internal/repo"
	"github.com/pkordes/nexttrip/backend/migrations"
)

// NewPool returns a pgx pool on TEST_DATABASE_URL for PGStore tests. The
// kv_entries schema is expected to exist already (repo's TestMain applies
// it). The pool is closed when the test finishes.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewSQLDB returns a database/sql handle on TEST_DATABASE_URL, for driving
// goose directly. It is closed when the test finishes.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := openPostgres(requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// MustOpenSQLDB is NewSQLDB for TestMain, where there is no *testing.T.
// It panics on failure; the caller closes the handle.
func MustOpenSQLDB(dsn string) *sql.DB {
	db, err := openPostgres(dsn)
	if err != nil {
		panic("testutil.MustOpenSQLDB: " + err.Error())
	}
	return db
}

func openPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres test")
	}
	return dsn
}

// NewSQLite opens a migrated SQLite database in the test's temp directory.
// It is closed when the test finishes.
func NewSQLite(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := repo.OpenSQLite(ctx, filepath.Join(t.TempDir(), "nexttrip.db"))
	if err != nil {
		t.Fatalf("testutil.NewSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fsys, dialect, err := migrations.For("sqlite")
	if err != nil {
		t.Fatalf("testutil.NewSQLite: %v", err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		t.Fatalf("testutil.NewSQLite: goose provider: %v", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		t.Fatalf("testutil.NewSQLite: migrate: %v", err)
	}
	return db
}

// NewRedis starts an in-process miniredis server and returns a client
// connected to it. Both are shut down when the test finishes.
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}
