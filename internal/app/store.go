package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/pkordes/nexttrip/backend/internal/config"
	"github.com/pkordes/nexttrip/backend/internal/repo"
	"github.com/pkordes/nexttrip/backend/migrations"
)

// Backend is an opened store together with its health check and cleanup.
type Backend struct {
	Store repo.Store
	// Ping reports whether the backing service answers.
	Ping  func(ctx context.Context) error
	close func() error
}

// Close releases the backend's connections.
func (b Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// OpenStore connects to the store selected by cfg.StoreDriver. SQL stores
// are migrated to the latest schema before they are returned.
func OpenStore(ctx context.Context, cfg config.Config, log *slog.Logger) (Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return Backend{Store: repo.NewMemoryStore(), Ping: func(context.Context) error { return nil }}, nil

	case config.DriverSQLite:
		db, err := repo.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return Backend{}, fmt.Errorf("app.OpenStore: %w", err)
		}
		if _, err := migrate(ctx, db, config.DriverSQLite, log); err != nil {
			db.Close()
			return Backend{}, fmt.Errorf("app.OpenStore: %w", err)
		}
		log.InfoContext(ctx, "sqlite store ready", "path", cfg.SQLitePath)
		return Backend{Store: repo.NewSQLiteStore(db), Ping: db.PingContext, close: db.Close}, nil

	case config.DriverPostgres:
		// pgxpool.New does not open connections immediately; the ping does.
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return Backend{}, fmt.Errorf("app.OpenStore: create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return Backend{}, fmt.Errorf("app.OpenStore: connect: %w", err)
		}
		db := stdlib.OpenDBFromPool(pool)
		_, err = migrate(ctx, db, config.DriverPostgres, log)
		db.Close()
		if err != nil {
			pool.Close()
			return Backend{}, fmt.Errorf("app.OpenStore: %w", err)
		}
		log.InfoContext(ctx, "database connection established")
		return Backend{
			Store: repo.NewPGStore(pool),
			Ping:  pool.Ping,
			close: func() error { pool.Close(); return nil },
		}, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return Backend{}, fmt.Errorf("app.OpenStore: connect redis: %w", err)
		}
		log.InfoContext(ctx, "redis store ready", "addr", cfg.RedisAddr, "namespace", cfg.KeyPrefix)
		return Backend{
			Store: repo.NewRedisStore(client, cfg.KeyPrefix),
			Ping:  func(ctx context.Context) error { return client.Ping(ctx).Err() },
			close: client.Close,
		}, nil
	}
	return Backend{}, fmt.Errorf("app.OpenStore: unknown store driver %q", cfg.StoreDriver)
}

// Migrate applies pending migrations for the SQL store named by cfg and
// returns how many ran. Memory and Redis stores have no schema.
func Migrate(ctx context.Context, cfg config.Config, log *slog.Logger) (int, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := repo.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return 0, fmt.Errorf("app.Migrate: %w", err)
		}
		defer db.Close()
		return migrate(ctx, db, cfg.StoreDriver, log)
	case config.DriverPostgres:
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return 0, fmt.Errorf("app.Migrate: open: %w", err)
		}
		defer db.Close()
		return migrate(ctx, db, cfg.StoreDriver, log)
	}
	return 0, nil
}

func migrate(ctx context.Context, db *sql.DB, driver string, log *slog.Logger) (int, error) {
	fsys, dialect, err := migrations.For(driver)
	if err != nil {
		return 0, err
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrate: %w", err)
	}
	for _, r := range results {
		log.InfoContext(ctx, "migration applied", "driver", driver, "version", r.Source.Version)
	}
	return len(results), nil
}
