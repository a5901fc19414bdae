// Package migrations embeds the SQL migration files so they can be used
// by the goose programmatic API in tests, the CLI, and server bootstrap.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Postgres holds the migrations for the Postgres store.
var Postgres = mustSub("postgres")

// SQLite holds the migrations for the SQLite store.
var SQLite = mustSub("sqlite")

// For returns the migration set and goose dialect for a store driver name
// ("postgres" or "sqlite").
func For(driver string) (fs.FS, goose.Dialect, error) {
	switch driver {
	case "postgres":
		return Postgres, goose.DialectPostgres, nil
	case "sqlite":
		return SQLite, goose.DialectSQLite3, nil
	}
	return nil, "", fmt.Errorf("migrations.For: no migrations for driver %q", driver)
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		panic("migrations: " + err.Error())
	}
	return sub
}
