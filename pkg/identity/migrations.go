package identity

import (
	"embed"
	"io/fs"
)

//go:embed migrations
var migrationsFS embed.FS

// Goose migrations for the users and roles tables, rooted per dialect.
var (
	PostgresMigrations = mustSub("migrations/postgres")
	SQLiteMigrations   = mustSub("migrations/sqlite")
)

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
