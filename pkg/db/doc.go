// Package db opens the databases that back identity lookups.
//
// PostgreSQL goes through a pgx pool ([Connect]); single-node deployments
// use an SQLite file through modernc.org/sqlite ([OpenSQLite]). Both run
// goose migrations via [Migrate] / [MigratePool] and expose readiness
// probes and shutdown hooks for the app.
//
//	conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
//	if err != nil {
//		return err
//	}
//	if err := db.Migrate(ctx, conn, db.DialectSQLite, identity.SQLiteMigrations, cfg.MigrationsTable, log); err != nil {
//		return err
//	}
package db
