package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationFS embed.FS

// Migrate brings the schema behind db up to date. Postgres goes through
// golang-migrate on a dedicated connection, because the migrate driver closes
// the pool it is handed. SQLite runs the embedded scripts directly; they are
// idempotent.
func Migrate(ctx context.Context, db *DB, databaseURL string, logger *slog.Logger) error {
	switch db.Dialect {
	case Postgres:
		return MigratePostgres(databaseURL, logger)
	case SQLite:
		return MigrateSQLite(ctx, db)
	default:
		return fmt.Errorf("unsupported dialect %q", db.Dialect)
	}
}

// MigratePostgres applies every pending up migration
func MigratePostgres(databaseURL string, logger *slog.Logger) error {
	migrationDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	if err := migrationDB.Ping(); err != nil {
		migrationDB.Close()
		return fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	driver, err := migratepostgres.WithInstance(migrationDB, &migratepostgres.Config{})
	if err != nil {
		migrationDB.Close()
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations/postgres")
	if err != nil {
		driver.Close()
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		source.Close()
		driver.Close()
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	upErr := m.Up()

	sourceErr, dbErr := m.Close()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}
	if sourceErr != nil {
		return fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migration database error: %w", dbErr)
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("no new migrations to apply")
	} else {
		logger.Info("database migrations applied")
	}
	return nil
}

// MigrateSQLite executes the embedded SQLite up scripts in version order
func MigrateSQLite(ctx context.Context, db *DB) error {
	const dir = "migrations/sqlite"

	files, err := fs.Glob(migrationFS, path.Join(dir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to list sqlite migrations: %w", err)
	}
	sort.Strings(files)

	for _, name := range files {
		script, err := migrationFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		for _, stmt := range splitStatements(string(script)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply %s: %w", path.Base(name), err)
			}
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var stmts []string
	for _, part := range strings.Split(script, ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
