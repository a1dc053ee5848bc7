package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Dialect names the SQL flavour behind a connection
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB is a connection pool plus the dialect its queries must be bound for.
// Repositories write queries with '?' placeholders and pass them through Rebind.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// NewPostgresConnection opens and verifies a lib/pq connection pool
func NewPostgresConnection(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &DB{DB: db, Dialect: Postgres}, nil
}

// NewSQLiteConnection opens an embedded SQLite database. SQLite allows a single
// writer, and every ":memory:" connection is a separate database, so the pool
// is pinned to one connection.
func NewSQLiteConnection(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
	}

	return &DB{DB: db, Dialect: SQLite}, nil
}

// Open connects using the named driver ("postgres" or "sqlite")
func Open(driver, url string) (*DB, error) {
	switch Dialect(driver) {
	case Postgres:
		return NewPostgresConnection(url)
	case SQLite:
		return NewSQLiteConnection(url)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Rebind rewrites '?' placeholders into the connection's dialect
func (db *DB) Rebind(query string) string {
	return Rebind(db.Dialect, query)
}

// Rebind rewrites '?' placeholders to $1..$n for Postgres and leaves other
// dialects untouched.
func Rebind(d Dialect, query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", Translate(err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", Translate(err))
	}
	return nil
}
