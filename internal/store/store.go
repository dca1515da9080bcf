// Package store is the relational store for cities, products, current prices
// and the append-only price history. It runs on Postgres (pgx) in production
// and on SQLite (modernc) for local runs and tests; queries are written in the
// subset both dialects accept.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrNotFound is returned when a looked-up row does not exist
var ErrNotFound = errors.New("store: not found")

var (
	//go:embed schema_postgres.sql
	schemaPostgres string
	//go:embed schema_sqlite.sql
	schemaSQLite string
)

// Store wraps the database handle
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database named by driver and dsn.
// driver is "postgres" (dsn is a postgres:// URL) or "sqlite" (dsn is a file
// path or ":memory:").
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)

	switch driver {
	case DriverPostgres:
		db, err = sql.Open("pgx", dsn)
	case DriverSQLite:
		db, err = sql.Open("sqlite", dsn)
		if err == nil {
			// One connection: ":memory:" is per connection, and a single writer
			// avoids SQLITE_BUSY on files.
			db.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	s := &Store{db: db, driver: driver}
	if driver == DriverSQLite {
		if err := s.applyPragmas(ctx, dsn == ":memory:"); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return s, nil
}

// OpenMemory opens a migrated in-memory SQLite store for tests.
// The store is closed by t.Cleanup.
func OpenMemory(t testing.TB) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("store.OpenMemory: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		t.Fatalf("store.OpenMemory: migrate: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func (s *Store) applyPragmas(ctx context.Context, memory bool) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 10000",
	}
	if !memory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("store: %s: %w", p, err)
		}
	}
	return nil
}

// Migrate creates the schema if it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == DriverPostgres {
		schema = schemaPostgres
	}

	for _, stmt := range strings.Split(schema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

// Driver returns the driver the store was opened with
func (s *Store) Driver() string {
	return s.driver
}

// Ping verifies the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

const dateLayout = "2006-01-02"

// Day truncates t to its calendar date in UTC
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// dateColumn scans a DATE (Postgres) or TEXT (SQLite) date column.
type dateColumn struct {
	t *time.Time
}

func (d dateColumn) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d.t = Day(v)
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	case nil:
		*d.t = time.Time{}
		return nil
	default:
		return fmt.Errorf("store: cannot scan %T into a date", src)
	}
}

func (d dateColumn) parse(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("store: parse date %q: %w", s, err)
	}
	*d.t = t
	return nil
}
