package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Schema version tracking (SQLite user_version):
// 0 - empty database
// 1 - lists and items with cascading foreign key
const currentSchemaVersion = 1

// defaultMaxOpenConns matches the pool size of the original deployment.
const defaultMaxOpenConns = 5

// Options configures Open.
type Options struct {
	// Driver selects the dialect. Defaults to DriverSQLite.
	Driver Driver

	// DSN is a file path (or ":memory:") for SQLite and a connection
	// string for PostgreSQL.
	DSN string

	// MaxOpenConns bounds the pool for PostgreSQL. SQLite always uses one
	// connection. Zero means defaultMaxOpenConns.
	MaxOpenConns int
}

// Store is the storage engine for lists and items.
// It is safe for concurrent use; the database pool serializes access to
// physical connections, the database enforces row-level constraints.
type Store struct {
	db      *sql.DB
	dialect *dialect
}

// Open connects to the database described by opts, applies pragmas and
// creates the schema if absent.
//
// This function is idempotent - safe to call multiple times on the same
// database.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Driver == "" {
		opts.Driver = DriverSQLite
	}
	dl, err := lookupDialect(opts.Driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, fmt.Errorf("open %s store: dsn is required", opts.Driver)
	}

	db, err := sql.Open(dl.sqlDriver, opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dl.singleConn {
		// SQLite only supports one writer at a time and pragmas are per
		// connection, so keep exactly one connection alive.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		n := opts.MaxOpenConns
		if n <= 0 {
			n = defaultMaxOpenConns
		}
		db.SetMaxOpenConns(n)
		db.SetMaxIdleConns(n)
	}

	s := &Store{db: db, dialect: dl}

	if err := s.applyPragmas(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := s.applySchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return s, nil
}

// OpenSQLite opens a SQLite store at path.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	return Open(ctx, Options{Driver: DriverSQLite, DSN: path})
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver reports which dialect the store speaks.
func (s *Store) Driver() Driver {
	return s.dialect.driver
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", s.dialect.driver, err)
	}
	return nil
}

func (s *Store) applyPragmas(ctx context.Context) error {
	for _, pragma := range s.dialect.pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and records the version.
// This function is idempotent.
func (s *Store) applySchema(ctx context.Context) error {
	for _, stmt := range s.dialect.statements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}

	if s.dialect.driver != DriverSQLite {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// schemaVersion reads the recorded SQLite schema version.
// Used for testing.
func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
