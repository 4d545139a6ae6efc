package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

// Driver names a supported backing database.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Drivers lists the supported drivers.
var Drivers = []Driver{DriverSQLite, DriverPostgres}

// PostgreSQL SQLSTATE codes for constraint violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// dialect captures everything that differs between backing databases.
type dialect struct {
	driver    Driver
	sqlDriver string
	schema    string

	// pragmas run once after connecting. SQLite pragmas are per connection,
	// which is why the SQLite pool is limited to one connection.
	pragmas    []string
	singleConn bool

	// numbered rewrites ? placeholders to $1, $2, ...
	numbered bool

	fault func(error) Fault
}

var dialects = map[Driver]*dialect{
	DriverSQLite: {
		driver:    DriverSQLite,
		sqlDriver: "sqlite3",
		schema:    sqliteSchema,
		pragmas: []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA foreign_keys = ON",
		},
		singleConn: true,
		fault:      sqliteFault,
	},
	DriverPostgres: {
		driver:    DriverPostgres,
		sqlDriver: "pgx",
		schema:    postgresSchema,
		numbered:  true,
		fault:     postgresFault,
	},
}

func lookupDialect(d Driver) (*dialect, error) {
	dl, ok := dialects[d]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q: must be one of %v", d, Drivers)
	}
	return dl, nil
}

// rebind rewrites ? placeholders for dialects using numbered parameters.
func (d *dialect) rebind(query string) string {
	if !d.numbered {
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

// statements splits the embedded schema into individual statements.
func (d *dialect) statements() []string {
	var out []string
	for _, stmt := range strings.Split(d.schema, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// sqliteFault reduces a go-sqlite3 error to a Fault using extended result codes.
func sqliteFault(err error) Fault {
	if errors.Is(err, sql.ErrNoRows) {
		return FaultNotFound
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return FaultUnique
		case sqlite3.ErrConstraintForeignKey:
			return FaultForeignKey
		}
	}
	return FaultOther
}

// postgresFault reduces a pgx error to a Fault using SQLSTATE codes.
func postgresFault(err error) Fault {
	if errors.Is(err, sql.ErrNoRows) {
		return FaultNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return FaultUnique
		case pgForeignKeyViolation:
			return FaultForeignKey
		}
	}
	return FaultOther
}
