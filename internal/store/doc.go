// Package store provides the relational storage engine for lists and items.
//
// The store owns the lifecycle of both entities and enforces their integrity
// through the backing database itself:
//   - lists.name is UNIQUE
//   - items.list_id REFERENCES lists(id) ON DELETE CASCADE
//   - ids are generated by the database and never reused
//     (SQLite AUTOINCREMENT, PostgreSQL SERIAL)
//
// # Error Taxonomy
//
// Every failure leaving an operation is a *Error with one of four kinds:
//
//   - KindDuplicateName: a list with that name already exists
//   - KindNoSuchList: the referenced list does not exist
//   - KindNoSuchItem: the referenced item does not exist
//   - KindInfrastructure: anything else (driver, I/O, context)
//
// Raw driver errors are first reduced to a Fault by the dialect, then mapped
// to a Kind through a single table keyed by (Op, Fault). See Classify.
//
// # Dialects
//
//   - sqlite (github.com/mattn/go-sqlite3): WAL mode, synchronous=NORMAL,
//     busy_timeout=5000, foreign_keys=ON, a single pooled connection
//   - postgres (github.com/jackc/pgx/v5/stdlib): pooled connections,
//     SQLSTATE 23505/23503 for constraint faults
//
// Queries are written once with ? placeholders and rebound per dialect.
package store
