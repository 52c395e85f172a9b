// Package sqlite stores embedding tables in SQLite databases.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Each table path is its own database file holding a single
// chunks table.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Atomicity
//
// A table write deletes every row and inserts the new ones in one
// transaction, so readers see either the old table or the new one.
package sqlite
