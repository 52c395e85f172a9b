// Package storage selects the embedding table format from the table path.
package storage

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/sercha-assist/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/sercha-assist/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure Router implements the interface.
var _ driven.TableStore = (*Router)(nil)

// Router dispatches table reads and writes by file extension:
// .db, .sqlite and .sqlite3 go to SQLite, everything else is JSON.
type Router struct {
	json   driven.TableStore
	sqlite *sqlite.TableStore
}

// NewRouter creates a router over the JSON and SQLite table stores.
func NewRouter() *Router {
	return &Router{
		json:   jsonfile.NewTableStore(),
		sqlite: sqlite.NewTableStore(),
	}
}

// IsSQLite reports whether path names an SQLite table.
func IsSQLite(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	default:
		return false
	}
}

// Read loads the table at path.
func (r *Router) Read(ctx context.Context, path string) ([]domain.Chunk, error) {
	return r.pick(path).Read(ctx, path)
}

// Write replaces the table at path.
func (r *Router) Write(ctx context.Context, path string, chunks []domain.Chunk) error {
	return r.pick(path).Write(ctx, path, chunks)
}

// Close releases open SQLite databases.
func (r *Router) Close() error {
	return r.sqlite.Close()
}

func (r *Router) pick(path string) driven.TableStore {
	if IsSQLite(path) {
		return r.sqlite
	}
	return r.json
}
