package driven

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// TableStore persists the embedding table.
type TableStore interface {
	// Read loads every chunk stored at path, in stored order.
	// Returns domain.ErrStoreNotFound if path does not exist and
	// domain.ErrCorruptTable if it cannot be parsed.
	Read(ctx context.Context, path string) ([]domain.Chunk, error)

	// Write replaces the table at path. Readers observe either the old
	// or the new table, never a partial one.
	Write(ctx context.Context, path string, chunks []domain.Chunk) error
}
