package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure TableStore implements the interface.
var _ driven.TableStore = (*TableStore)(nil)

// TableStore is an in-memory implementation of driven.TableStore for testing.
// Tables are keyed by path and copied on the way in and out.
type TableStore struct {
	mu       sync.RWMutex
	tables   map[string][]domain.Chunk
	reads    int
	writeErr error
}

// NewTableStore creates a new in-memory table store.
func NewTableStore() *TableStore {
	return &TableStore{
		tables: make(map[string][]domain.Chunk),
	}
}

// Read returns a copy of the table at path.
func (s *TableStore) Read(_ context.Context, path string) ([]domain.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	chunks, ok := s.tables[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreNotFound, path)
	}
	return copyChunks(chunks), nil
}

// Write replaces the table at path.
func (s *TableStore) Write(_ context.Context, path string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.tables[path] = copyChunks(chunks)
	return nil
}

// FailWrites makes every subsequent Write return err. Nil restores writes.
func (s *TableStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// Reads returns how many times Read was called.
func (s *TableStore) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

func copyChunks(src []domain.Chunk) []domain.Chunk {
	dst := make([]domain.Chunk, len(src))
	for i, c := range src {
		c.Embedding = append([]float64(nil), c.Embedding...)
		dst[i] = c
	}
	return dst
}
