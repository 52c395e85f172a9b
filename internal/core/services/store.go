package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/logger"
)

// EmbeddingStore is the in-memory corpus backed by one persisted table.
// The table is read lazily on first Load and cached until the path
// changes, the table is replaced, or Invalidate is called.
//
// Load hands out the cached slice itself. The cache is only ever
// replaced, never mutated, so a returned slice is a stable snapshot
// that concurrent reindexing cannot disturb. Callers must not modify it.
type EmbeddingStore struct {
	table driven.TableStore

	// writeMu serialises Replace so the cache matches the last table written.
	writeMu sync.Mutex

	mu     sync.RWMutex
	path   string
	chunks []domain.Chunk
	loaded bool
	// gen changes whenever the cache is dropped or replaced.
	gen uint64
}

// NewEmbeddingStore creates a store reading and writing the table at path.
func NewEmbeddingStore(table driven.TableStore, path string) *EmbeddingStore {
	return &EmbeddingStore{
		table: table,
		path:  path,
	}
}

// Path returns the current backing table location.
func (s *EmbeddingStore) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// Load returns the corpus, reading the table on first use.
func (s *EmbeddingStore) Load(ctx context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	if s.loaded {
		chunks := s.chunks
		s.mu.RUnlock()
		return chunks, nil
	}
	path, gen := s.path, s.gen
	s.mu.RUnlock()

	logger.Debug("Loading embedding table from %s", path)
	chunks, err := s.table.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if err := checkDimensions(chunks); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// Swapped or replaced during the read; serve what was read without caching it.
		return chunks, nil
	}
	if !s.loaded {
		s.chunks = chunks
		s.loaded = true
		logger.Info("Loaded %d chunks", len(chunks))
	}
	return s.chunks, nil
}

// Invalidate drops the cache so the next Load re-reads the table.
func (s *EmbeddingStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.loaded = false
	s.gen++
}

// SetPath redirects the store to another table and drops the cache.
func (s *EmbeddingStore) SetPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger.Debug("Embedding table path: %s -> %s", s.path, path)
	s.path = path
	s.chunks = nil
	s.loaded = false
	s.gen++
}

// Replace persists chunks as the whole table and swaps them into the cache.
// On failure the previous table and cache are left untouched.
func (s *EmbeddingStore) Replace(ctx context.Context, chunks []domain.Chunk) error {
	if err := checkDimensions(chunks); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	path := s.Path()
	if err := s.table.Write(ctx, path, chunks); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == path {
		s.chunks = chunks
		s.loaded = true
		s.gen++
	}
	return nil
}

// CountsBySource aggregates chunk counts and text size per source document.
func (s *EmbeddingStore) CountsBySource(ctx context.Context) ([]domain.SourceStats, error) {
	chunks, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return domain.CountBySource(chunks), nil
}

// checkDimensions enforces one embedding length across the table.
func checkDimensions(chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	want := len(chunks[0].Embedding)
	for _, c := range chunks[1:] {
		if len(c.Embedding) != want {
			return &domain.DimensionMismatchError{Expected: want, Got: len(c.Embedding), ChunkID: c.ID}
		}
	}
	return nil
}
