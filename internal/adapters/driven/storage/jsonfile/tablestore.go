// Package jsonfile stores the embedding table as a single JSON array.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure TableStore implements the interface.
var _ driven.TableStore = (*TableStore)(nil)

// record is the on-disk shape of one chunk.
type record struct {
	ID        string    `json:"id"`
	Document  string    `json:"document"`
	Embedding []float64 `json:"embedding"`
	Metadata  metadata  `json:"metadata"`
}

type metadata struct {
	Source      string    `json:"source"`
	ChunkIndex  int       `json:"chunk_index"`
	TotalChunks int       `json:"total_chunks"`
	ProcessedAt time.Time `json:"processed_at"`
}

// TableStore reads and writes JSON embedding tables.
// Writes go to a temp file in the target directory and are renamed over
// the target, so readers never see a partial table.
type TableStore struct{}

// NewTableStore creates a JSON table store.
func NewTableStore() *TableStore {
	return &TableStore{}
}

// Read loads the table at path.
func (s *TableStore) Read(ctx context.Context, path string) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.ErrCanceled
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrStoreNotFound, path)
		}
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptTable, path, err)
	}

	chunks := make([]domain.Chunk, 0, len(records))
	for i, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: %s: record %d has no id", domain.ErrCorruptTable, path, i)
		}
		chunks = append(chunks, domain.Chunk{
			ID:          r.ID,
			Text:        r.Document,
			Embedding:   r.Embedding,
			Source:      r.Metadata.Source,
			ChunkIndex:  r.Metadata.ChunkIndex,
			TotalChunks: r.Metadata.TotalChunks,
			CreatedAt:   r.Metadata.ProcessedAt,
		})
	}
	return chunks, nil
}

// Write replaces the table at path, creating parent directories as needed.
func (s *TableStore) Write(ctx context.Context, path string, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return domain.ErrCanceled
	}

	records := make([]record, len(chunks))
	for i, c := range chunks {
		records[i] = record{
			ID:        c.ID,
			Document:  c.Text,
			Embedding: c.Embedding,
			Metadata: metadata{
				Source:      c.Source,
				ChunkIndex:  c.ChunkIndex,
				TotalChunks: c.TotalChunks,
				ProcessedAt: c.CreatedAt,
			},
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode table: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create table directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp table: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp table: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace table: %w", err)
	}
	return nil
}
