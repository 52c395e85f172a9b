package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

func TestIsSQLite(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/data/embeddings.json", false},
		{"/data/kb.db", true},
		{"/data/kb.SQLITE", true},
		{"/data/kb.sqlite3", true},
		{"/data/embeddings", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSQLite(tt.path))
		})
	}
}

func TestRouter_RoutesByExtension(t *testing.T) {
	dir := t.TempDir()
	router := NewRouter()
	t.Cleanup(func() { assert.NoError(t, router.Close()) })

	chunks := []domain.Chunk{{
		ID: "ce.txt-chunk-1", Text: "CE marking", Embedding: []float64{1, 0},
		Source: "ce.txt", ChunkIndex: 1, TotalChunks: 1,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}}

	for _, name := range []string{"embeddings.json", "kb.db"} {
		path := filepath.Join(dir, name)
		require.NoError(t, router.Write(context.Background(), path, chunks))

		got, err := router.Read(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, chunks, got)
	}

	data, err := os.ReadFile(filepath.Join(dir, "embeddings.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"document": "CE marking"`)

	head := make([]byte, 15)
	f, err := os.Open(filepath.Join(dir, "kb.db"))
	require.NoError(t, err)
	defer f.Close()
	_, err = f.Read(head)
	require.NoError(t, err)
	assert.Equal(t, "SQLite format 3", string(head))
}

func TestRouter_Missing(t *testing.T) {
	router := NewRouter()
	t.Cleanup(func() { assert.NoError(t, router.Close()) })

	for _, name := range []string{"missing.json", "missing.db"} {
		_, err := router.Read(context.Background(), filepath.Join(t.TempDir(), name))
		assert.ErrorIs(t, err, domain.ErrStoreNotFound, name)
	}
}
