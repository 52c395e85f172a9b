package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

func sampleChunks() []domain.Chunk {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return []domain.Chunk{
		{
			ID: "iso13850.txt-chunk-1", Text: "The emergency stop device shall be red.",
			Embedding: []float64{0.125, -0.5, 0.333}, Source: "iso13850.txt",
			ChunkIndex: 1, TotalChunks: 2, CreatedAt: at,
		},
		{
			ID: "iso13850.txt-chunk-2", Text: "The background shall be yellow.",
			Embedding: []float64{0.9, 0.1, 0}, Source: "iso13850.txt",
			ChunkIndex: 2, TotalChunks: 2, CreatedAt: at,
		},
		{
			ID: "ce.txt-chunk-1", Text: "CE marking indicates conformity.",
			Embedding: []float64{0, 0, 1}, Source: "ce.txt",
			ChunkIndex: 1, TotalChunks: 1, CreatedAt: at,
		},
	}
}

func newTableStore(t *testing.T) *TableStore {
	t.Helper()
	store := NewTableStore()
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestOpen_Migrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kb.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())
	assert.FileExists(t, path)

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	var tables int
	require.NoError(t, store.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='chunks'").Scan(&tables))
	assert.Equal(t, 1, tables)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/dev/null/kb.db")
	assert.Error(t, err)
}

func TestTableStore_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.db")
	store := newTableStore(t)

	require.NoError(t, store.Write(context.Background(), path, sampleChunks()))

	got, err := store.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, sampleChunks(), got)
}

func TestTableStore_ReadFromFreshHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.sqlite")
	writer := newTableStore(t)
	require.NoError(t, writer.Write(context.Background(), path, sampleChunks()))

	got, err := newTableStore(t).Read(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, sampleChunks(), got)
}

func TestTableStore_WriteReplacesEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.db")
	store := newTableStore(t)

	require.NoError(t, store.Write(context.Background(), path, sampleChunks()))
	require.NoError(t, store.Write(context.Background(), path, sampleChunks()[2:]))

	got, err := store.Read(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ce.txt-chunk-1", got[0].ID)
}

func TestTableStore_FailedWriteKeepsOldTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.db")
	store := newTableStore(t)
	require.NoError(t, store.Write(context.Background(), path, sampleChunks()))

	dup := sampleChunks()
	dup[1].ID = dup[0].ID

	err := store.Write(context.Background(), path, dup)
	require.Error(t, err)

	got, err := store.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, sampleChunks(), got)
}

func TestTableStore_ReadMissingDoesNotCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := newTableStore(t).Read(context.Background(), path)

	assert.ErrorIs(t, err, domain.ErrStoreNotFound)
	assert.NoFileExists(t, path)
}

func TestTableStore_ReadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not an sqlite database, not even close"), 0600))

	_, err := newTableStore(t).Read(context.Background(), path)

	assert.ErrorIs(t, err, domain.ErrCorruptTable)
}

func TestTableStore_ReadBadEmbeddingBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.db")
	store := newTableStore(t)
	require.NoError(t, store.Write(context.Background(), path, sampleChunks()[:1]))

	s, err := store.store(path)
	require.NoError(t, err)
	_, err = s.db.Exec("UPDATE chunks SET embedding = ?", []byte{1, 2, 3})
	require.NoError(t, err)

	_, err = store.Read(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrCorruptTable)
}

func TestTableStore_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "kb.db")
	store := newTableStore(t)

	assert.ErrorIs(t, store.Write(ctx, path, sampleChunks()), domain.ErrCanceled)
	_, err := store.Read(ctx, path)
	assert.ErrorIs(t, err, domain.ErrCanceled)
}

func TestTableStore_ConcurrentReadsDuringWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.db")
	store := newTableStore(t)
	require.NoError(t, store.Write(context.Background(), path, sampleChunks()))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Write(context.Background(), path, sampleChunks()))
		}()
		go func() {
			defer wg.Done()
			got, err := store.Read(context.Background(), path)
			assert.NoError(t, err)
			assert.Len(t, got, 3)
		}()
	}
	wg.Wait()
}

func TestFloat64Blob(t *testing.T) {
	in := []float64{1.5, -2.25, 0, 1e-9}

	out, err := bytesToFloat64Slice(float64SliceToBytes(in))

	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = bytesToFloat64Slice([]byte{0, 1})
	assert.Error(t, err)
}
