package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-assist/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure TableStore implements the interface.
var _ driven.TableStore = (*TableStore)(nil)

// Store is one SQLite database holding an embedding table.
type Store struct {
	db      *sql.DB
	path    string
	writeMu sync.Mutex
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_chunks.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ReadChunks returns every chunk in stored order.
func (s *Store) ReadChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document, embedding, source, chunk_index, total_chunks, processed_at
		FROM chunks ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var blob []byte
		var processedAt string
		if err := rows.Scan(&c.ID, &c.Text, &blob, &c.Source,
			&c.ChunkIndex, &c.TotalChunks, &processedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if c.Embedding, err = bytesToFloat64Slice(blob); err != nil {
			return nil, fmt.Errorf("%w: chunk %s: %v", domain.ErrCorruptTable, c.ID, err)
		}
		if c.CreatedAt, err = time.Parse(time.RFC3339Nano, processedAt); err != nil {
			return nil, fmt.Errorf("%w: chunk %s: %v", domain.ErrCorruptTable, c.ID, err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// ReplaceChunks swaps the whole table in one transaction.
func (s *Store) ReplaceChunks(ctx context.Context, chunks []domain.Chunk) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, position, document, embedding, source, chunk_index, total_chunks, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, i, c.Text, float64SliceToBytes(c.Embedding),
			c.Source, c.ChunkIndex, c.TotalChunks, c.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// TableStore implements driven.TableStore over SQLite files, keeping one
// open Store per path.
type TableStore struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewTableStore creates an SQLite table store.
func NewTableStore() *TableStore {
	return &TableStore{stores: make(map[string]*Store)}
}

// Read loads the table at path. A path that does not exist is never created.
func (t *TableStore) Read(ctx context.Context, path string) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.ErrCanceled
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrStoreNotFound, path)
		}
		return nil, fmt.Errorf("stat table %s: %w", path, err)
	}

	s, err := t.store(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptTable, path, err)
	}

	chunks, err := s.ReadChunks(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, domain.ErrCanceled
		}
		if errors.Is(err, domain.ErrCorruptTable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptTable, path, err)
	}
	return chunks, nil
}

// Write replaces the table at path.
func (t *TableStore) Write(ctx context.Context, path string, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return domain.ErrCanceled
	}

	s, err := t.store(path)
	if err != nil {
		return err
	}
	if err := s.ReplaceChunks(ctx, chunks); err != nil {
		if ctx.Err() != nil {
			return domain.ErrCanceled
		}
		return err
	}
	return nil
}

// Close closes every open database.
func (t *TableStore) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	for path, s := range t.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(t.stores, path)
	}
	return errors.Join(errs...)
}

func (t *TableStore) store(path string) (*Store, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.stores[path]; ok {
		return s, nil
	}
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	t.stores[path] = s
	return s, nil
}

// float64SliceToBytes packs a vector as little-endian float64s.
func float64SliceToBytes(floats []float64) []byte {
	buf := make([]byte, len(floats)*8)
	for i, f := range floats {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// bytesToFloat64Slice unpacks a vector written by float64SliceToBytes.
func bytesToFloat64Slice(data []byte) ([]float64, error) {
	if len(data)%8 != 0 {
		return nil, fmt.Errorf("embedding blob of %d bytes", len(data))
	}
	floats := make([]float64, len(data)/8)
	for i := range floats {
		floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return floats, nil
}
