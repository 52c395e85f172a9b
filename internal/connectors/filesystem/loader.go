// Package filesystem loads and imports documents in a local directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/logger"
)

// DefaultMaxFileSize skips files larger than 50 MiB.
const DefaultMaxFileSize = 50 << 20

// extensionTypes overrides the platform MIME table for document formats.
var extensionTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".xhtml":    "application/xhtml+xml",
	".pdf":      "application/pdf",
	".csv":      "text/csv",
	".json":     "application/json",
	".yaml":     "text/yaml",
	".yml":      "text/yaml",
	".toml":     "text/toml",
}

// Skipped records a file the loader did not turn into a document.
type Skipped struct {
	Path   string
	Reason string
}

// Loader reads every supported file under a directory and normalises it.
// Hidden files, backups and oversized files are skipped.
type Loader struct {
	dir         string
	registry    driven.NormaliserRegistry
	maxFileSize int64
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(n int64) LoaderOption {
	return func(l *Loader) {
		l.maxFileSize = n
	}
}

// NewLoader creates a loader for dir.
func NewLoader(dir string, registry driven.NormaliserRegistry, opts ...LoaderOption) *Loader {
	l := &Loader{
		dir:         dir,
		registry:    registry,
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the documents directory.
func (l *Loader) Dir() string {
	return l.dir
}

// Load returns the documents in path order. Documents in subdirectories
// are named by their slash-separated path relative to the root.
func (l *Loader) Load(ctx context.Context) ([]domain.Document, []Skipped, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: documents directory %s", domain.ErrNotFound, l.dir)
		}
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, l.dir)
	}

	var paths []string
	err = filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != l.dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk %s: %w", l.dir, err)
	}
	sort.Strings(paths)

	var docs []domain.Document
	var skipped []Skipped
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, domain.ErrCanceled
		}

		doc, reason, err := l.loadFile(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		if reason != "" {
			logger.Warn("Skipping %s: %s", path, reason)
			skipped = append(skipped, Skipped{Path: path, Reason: reason})
			continue
		}
		docs = append(docs, *doc)
	}

	logger.Info("Loaded %d documents from %s (%d skipped)", len(docs), l.dir, len(skipped))
	return docs, skipped, nil
}

// Documents returns the loaded documents, dropping the skip report.
func (l *Loader) Documents(ctx context.Context) ([]domain.Document, error) {
	docs, _, err := l.Load(ctx)
	return docs, err
}

// loadFile returns a document, or a reason it was skipped.
func (l *Loader) loadFile(ctx context.Context, path string) (*domain.Document, string, error) {
	if strings.HasSuffix(path, ".bak") {
		return nil, "backup copy", nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if info.Size() > l.maxFileSize {
		return nil, fmt.Sprintf("larger than %d bytes", l.maxFileSize), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}

	rel, err := filepath.Rel(l.dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	raw := &domain.RawDocument{
		URI:      path,
		MIMEType: DetectMIMEType(path, content),
		Content:  content,
		Metadata: map[string]any{"name": filepath.ToSlash(rel)},
	}

	doc, err := l.registry.Normalise(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrCanceled) {
			return nil, "", err
		}
		return nil, err.Error(), nil
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, "no text", nil
	}
	return doc, "", nil
}

// DetectMIMEType guesses a file's type from its extension, then its content.
func DetectMIMEType(path string, content []byte) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return http.DetectContentType(content)
}
