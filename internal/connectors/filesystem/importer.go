package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/logger"
)

// ImportResult lists the files an import wrote, relative to the documents
// directory.
type ImportResult struct {
	Written   []string `json:"written"`
	BackedUp  []string `json:"backed_up"`
	Unchanged bool     `json:"unchanged"`
}

// Importer copies files into the documents directory, resolving name
// clashes with a domain.ConflictPolicy.
type Importer struct {
	dir string
	now func() time.Time
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithClock sets the clock used to stamp backup names.
func WithClock(now func() time.Time) ImporterOption {
	return func(i *Importer) {
		i.now = now
	}
}

// NewImporter creates an importer writing into dir.
func NewImporter(dir string, opts ...ImporterOption) *Importer {
	i := &Importer{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import copies the file at src (a path or file:// URI) into the documents
// directory. An identical existing copy is left untouched.
func (i *Importer) Import(ctx context.Context, src string, policy domain.ConflictPolicy) (*ImportResult, error) {
	if !policy.IsValid() {
		return nil, fmt.Errorf("%w: conflict policy %q", domain.ErrInvalidInput, policy)
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.ErrCanceled
	}

	path := ResolvePath(src)
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := os.MkdirAll(i.dir, 0700); err != nil {
		return nil, fmt.Errorf("create documents directory: %w", err)
	}

	remote := domain.DocumentVersion{Name: filepath.Base(path), Content: content}
	target := filepath.Join(i.dir, remote.Name)

	existing, err := os.ReadFile(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := writeFile(target, content); err != nil {
			return nil, err
		}
		logger.Info("Imported %s", remote.Name)
		return &ImportResult{Written: []string{remote.Name}}, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", target, err)
	case bytes.Equal(existing, content):
		logger.Debug("%s already imported", remote.Name)
		return &ImportResult{Unchanged: true}, nil
	}

	local := domain.DocumentVersion{Name: remote.Name, Content: existing}
	res, err := domain.ResolveConflict(local, remote, policy, i.now())
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for _, v := range res.BackedUp {
		if err := writeFile(filepath.Join(i.dir, v.Name), v.Content); err != nil {
			return nil, err
		}
		result.BackedUp = append(result.BackedUp, v.Name)
	}
	for _, v := range res.Kept {
		dst := filepath.Join(i.dir, v.Name)
		if current, err := os.ReadFile(dst); err == nil && bytes.Equal(current, v.Content) {
			continue
		}
		if err := writeFile(dst, v.Content); err != nil {
			return nil, err
		}
		result.Written = append(result.Written, v.Name)
	}

	logger.Info("Imported %s with %s: wrote %v, backed up %v", remote.Name, policy, result.Written, result.BackedUp)
	return result, nil
}

// writeFile replaces path atomically.
func writeFile(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
