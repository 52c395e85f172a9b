package driven

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// Normaliser turns a raw file into plain text for indexing.
// Each normaliser handles specific MIME types (e.g., PDF, Markdown).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Generic MIME normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts the document text. The document is named after
	// the file's base name so chunk ids stay stable across reindexes.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}
