package domain

import "path/filepath"

// RawDocument represents opaque bytes read from the documents directory.
// It is the loader's output before normalisation.
type RawDocument struct {
	// URI is the original location (file path).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains loader-specific key-value pairs.
	Metadata map[string]any
}

// Name returns the document name: Metadata["name"] when set, otherwise the
// base name of URI.
func (r *RawDocument) Name() string {
	if name, ok := r.Metadata["name"].(string); ok && name != "" {
		return name
	}
	return filepath.Base(r.URI)
}
