package normalisers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/normalisers/html"
	"github.com/custodia-labs/sercha-assist/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-assist/internal/normalisers/pdf"
	"github.com/custodia-labs/sercha-assist/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches documents to normalisers by MIME type, trying the
// highest priority first. Equal priorities keep registration order.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default returns a registry with the plain text, Markdown, HTML and PDF
// normalisers.
func Default() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(pdf.New())
	return r
}

// Register adds a normaliser.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// Normalise runs the best matching normaliser. A normaliser reporting
// domain.ErrUnsupportedType hands the document to the next candidate.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	candidates := r.candidates(baseMIMEType(raw.MIMEType))
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s (%s)", domain.ErrUnsupportedType, raw.Name(), raw.MIMEType)
	}

	var lastErr error
	for _, n := range candidates {
		doc, err := n.Normalise(ctx, raw)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, domain.ErrUnsupportedType) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%s: %w", raw.Name(), lastErr)
}

// SupportedMIMETypes returns every MIME type some normaliser accepts, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var types []string
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}
	sort.Strings(types)
	return types
}

func (r *Registry) candidates(mimeType string) []driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []driven.Normaliser
	for _, n := range r.normalisers {
		for _, t := range n.SupportedMIMETypes() {
			if t == mimeType {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// baseMIMEType drops parameters such as "; charset=utf-8".
func baseMIMEType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
