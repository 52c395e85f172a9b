// Package pdf provides a Normaliser for PDF documents backed by
// github.com/ledongthuc/pdf.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser extracts the text layer of PDF documents. Scanned PDFs
// without a text layer yield no text.
type Normaliser struct {
	extract func(content []byte) (string, error)
}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{extract: extractText}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts and tidies the document text.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.ErrCanceled
	}

	text, err := n.extract(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", raw.Name(), err)
	}

	return &domain.Document{
		Name: raw.Name(),
		Text: tidy(text),
	}, nil
}

// extractText reads the text layer. The parser panics on some malformed
// files, which is reported as an error.
func extractText(content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	pdfSpaces   = regexp.MustCompile(`[ \t\f\x{00a0}]+`)
	pdfNewlines = regexp.MustCompile(`\n{3,}`)
	hyphenBreak = regexp.MustCompile(`(\p{L})-\n(\p{Ll})`)
)

// tidy joins words hyphenated across lines and collapses whitespace.
func tidy(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\x00", "")
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	text = pdfSpaces.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = pdfNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
