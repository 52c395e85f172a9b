package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts an HTML page to plain text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := string(raw.Content)
	text := stripHTML(content)
	if title := extractTitle(content); title != "" && !strings.HasPrefix(text, title) {
		text = strings.TrimSpace(title + "\n" + text)
	}

	return &domain.Document{
		Name: raw.Name(),
		Text: text,
	}, nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	droppedBlocks = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg|template|title)\b[^>]*>.*?</(script|style|noscript|head|svg|template|title)>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	openBlocks    = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|dt|dd|blockquote|pre|table|section|article|caption)\b[^>]*>`)
	closeBlocks   = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|dt|dd|blockquote|pre|table|section|article|caption)>`)
	cellEnds      = regexp.MustCompile(`(?i)</t[dh]>`)
	lineBreaks    = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t\x{00a0}]+`)
)

func extractTitle(content string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) < 2 {
		return ""
	}
	return strings.TrimSpace(multiSpaces.ReplaceAllString(html.UnescapeString(matches[1]), " "))
}

// stripHTML removes markup and returns one line per block element.
func stripHTML(content string) string {
	content = droppedBlocks.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")
	content = openBlocks.ReplaceAllString(content, "\n")
	content = closeBlocks.ReplaceAllString(content, "\n")
	content = cellEnds.ReplaceAllString(content, " ")
	content = lineBreaks.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
