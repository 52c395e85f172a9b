// Package markdown provides a Normaliser for Markdown documents.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise strips Markdown syntax, keeping headings and list items as
// plain lines. Code blocks keep their content since standards often quote
// tables and values in them.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	return &domain.Document{
		Name: raw.Name(),
		Text: stripMarkdown(plaintext.Clean(string(raw.Content))),
	}, nil
}

var (
	fences        = regexp.MustCompile("(?m)^\\s*(```|~~~).*$")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasis      = regexp.MustCompile(`(\*\*|__|\*|_)(\S(?:.*?\S)?)(\*\*|__|\*|_)`)
	blockquote    = regexp.MustCompile(`(?m)^>\s?`)
	rules         = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	listMarkers   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedList  = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)
	tableRules    = regexp.MustCompile(`(?m)^\s*\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?\s*$`)
	tablePipes    = regexp.MustCompile(`\s*\|\s*`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

func stripMarkdown(content string) string {
	content = fences.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = tableRules.ReplaceAllString(content, "")
	content = rules.ReplaceAllString(content, "")
	content = listMarkers.ReplaceAllString(content, "")
	content = numberedList.ReplaceAllString(content, "")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.Contains(line, "|") {
			line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "|"))
			line = tablePipes.ReplaceAllString(line, " | ")
		}
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")

	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
