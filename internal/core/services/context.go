package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// ContextSeparator sits between the parts of an assembled context.
const ContextSeparator = "\n\n=== === ===\n\n"

// AssembleContext renders selected chunks as provenance-headed parts
// joined by ContextSeparator, stopping before the part that would push
// the result past budget characters. The first part is always included,
// even when it alone exceeds the budget.
func AssembleContext(selected []domain.RankedChunk, budget int) string {
	var b strings.Builder
	for i, rc := range selected {
		part := contextPart(i+1, rc)
		extra := len(part)
		if i > 0 {
			extra += len(ContextSeparator)
		}
		if i > 0 && b.Len()+extra > budget {
			break
		}
		if i > 0 {
			b.WriteString(ContextSeparator)
		}
		b.WriteString(part)
	}
	return b.String()
}

func contextPart(n int, rc domain.RankedChunk) string {
	return fmt.Sprintf("[Source %d: %s - Relevance: %.1f%%]\n%s",
		n, rc.Source, rc.Similarity*100, strings.TrimSpace(rc.Text))
}
