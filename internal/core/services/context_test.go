package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

func textChunk(source, text string, sim float64) domain.RankedChunk {
	return domain.RankedChunk{
		Chunk:      domain.Chunk{ID: source + "-chunk-1", Source: source, Text: text},
		Similarity: sim,
	}
}

func TestAssembleContext_Format(t *testing.T) {
	selected := []domain.RankedChunk{
		textChunk("machinery.txt", "  Guards must be fixed.  ", 0.8123),
		textChunk("lvd.txt", "Insulation is required.", 0.5),
	}

	got := AssembleContext(selected, 2500)

	want := "[Source 1: machinery.txt - Relevance: 81.2%]\nGuards must be fixed." +
		"\n\n=== === ===\n\n" +
		"[Source 2: lvd.txt - Relevance: 50.0%]\nInsulation is required."
	assert.Equal(t, want, got)
}

func TestAssembleContext_Empty(t *testing.T) {
	assert.Equal(t, "", AssembleContext(nil, 100))
}

func TestAssembleContext_FirstChunkAlwaysIncluded(t *testing.T) {
	long := strings.Repeat("word ", 200)
	got := AssembleContext([]domain.RankedChunk{
		textChunk("big.txt", long, 0.9),
		textChunk("small.txt", "tiny", 0.8),
	}, 50)

	assert.Contains(t, got, strings.TrimSpace(long))
	assert.NotContains(t, got, "small.txt")
}

func TestAssembleContext_StaysWithinBudget(t *testing.T) {
	var selected []domain.RankedChunk
	for i := 0; i < 10; i++ {
		selected = append(selected, textChunk("doc.txt", strings.Repeat("x", 100+i*13), 0.5))
	}

	for budget := 150; budget <= 2000; budget += 37 {
		got := AssembleContext(selected, budget)
		assert.LessOrEqual(t, len(got), budget, "budget %d", budget)
		assert.Contains(t, got, "[Source 1: doc.txt")
	}
}

func TestAssembleContext_StopsAtFirstOverflow(t *testing.T) {
	selected := []domain.RankedChunk{
		textChunk("a", strings.Repeat("a", 50), 0.9),
		textChunk("b", strings.Repeat("b", 500), 0.8),
		textChunk("c", "c", 0.7),
	}

	got := AssembleContext(selected, 200)

	assert.Contains(t, got, "Source 1: a")
	assert.NotContains(t, got, "Source 2: b")
	assert.NotContains(t, got, "Source 3: c", "assembly stops rather than skipping ahead")
}

func TestAssembleContext_Deterministic(t *testing.T) {
	selected := []domain.RankedChunk{
		textChunk("a", "alpha", 0.9),
		textChunk("b", "beta", 0.6),
	}
	assert.Equal(t, AssembleContext(selected, 300), AssembleContext(selected, 300))
}
