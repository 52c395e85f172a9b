package services

import (
	"math"
	"sort"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// CosineSimilarity returns dot(a,b) / (|a|*|b|), or 0 when either vector
// has zero norm. The vectors must have equal length.
func CosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Rounding can push identical vectors a hair past 1.
	return math.Max(-1, math.Min(1, sim))
}

// Rank scores every chunk against the query vector and sorts by
// descending similarity. Equal scores keep store order.
// Any chunk whose embedding length differs from the query fails the
// whole ranking with a *domain.DimensionMismatchError.
func Rank(query []float64, chunks []domain.Chunk) ([]domain.RankedChunk, error) {
	ranked := make([]domain.RankedChunk, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) != len(query) {
			return nil, &domain.DimensionMismatchError{
				Expected: len(query),
				Got:      len(c.Embedding),
				ChunkID:  c.ID,
			}
		}
		ranked[i] = domain.RankedChunk{
			Chunk:      c,
			Similarity: CosineSimilarity(query, c.Embedding),
		}
	}

	sortBySimilarity(ranked)
	return ranked, nil
}

func sortBySimilarity(ranked []domain.RankedChunk) {
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
}
