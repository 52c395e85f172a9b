package services

import (
	"math"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// ConfidenceScorer turns the selected chunks into a 0..100 score.
// The default heuristic is uncalibrated, so the pipeline accepts any scorer.
type ConfidenceScorer interface {
	Score(selected []domain.RankedChunk) int
}

// Ensure MeanTopScorer implements the interface.
var _ ConfidenceScorer = MeanTopScorer{}

// DefaultScoredChunks is how many leading chunks MeanTopScorer averages.
const DefaultScoredChunks = 3

// MeanTopScorer scores the rounded mean similarity of the first Top
// chunks, scaled to 0..100. Input is expected in descending order.
type MeanTopScorer struct {
	Top int
}

// Score implements ConfidenceScorer.
func (s MeanTopScorer) Score(selected []domain.RankedChunk) int {
	top := s.Top
	if top <= 0 {
		top = DefaultScoredChunks
	}
	n := min(top, len(selected))
	if n == 0 {
		return 0
	}

	var sum float64
	for _, rc := range selected[:n] {
		sum += rc.Similarity
	}
	score := int(math.Round(100 * sum / float64(n)))
	return max(0, min(100, score))
}
