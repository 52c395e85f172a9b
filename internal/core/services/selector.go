package services

import (
	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// degenerateTake is how many chunks are kept when no chunk clears either threshold.
const degenerateTake = 2

// SelectOptions bounds chunk selection.
type SelectOptions struct {
	// MaxChunks is the most chunks returned.
	MaxChunks int

	// DiversityThreshold gates the one-per-source pass.
	DiversityThreshold float64

	// FallbackThreshold gates the fill pass. Looser than DiversityThreshold.
	FallbackThreshold float64
}

// SelectOptionsFrom extracts selection options from retrieval settings.
func SelectOptionsFrom(s domain.RetrievalSettings) SelectOptions {
	return SelectOptions{
		MaxChunks:          s.MaxChunks,
		DiversityThreshold: s.DiversityThreshold,
		FallbackThreshold:  s.FallbackThreshold,
	}
}

// Select picks a bounded, source-diverse subset of ranked chunks.
//
// The first pass takes the best chunk of each source scoring at least
// DiversityThreshold, up to half of MaxChunks rounded up (at least two
// when MaxChunks allows). The second pass
// fills the remaining slots in rank order with any chunk scoring at least
// FallbackThreshold. If nothing qualifies, the top two chunks are taken
// regardless of score, so a non-empty input never yields an empty result.
// The result is ordered by descending similarity.
func Select(ranked []domain.RankedChunk, opts SelectOptions) []domain.RankedChunk {
	if len(ranked) == 0 {
		return nil
	}
	maxChunks := opts.MaxChunks
	if maxChunks < 1 {
		maxChunks = 1
	}

	selected := make([]domain.RankedChunk, 0, maxChunks)
	taken := make(map[string]bool, maxChunks)

	diverseQuota := (maxChunks + 1) / 2
	if maxChunks >= 2 {
		// Two slots must be able to hold two sources.
		diverseQuota = max(diverseQuota, 2)
	}
	seenSources := make(map[string]bool)
	for _, rc := range ranked {
		if len(selected) >= diverseQuota {
			break
		}
		if seenSources[rc.Source] || rc.Similarity < opts.DiversityThreshold {
			continue
		}
		seenSources[rc.Source] = true
		taken[rc.ID] = true
		selected = append(selected, rc)
	}

	for _, rc := range ranked {
		if len(selected) >= maxChunks {
			break
		}
		if taken[rc.ID] || rc.Similarity < opts.FallbackThreshold {
			continue
		}
		taken[rc.ID] = true
		selected = append(selected, rc)
	}

	if len(selected) == 0 {
		n := min(degenerateTake, len(ranked), maxChunks)
		selected = append(selected, ranked[:n]...)
	}

	sortBySimilarity(selected)
	return selected
}
