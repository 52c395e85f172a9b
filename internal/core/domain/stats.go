package domain

import "sort"

// SourceStats aggregates the chunks of one source document.
type SourceStats struct {
	Source     string `json:"name"`
	Chunks     int    `json:"chunks"`
	TotalChars int    `json:"size"`
}

// StoreStats summarises the loaded embedding table.
type StoreStats struct {
	DocumentCount int           `json:"document_count"`
	ChunkCount    int           `json:"chunk_count"`
	Dimensions    int           `json:"dimensions"`
	TablePath     string        `json:"table_path"`
	Documents     []SourceStats `json:"documents"`
}

// CountBySource groups chunks by source, sorted by source name.
func CountBySource(chunks []Chunk) []SourceStats {
	bySource := make(map[string]*SourceStats)
	for i := range chunks {
		c := &chunks[i]
		s, ok := bySource[c.Source]
		if !ok {
			s = &SourceStats{Source: c.Source}
			bySource[c.Source] = s
		}
		s.Chunks++
		s.TotalChars += len(c.Text)
	}

	out := make([]SourceStats, 0, len(bySource))
	for _, s := range bySource {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}
