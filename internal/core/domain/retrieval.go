package domain

// ConfidenceLevel is the presentation band of a confidence score.
type ConfidenceLevel string

// Confidence bands.
const (
	ConfidenceHigh      ConfidenceLevel = "high"
	ConfidenceMedium    ConfidenceLevel = "medium"
	ConfidenceMediumLow ConfidenceLevel = "medium-low"
	ConfidenceLow       ConfidenceLevel = "low"
)

// Band thresholds on the 0..100 confidence scale.
const (
	HighConfidenceMin   = 70
	MediumConfidenceMin = 50
)

// LevelFor maps a confidence score onto its band.
// Scores under minConfidence are low and take the refusal path.
func LevelFor(confidence, minConfidence int) ConfidenceLevel {
	switch {
	case confidence < minConfidence:
		return ConfidenceLow
	case confidence >= HighConfidenceMin:
		return ConfidenceHigh
	case confidence >= MediumConfidenceMin:
		return ConfidenceMedium
	default:
		return ConfidenceMediumLow
	}
}

// String returns the string representation.
func (l ConfidenceLevel) String() string {
	return string(l)
}

// RetrievalDiagnostics describes one retrieval pass.
type RetrievalDiagnostics struct {
	ChunksSearched int     `json:"total_chunks_searched"`
	ChunksUsed     int     `json:"relevant_chunks_used"`
	TopSimilarity  float64 `json:"top_similarity"`
	ContextChars   int     `json:"context_chars"`
}

// RetrievalResult is the transient output of the retrieval half of a query.
type RetrievalResult struct {
	Selected    []RankedChunk
	Context     string
	Confidence  int
	Diagnostics RetrievalDiagnostics
}
