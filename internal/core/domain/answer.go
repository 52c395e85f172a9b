package domain

import (
	"fmt"
	"time"
)

// PreviewLength is how many characters of a chunk are shown per source.
const PreviewLength = 150

// RefusalMessage is returned instead of a generated answer when
// retrieval confidence is too low.
const RefusalMessage = "I'm sorry, but I'm not confident enough in my knowledge to provide a reliable answer " +
	"to your question. The available information doesn't seem to closely match what you're asking about.\n\n" +
	"Please try:\n" +
	"• Rephrasing your question with different keywords\n" +
	"• Being more specific about the context\n" +
	"• Checking if the topic is covered in the loaded documents"

// QueryRequest is one user question.
type QueryRequest struct {
	// Question is the user's text, shown back verbatim.
	Question string

	// Image is an optional attachment (raw bytes).
	Image []byte

	// Model overrides the configured generation model when set.
	Model string
}

// AnswerSource is one retrieved chunk as presented to the caller.
type AnswerSource struct {
	ID         string  `json:"id"`
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
	Preview    string  `json:"content_preview"`
}

// NewAnswerSource builds the presentation form of a ranked chunk.
func NewAnswerSource(rc RankedChunk) AnswerSource {
	return AnswerSource{
		ID:         rc.ID,
		Source:     rc.Source,
		Similarity: rc.Similarity,
		Preview:    Preview(rc.Text, PreviewLength),
	}
}

// Preview returns the first n runes of text followed by "...".
func Preview(text string, n int) string {
	r := []rune(text)
	if len(r) > n {
		r = r[:n]
	}
	return string(r) + "..."
}

// AnswerDiagnostics carries search and timing metadata for one query.
type AnswerDiagnostics struct {
	RetrievalDiagnostics

	ConfidenceScore  int    `json:"confidence_score"`
	EmbeddingModel   string `json:"embedding_model"`
	GenerationModel  string `json:"generation_model,omitempty"`
	Backend          string `json:"backend,omitempty"`
	FellBack         bool   `json:"fell_back,omitempty"`
	RetrievalMillis  int64  `json:"retrieval_ms"`
	GenerationMillis int64  `json:"generation_ms"`
	ElapsedMillis    int64  `json:"elapsed_time_ms"`
	ElapsedFormatted string `json:"elapsed_time_formatted"`
}

// Answer is the terminal output of one query, whatever the outcome.
type Answer struct {
	RequestID       string            `json:"request_id"`
	State           RequestState      `json:"state"`
	Text            string            `json:"answer"`
	Reasoning       string            `json:"reasoning,omitempty"`
	Sources         []AnswerSource    `json:"sources"`
	Confidence      int               `json:"confidence"`
	ConfidenceLevel ConfidenceLevel   `json:"confidence_level"`
	Diagnostics     AnswerDiagnostics `json:"metadata"`
}

// Refused reports whether the answer is a low-confidence refusal.
func (a *Answer) Refused() bool {
	return a.State == StateRefused
}

// FormatElapsed renders a duration as "850ms" below one second, "2.3s" above.
func FormatElapsed(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}
