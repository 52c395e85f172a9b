package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is any OpenAI-compatible server, such as LM Studio.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible (LM Studio, llama.cpp server)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is sent as a bearer token to OpenAI-compatible servers.
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.IsValid() && e.Model != ""
}

// BackendSettings addresses one generation backend.
type BackendSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the generation model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is sent as a bearer token to OpenAI-compatible servers.
	APIKey string
}

// IsConfigured returns true if the backend is set up.
func (b BackendSettings) IsConfigured() bool {
	return b.Provider.IsValid() && b.Model != ""
}

// LLMSettings holds generation configuration.
type LLMSettings struct {
	BackendSettings

	// Fallback is tried once after a timeout or refused connection.
	// A zero value disables fallback.
	Fallback BackendSettings

	// Timeout bounds each generation attempt.
	Timeout time.Duration

	// Temperature is the sampling temperature.
	Temperature float64

	// MaxTokens caps the completion length.
	MaxTokens int

	// Structured asks OpenAI-compatible servers for a {thinking, answer} envelope.
	Structured bool

	// VisionModels lists extra model name fragments that accept images.
	VisionModels []string
}

// RetrievalSettings parameterises the query pipeline.
type RetrievalSettings struct {
	// MaxChunks bounds how many chunks feed the context.
	MaxChunks int

	// DiversityThreshold is the minimum similarity for the per-source pass.
	DiversityThreshold float64

	// FallbackThreshold is the looser minimum for the fill pass.
	FallbackThreshold float64

	// ContextBudget is the character budget of the assembled context.
	ContextBudget int

	// MinConfidence is the score below which the pipeline refuses.
	MinConfidence int

	// Synonyms maps a lowercase query phrase to alternates appended to
	// queries containing it. Entries replace built-in ones for the same phrase.
	Synonyms map[string][]string
}

// Validate checks the retrieval parameters are usable.
func (r RetrievalSettings) Validate() error {
	switch {
	case r.MaxChunks < 1:
		return fmt.Errorf("%w: max chunks must be at least 1", ErrInvalidInput)
	case r.ContextBudget < 1:
		return fmt.Errorf("%w: context budget must be positive", ErrInvalidInput)
	case r.MinConfidence < 0 || r.MinConfidence > 100:
		return fmt.Errorf("%w: min confidence must be within 0..100", ErrInvalidInput)
	case r.FallbackThreshold > r.DiversityThreshold:
		return fmt.Errorf("%w: fallback threshold %.2f is stricter than diversity threshold %.2f",
			ErrInvalidInput, r.FallbackThreshold, r.DiversityThreshold)
	}
	return nil
}

// ParseSynonyms reads "phrase = alt, alt" entries. Malformed entries are
// skipped and reported in the returned error. Nil is returned for no entries.
func ParseSynonyms(entries []string) (map[string][]string, error) {
	var out map[string][]string
	var errs []error
	for _, entry := range entries {
		phrase, list, ok := strings.Cut(entry, "=")
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		var alts []string
		for _, alt := range strings.Split(list, ",") {
			if alt = strings.TrimSpace(alt); alt != "" {
				alts = append(alts, alt)
			}
		}
		if !ok || phrase == "" || len(alts) == 0 {
			errs = append(errs, fmt.Errorf("%w: synonym %q is not \"phrase = alt, alt\"", ErrInvalidInput, entry))
			continue
		}
		if out == nil {
			out = make(map[string][]string)
		}
		out[phrase] = alts
	}
	return out, errors.Join(errs...)
}

// FormatSynonyms renders synonyms as sorted "phrase = alt, alt" entries.
func FormatSynonyms(synonyms map[string][]string) []string {
	out := make([]string, 0, len(synonyms))
	for phrase, alts := range synonyms {
		out = append(out, phrase+" = "+strings.Join(alts, ", "))
	}
	sort.Strings(out)
	return out
}

// IndexingSettings parameterises reindexing.
type IndexingSettings struct {
	// ChunkSize is the number of words per chunk.
	ChunkSize int

	// Concurrency is the number of embedding calls in flight. 1 is sequential.
	Concurrency int

	// RatePerSecond throttles embedding calls. 0 disables throttling.
	RatePerSecond float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	// TablePath is the persisted embedding table.
	TablePath string

	// DocumentsDir is where imported documents live.
	DocumentsDir string

	Retrieval RetrievalSettings
	Indexing  IndexingSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
}

// Default values for settings.
const (
	DefaultMaxChunks          = 4
	DefaultDiversityThreshold = 0.35
	DefaultFallbackThreshold  = 0.3
	DefaultContextBudget      = 2500
	DefaultMinConfidence      = 30
	DefaultChunkSize          = 300
	DefaultEmbeddingModel     = "all-minilm"
	DefaultLLMModel           = "qwen2:0.5b"
	DefaultLLMTimeout         = 120 * time.Second
	DefaultTemperature        = 0.7
	DefaultMaxTokens          = 1000
)

// DefaultRetrievalSettings returns the stock pipeline parameters.
func DefaultRetrievalSettings() RetrievalSettings {
	return RetrievalSettings{
		MaxChunks:          DefaultMaxChunks,
		DiversityThreshold: DefaultDiversityThreshold,
		FallbackThreshold:  DefaultFallbackThreshold,
		ContextBudget:      DefaultContextBudget,
		MinConfidence:      DefaultMinConfidence,
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// Paths are left empty; callers resolve them against the data directory.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Retrieval: DefaultRetrievalSettings(),
		Indexing: IndexingSettings{
			ChunkSize:   DefaultChunkSize,
			Concurrency: 1,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModel,
		},
		LLM: LLMSettings{
			BackendSettings: BackendSettings{
				Provider: AIProviderOllama,
				Model:    DefaultLLMModel,
			},
			Timeout:     DefaultLLMTimeout,
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
	}
}

// AllProviders returns every supported provider.
func AllProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// visionModelFragments are model name fragments of known multimodal models.
var visionModelFragments = []string{"llava", "bakllava", "moondream"}

// IsVisionModel reports whether a model accepts images, judged by its name.
func IsVisionModel(model string, extra []string) bool {
	name := strings.ToLower(model)
	for _, frag := range visionModelFragments {
		if strings.Contains(name, frag) {
			return true
		}
	}
	for _, frag := range extra {
		if frag != "" && strings.Contains(name, strings.ToLower(frag)) {
			return true
		}
	}
	return false
}
