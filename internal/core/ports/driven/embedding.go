// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService maps text to a fixed-length vector.
//
// Implementations may include:
//   - Ollama (all-minilm, nomic-embed-text)
//   - OpenAI-compatible servers (LM Studio)
//
// Errors wrap domain.ErrEmbeddingUnavailable when the service cannot be
// reached or refuses the request, and domain.ErrBadEmbeddingResponse when
// the response has the wrong shape.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
