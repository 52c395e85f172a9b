package driven

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// PostProcessor turns document text into chunks or refines existing chunks.
// PostProcessors are chained in a pipeline, the chunker first.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns chunks.
	// If the processor creates chunks (e.g., chunker), it receives nil and returns new chunks.
	// If the processor modifies chunks, it receives and returns chunks.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	// Returns the final chunks after all processing, without embeddings.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
