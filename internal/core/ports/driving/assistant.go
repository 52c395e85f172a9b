package driving

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// AssistantService is the retrieval pipeline exposed to the CLI and MCP server.
type AssistantService interface {
	// Query answers one question. The returned answer is always populated,
	// including on failure, where its text explains what went wrong and the
	// error classifies it. A low-confidence refusal is not an error.
	Query(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error)

	// Reindex replaces the embedding table with one built from docs.
	// On failure the previous table is left in place.
	Reindex(ctx context.Context, docs []domain.Document) (*domain.IndexSummary, error)

	// SetTablePath switches to another embedding table.
	SetTablePath(path string) error

	// TablePath returns the current embedding table location.
	TablePath() string

	// Stats summarises the loaded table.
	Stats(ctx context.Context) (*domain.StoreStats, error)
}

// Asker is the single-request view of the pipeline used by sessions.
type Asker interface {
	Query(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error)
}
