package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
)

// DocumentSource supplies the documents a reindex is built from.
type DocumentSource interface {
	Documents(ctx context.Context) ([]domain.Document, error)
}

// Ports aggregates the services the MCP server drives.
type Ports struct {
	// Assistant answers questions and owns the embedding table.
	Assistant driving.AssistantService

	// Documents feeds the reindex tool. Optional.
	Documents DocumentSource
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Assistant == nil {
		return ErrMissingAssistant
	}
	return nil
}
