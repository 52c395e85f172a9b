// Package ollama provides an embedding service adapter using Ollama.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/adapters/driven/transport"
	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = domain.DefaultEmbeddingModel
	DefaultTimeout = 30 * time.Second
)

const serviceName = "ollama"

// Config holds configuration for the Ollama embedding service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model to use (default: all-minilm).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// EmbeddingService generates embeddings using Ollama.
type EmbeddingService struct {
	client  *http.Client
	baseURL string
	model   string
}

// embedRequest is the Ollama /api/embed request format.
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embedResponse is the Ollama /api/embed response format.
type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &EmbeddingService{
		client:  transport.NewClient(cfg.Timeout),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float64, error) {
	var resp embedResponse
	err := transport.PostJSON(ctx, s.client, serviceName, s.baseURL+"/api/embed",
		embedRequest{Model: s.model, Input: text}, &resp)
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("%s: %w: no embedding returned", serviceName, domain.ErrBadEmbeddingResponse)
	}
	return resp.Embeddings[0], nil
}

// classify separates unusable responses from an unreachable service.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrCanceled):
		return err
	case errors.Is(err, domain.ErrMalformedResponse):
		return fmt.Errorf("%w: %w", domain.ErrBadEmbeddingResponse, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if err := transport.Get(ctx, s.client, serviceName, s.baseURL+"/api/tags"); err != nil {
		return classify(err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
