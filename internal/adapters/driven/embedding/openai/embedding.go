// Package openai provides an embedding service adapter for OpenAI-compatible
// servers such as LM Studio.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/sercha-assist/internal/adapters/driven/transport"
	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = transport.DefaultOpenAIBaseURL
	DefaultModel   = "text-embedding-nomic-embed-text-v1.5"
	DefaultTimeout = 60 * time.Second
)

const serviceName = "openai"

// Config holds configuration for the OpenAI-compatible embedding service.
type Config struct {
	// APIKey is optional for local servers.
	APIKey string

	// BaseURL is the API base URL (default: LM Studio on 127.0.0.1:1234).
	BaseURL string

	// Model is the embedding model to use.
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// EmbeddingService generates embeddings through the /embeddings endpoint.
type EmbeddingService struct {
	client *openai.Client
	model  string
}

// NewEmbeddingService creates a new OpenAI-compatible embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &EmbeddingService{
		client: transport.NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout),
		model:  cfg.Model,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: openai.EmbeddingModel(s.model),
	})
	if err != nil {
		return nil, classify(ctx, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%s: %w: no embedding returned", serviceName, domain.ErrBadEmbeddingResponse)
	}

	embedding32 := resp.Data[0].Embedding
	embedding := make([]float64, len(embedding32))
	for i, v := range embedding32 {
		embedding[i] = float64(v)
	}
	return embedding, nil
}

// classify maps a failed call onto the embedding error taxonomy.
func classify(ctx context.Context, err error) error {
	err = transport.Classify(ctx, err)
	if errors.Is(err, domain.ErrCanceled) {
		return fmt.Errorf("%s: %w", serviceName, err)
	}
	if transport.StatusCode(err) == 0 && !errors.Is(err, domain.ErrConnectionRefused) && !errors.Is(err, domain.ErrGenerationTimeout) {
		// A response arrived but could not be decoded.
		return fmt.Errorf("%s: %w: %w", serviceName, domain.ErrBadEmbeddingResponse, err)
	}
	return fmt.Errorf("%s: %w: %w", serviceName, domain.ErrEmbeddingUnavailable, err)
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the server is reachable by listing its models.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return classify(ctx, err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
