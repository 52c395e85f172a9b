// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	ollamaembed "github.com/custodia-labs/sercha-assist/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-assist/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/custodia-labs/sercha-assist/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-assist/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// APIKeyEnv supplies the OpenAI-compatible API key when the config has none.
//
//nolint:gosec // G101: environment variable name, not a credential.
const APIKeyEnv = "SERCHA_ASSIST_OPENAI_API_KEY"

// Backend is a generation backend with the model it should be asked for.
type Backend struct {
	Backend driven.GenerationBackend
	Model   string
}

// InitResult contains the AI services built from settings.
type InitResult struct {
	EmbeddingService driven.EmbeddingService

	// Backends are ordered primary first.
	Backends []Backend
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	for _, b := range r.Backends {
		b.Backend.Close()
	}
}

// Init creates the embedding service and the generation backends.
// The fallback backend is included only when configured.
func Init(embedding *domain.EmbeddingSettings, llm *domain.LLMSettings) (*InitResult, error) {
	embedder, err := CreateEmbeddingService(embedding)
	if err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedding provider is not configured", domain.ErrInvalidInput)
	}

	result := &InitResult{EmbeddingService: embedder}
	routes := []domain.BackendSettings{llm.BackendSettings}
	if llm.Fallback.IsConfigured() {
		routes = append(routes, llm.Fallback)
	}
	for i := range routes {
		backend, err := CreateBackend(&routes[i], llm.VisionModels)
		if err != nil {
			result.Close()
			return nil, err
		}
		if backend == nil {
			result.Close()
			return nil, fmt.Errorf("%w: llm provider is not configured", domain.ErrInvalidInput)
		}
		result.Backends = append(result.Backends, Backend{Backend: backend, Model: routes[i].Model})
	}
	return result, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateBackendConfig validates a generation backend by creating it and pinging it.
func ValidateBackendConfig(settings *domain.BackendSettings) error {
	backend, err := CreateBackend(settings, nil)
	if err != nil || backend == nil {
		return err
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return backend.Ping(ctx)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  apiKey(settings.APIKey),
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateBackend creates the generation backend for settings.
// Returns nil if the provider is not configured. Requests are bounded by
// the generator's per-attempt timeout, so the clients carry none.
func CreateBackend(settings *domain.BackendSettings, visionModels []string) (driven.GenerationBackend, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewBackend(ollamallm.Config{
			BaseURL:      settings.BaseURL,
			VisionModels: visionModels,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewBackend(openaillm.Config{
			APIKey:       apiKey(settings.APIKey),
			BaseURL:      settings.BaseURL,
			VisionModels: visionModels,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", settings.Provider)
	}
}

func apiKey(configured string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv(APIKeyEnv)
}
