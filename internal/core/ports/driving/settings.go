package driving

import "github.com/custodia-labs/sercha-assist/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, baseURL string) error

	// SetLLMProvider configures the primary generation backend.
	SetLLMProvider(provider domain.AIProvider, model, baseURL string) error

	// SetFallback configures the backend tried after a timeout or refused
	// connection. An empty provider clears it.
	SetFallback(provider domain.AIProvider, model, baseURL string) error

	// SetTablePath persists the embedding table location.
	SetTablePath(path string) error

	// Validate checks the current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig validates the configured generation backends by pinging them.
	ValidateLLMConfig() error
}
