package services

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-assist/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyTablePath          = "table.path"
	keyDocumentsDir       = "documents.dir"
	keyMaxChunks          = "retrieval.max_chunks"
	keyDiversityThreshold = "retrieval.diversity_threshold"
	keyFallbackThreshold  = "retrieval.fallback_threshold"
	keyContextBudget      = "retrieval.context_budget"
	keyMinConfidence      = "retrieval.min_confidence"
	keySynonyms           = "retrieval.synonyms"
	keyChunkSize          = "indexing.chunk_size"
	keyConcurrency        = "indexing.concurrency"
	keyRatePerSecond      = "indexing.rate_per_second"
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyLLMProvider        = "llm.provider"
	keyLLMModel           = "llm.model"
	keyLLMBaseURL         = "llm.base_url"
	keyLLMAPIKey          = "llm.api_key"
	keyLLMTimeout         = "llm.timeout_seconds"
	keyLLMTemperature     = "llm.temperature"
	keyLLMMaxTokens       = "llm.max_tokens"
	keyLLMStructured      = "llm.structured"
	keyLLMVisionModels    = "llm.vision_models"
	keyFallbackProvider   = "llm.fallback.provider"
	keyFallbackModel      = "llm.fallback.model"
	keyFallbackBaseURL    = "llm.fallback.base_url"
	keyFallbackAPIKey     = "llm.fallback.api_key"
)

// Default file names under the data directory.
const (
	DefaultTableFile    = "embeddings.json"
	DefaultDocumentsDir = "documents"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	dataDir     string
}

// NewSettingsService creates a new settings service. Relative defaults
// for the table and documents directory resolve against dataDir.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, dataDir string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		dataDir:     dataDir,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := s.GetDefaults()

	settings := &domain.AppSettings{
		TablePath:    s.getString(keyTablePath, defaults.TablePath),
		DocumentsDir: s.getString(keyDocumentsDir, defaults.DocumentsDir),
		Retrieval: domain.RetrievalSettings{
			MaxChunks:          s.getInt(keyMaxChunks, defaults.Retrieval.MaxChunks),
			DiversityThreshold: s.getFloat(keyDiversityThreshold, defaults.Retrieval.DiversityThreshold),
			FallbackThreshold:  s.getFloat(keyFallbackThreshold, defaults.Retrieval.FallbackThreshold),
			ContextBudget:      s.getInt(keyContextBudget, defaults.Retrieval.ContextBudget),
			MinConfidence:      s.getInt(keyMinConfidence, defaults.Retrieval.MinConfidence),
			Synonyms:           s.getSynonyms(),
		},
		Indexing: domain.IndexingSettings{
			ChunkSize:     s.getInt(keyChunkSize, defaults.Indexing.ChunkSize),
			Concurrency:   s.getInt(keyConcurrency, defaults.Indexing.Concurrency),
			RatePerSecond: s.getFloat(keyRatePerSecond, defaults.Indexing.RatePerSecond),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // Empty means provider default
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			BackendSettings: domain.BackendSettings{
				Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
				Model:    s.getString(keyLLMModel, defaults.LLM.Model),
				BaseURL:  s.configStore.GetString(keyLLMBaseURL),
				APIKey:   s.configStore.GetString(keyLLMAPIKey),
			},
			Fallback: domain.BackendSettings{
				Provider: s.getProvider(keyFallbackProvider, ""),
				Model:    s.configStore.GetString(keyFallbackModel),
				BaseURL:  s.configStore.GetString(keyFallbackBaseURL),
				APIKey:   s.configStore.GetString(keyFallbackAPIKey),
			},
			Timeout:      time.Duration(s.getInt(keyLLMTimeout, int(defaults.LLM.Timeout/time.Second))) * time.Second,
			Temperature:  s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
			MaxTokens:    s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
			Structured:   s.getBool(keyLLMStructured, defaults.LLM.Structured),
			VisionModels: s.configStore.GetStringSlice(keyLLMVisionModels),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyTablePath, settings.TablePath},
		{keyDocumentsDir, settings.DocumentsDir},
		{keyMaxChunks, settings.Retrieval.MaxChunks},
		{keyDiversityThreshold, settings.Retrieval.DiversityThreshold},
		{keyFallbackThreshold, settings.Retrieval.FallbackThreshold},
		{keyContextBudget, settings.Retrieval.ContextBudget},
		{keyMinConfidence, settings.Retrieval.MinConfidence},
		{keySynonyms, domain.FormatSynonyms(settings.Retrieval.Synonyms)},
		{keyChunkSize, settings.Indexing.ChunkSize},
		{keyConcurrency, settings.Indexing.Concurrency},
		{keyRatePerSecond, settings.Indexing.RatePerSecond},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTimeout, int(settings.LLM.Timeout / time.Second)},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyLLMStructured, settings.LLM.Structured},
		{keyFallbackProvider, settings.LLM.Fallback.Provider.String()},
		{keyFallbackModel, settings.LLM.Fallback.Model},
		{keyFallbackBaseURL, settings.LLM.Fallback.BaseURL},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// API keys are only written when present so they are never blanked by accident.
	secrets := map[string]string{
		keyEmbedAPIKey:    settings.Embedding.APIKey,
		keyLLMAPIKey:      settings.LLM.APIKey,
		keyFallbackAPIKey: settings.LLM.Fallback.APIKey,
	}
	for key, value := range secrets {
		if value == "" {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, baseURL string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	}
	settings.Embedding.BaseURL = baseURL

	return s.Save(settings)
}

// SetLLMProvider configures the primary generation backend.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, baseURL string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: llm provider %q", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	}
	settings.LLM.BaseURL = baseURL

	return s.Save(settings)
}

// SetFallback configures the fallback backend. An empty provider clears it.
func (s *SettingsService) SetFallback(provider domain.AIProvider, model, baseURL string) error {
	if provider != "" && !provider.IsValid() {
		return fmt.Errorf("%w: fallback provider %q", domain.ErrInvalidInput, provider)
	}
	if provider != "" && model == "" {
		return fmt.Errorf("%w: fallback model is required", domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Fallback = domain.BackendSettings{
		Provider: provider,
		Model:    model,
		BaseURL:  baseURL,
	}

	return s.Save(settings)
}

// SetTablePath persists the embedding table location.
func (s *SettingsService) SetTablePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: table path is empty", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve table path: %w", err)
	}
	return s.configStore.Set(keyTablePath, abs)
}

// Validate checks the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.Retrieval.Validate(); err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider is not configured", domain.ErrInvalidInput)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: llm provider is not configured", domain.ErrInvalidInput)
	}
	if settings.Indexing.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size must be at least 1", domain.ErrInvalidInput)
	}

	return nil
}

// GetDefaults returns default settings with paths under the data directory.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	defaults := domain.DefaultAppSettings()
	defaults.TablePath = filepath.Join(s.dataDir, DefaultTableFile)
	defaults.DocumentsDir = filepath.Join(s.dataDir, DefaultDocumentsDir)
	return defaults
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the configured generation backends by pinging them.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := s.aiValidator.ValidateGeneration(&settings.LLM.BackendSettings); err != nil {
		return err
	}
	if settings.LLM.Fallback.IsConfigured() {
		if err := s.aiValidator.ValidateGeneration(&settings.LLM.Fallback); err != nil {
			return fmt.Errorf("fallback: %w", err)
		}
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getSynonyms drops malformed entries with a warning so one typo does not
// block every command.
func (s *SettingsService) getSynonyms() map[string][]string {
	synonyms, err := domain.ParseSynonyms(s.configStore.GetStringSlice(keySynonyms))
	if err != nil {
		logger.Warn("Ignoring %s entries: %v", keySynonyms, err)
	}
	return synonyms
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
