// Package cli provides the command-line interface for sercha-assist.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-assist/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-assist/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-assist/internal/adapters/driven/storage"
	"github.com/custodia-labs/sercha-assist/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-assist/internal/core/services"
	"github.com/custodia-labs/sercha-assist/internal/logger"
	"github.com/custodia-labs/sercha-assist/internal/normalisers"
	"github.com/custodia-labs/sercha-assist/internal/postprocessors"
	"github.com/custodia-labs/sercha-assist/internal/postprocessors/chunker"
)

// version is set at build time via -ldflags.
var version = "dev"

// skipServicesAnnotation marks commands that run without any services.
const skipServicesAnnotation = "skip-services"

var (
	verbose   bool
	configDir string
)

// documentLoader reads the documents directory.
type documentLoader interface {
	Load(ctx context.Context) ([]domain.Document, []filesystem.Skipped, error)
	Documents(ctx context.Context) ([]domain.Document, error)
	Dir() string
}

// documentImporter copies files into the documents directory.
type documentImporter interface {
	Import(ctx context.Context, src string, policy domain.ConflictPolicy) (*filesystem.ImportResult, error)
}

// tableInvalidator drops a cached table after it changed on disk.
type tableInvalidator interface {
	Invalidate()
}

// Services shared by the commands. They are built by PersistentPreRunE,
// or injected directly by tests.
var (
	settingsService  driving.SettingsService
	assistantService driving.AssistantService
	loader           documentLoader
	importer         documentImporter
	tableCache       tableInvalidator

	// newAssistant builds the pipeline on first use so that settings
	// commands keep working while the AI services are misconfigured.
	newAssistant func() (driving.AssistantService, error)

	closers []func()
)

var rootCmd = &cobra.Command{
	Use:   "sercha-assist",
	Short: "Ask questions about your local documents",
	Long: `sercha-assist answers questions from a folder of local documents.

Documents are chunked, embedded with a local model and stored in an
embedding table. Each question retrieves the most relevant chunks and
sends them to a local language model. When the retrieved context is not
relevant enough, the assistant declines instead of guessing.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "trace pipeline stages to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.sercha-assist)")
}

// Execute runs the root command.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if _, skip := cmd.Annotations[skipServicesAnnotation]; skip {
		return nil
	}
	if settingsService != nil {
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Ignoring .env: %v", err)
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	dataDir := filepath.Dir(configStore.Path())
	settingsService = services.NewSettingsService(configStore, ai.NewConfigValidator(), dataDir)

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	fsLoader := filesystem.NewLoader(settings.DocumentsDir, normalisers.Default())
	loader = fsLoader
	importer = filesystem.NewImporter(settings.DocumentsDir)
	newAssistant = func() (driving.AssistantService, error) {
		return buildAssistant(settings, filepath.Join(dataDir, "prompts"))
	}

	logger.Debug("Config: %s", configStore.Path())
	return nil
}

// buildAssistant wires the retrieval pipeline from settings.
func buildAssistant(settings *domain.AppSettings, promptDir string) (driving.AssistantService, error) {
	aiServices, err := ai.Init(&settings.Embedding, &settings.LLM)
	if err != nil {
		return nil, fmt.Errorf("initialise AI services: %w", err)
	}

	routes := make([]services.Route, 0, len(aiServices.Backends))
	for _, b := range aiServices.Backends {
		routes = append(routes, services.Route{Backend: b.Backend, Model: b.Model})
	}

	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		aiServices.Close()
		return nil, fmt.Errorf("open prompts: %w", err)
	}

	tables := storage.NewRouter()
	store := services.NewEmbeddingStore(tables, settings.TablePath)
	pipeline := postprocessors.NewPipeline(chunker.New(chunker.WithChunkSize(settings.Indexing.ChunkSize)))
	indexer := services.NewIndexer(pipeline, aiServices.EmbeddingService,
		services.WithConcurrency(settings.Indexing.Concurrency),
		services.WithRateLimit(settings.Indexing.RatePerSecond),
	)
	generator := services.NewGenerator(routes, prompts, services.GeneratorOptions{
		Timeout:     settings.LLM.Timeout,
		Temperature: settings.LLM.Temperature,
		MaxTokens:   settings.LLM.MaxTokens,
		Structured:  settings.LLM.Structured,
	})

	assistant, err := services.NewAssistantService(services.AssistantConfig{
		Store:     store,
		Indexer:   indexer,
		Embedder:  aiServices.EmbeddingService,
		Generator: generator,
		Enhancer:  services.NewQueryEnhancer(settings.Retrieval.Synonyms),
		Retrieval: settings.Retrieval,
	})
	if err != nil {
		aiServices.Close()
		tables.Close() //nolint:errcheck
		return nil, err
	}

	tableCache = store
	closers = append(closers, aiServices.Close, func() {
		if err := tables.Close(); err != nil {
			logger.Warn("Closing tables: %v", err)
		}
	})
	return assistant, nil
}

// requireAssistant returns the pipeline, building it on first use.
func requireAssistant() (driving.AssistantService, error) {
	if assistantService != nil {
		return assistantService, nil
	}
	if newAssistant == nil {
		return nil, errors.New("assistant not configured")
	}
	assistant, err := newAssistant()
	if err != nil {
		return nil, err
	}
	assistantService = assistant
	return assistant, nil
}

func requireSettings() (driving.SettingsService, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}
	return settingsService, nil
}

func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
}
