package cli

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure retrieval parameters and the embedding and
generation services.

Settings are stored in ~/.sercha-assist/config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the embedding and generation services step by step.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used to index documents and embed questions.

Changing the embedding model invalidates the existing table; run
'sercha-assist index' afterwards.`,
	RunE: runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure generation provider",
	Long:  `Configure the primary language model that writes answers.`,
	RunE:  runSettingsLLM,
}

var settingsFallbackCmd = &cobra.Command{
	Use:   "fallback",
	Short: "Configure fallback generation provider",
	Long: `Configure the language model tried once when the primary one times out
or refuses the connection. Use --clear to remove it.`,
	RunE: runSettingsFallback,
}

var settingsRetrievalCmd = &cobra.Command{
	Use:   "retrieval",
	Short: "Tune retrieval parameters",
	Long: `Tune how chunks are selected and when the assistant declines to answer.

Only the flags given are changed. Synonyms are added to queries that contain
their phrase before the query is embedded.

Examples:
  sercha-assist settings retrieval --min-confidence 40
  sercha-assist settings retrieval --synonym "plc = programmable logic controller"`,
	RunE: runSettingsRetrieval,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check settings and ping the AI services",
	RunE:  runSettingsValidate,
}

func init() {
	for _, c := range []*cobra.Command{settingsEmbeddingCmd, settingsLLMCmd, settingsFallbackCmd} {
		c.Flags().String("provider", "", "provider: ollama or openai (prompted when omitted)")
		c.Flags().String("model", "", "model name")
		c.Flags().String("base-url", "", "API endpoint (empty uses the provider default)")
	}
	settingsFallbackCmd.Flags().Bool("clear", false, "remove the fallback backend")

	settingsRetrievalCmd.Flags().Int("max-chunks", 0, "chunks fed to the context")
	settingsRetrievalCmd.Flags().Float64("diversity-threshold", 0, "minimum similarity for one chunk per document")
	settingsRetrievalCmd.Flags().Float64("fallback-threshold", 0, "minimum similarity to fill remaining slots")
	settingsRetrievalCmd.Flags().Int("context-budget", 0, "characters of context sent to the model")
	settingsRetrievalCmd.Flags().Int("min-confidence", 0, "confidence (0-100) below which the assistant declines")
	settingsRetrievalCmd.Flags().Int("chunk-size", 0, "words per chunk when indexing")
	settingsRetrievalCmd.Flags().StringArray("synonym", nil, `query synonyms as "phrase = alt, alt" (repeatable)`)
	settingsRetrievalCmd.Flags().Bool("clear-synonyms", false, "remove all configured synonyms")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsFallbackCmd)
	settingsCmd.AddCommand(settingsRetrievalCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Table: %s\n", settings.TablePath)
	cmd.Printf("  Documents: %s\n", settings.DocumentsDir)
	cmd.Println()

	r := settings.Retrieval
	cmd.Println("[Retrieval]")
	cmd.Printf("  Max chunks: %d\n", r.MaxChunks)
	cmd.Printf("  Diversity threshold: %.2f\n", r.DiversityThreshold)
	cmd.Printf("  Fallback threshold: %.2f\n", r.FallbackThreshold)
	cmd.Printf("  Context budget: %d chars\n", r.ContextBudget)
	cmd.Printf("  Min confidence: %d\n", r.MinConfidence)
	for _, entry := range domain.FormatSynonyms(r.Synonyms) {
		cmd.Printf("  Synonym: %s\n", entry)
	}
	cmd.Println()

	cmd.Println("[Indexing]")
	cmd.Printf("  Chunk size: %d words\n", settings.Indexing.ChunkSize)
	cmd.Printf("  Concurrency: %d\n", settings.Indexing.Concurrency)
	if settings.Indexing.RatePerSecond > 0 {
		cmd.Printf("  Rate limit: %.1f/s\n", settings.Indexing.RatePerSecond)
	}
	cmd.Println()

	cmd.Println("[Embedding]")
	printBackend(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey)
	cmd.Println()

	cmd.Println("[LLM]")
	printBackend(cmd, settings.LLM.Provider, settings.LLM.Model, settings.LLM.BaseURL, settings.LLM.APIKey)
	cmd.Printf("  Timeout: %s\n", settings.LLM.Timeout)
	cmd.Printf("  Temperature: %.2f\n", settings.LLM.Temperature)
	cmd.Printf("  Max tokens: %d\n", settings.LLM.MaxTokens)
	if settings.LLM.Structured {
		cmd.Println("  Structured output: yes")
	}
	cmd.Println()

	cmd.Println("[Fallback]")
	if settings.LLM.Fallback.IsConfigured() {
		fb := settings.LLM.Fallback
		printBackend(cmd, fb.Provider, fb.Model, fb.BaseURL, fb.APIKey)
	} else {
		cmd.Println("  (not set)")
	}
	cmd.Println()

	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'sercha-assist settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printBackend(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider == domain.AIProviderOpenAI {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	cmd.Println("sercha-assist Settings Wizard")
	cmd.Println("=============================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Embedding Provider")
	cmd.Println("--------------------------")
	if err := configureBackend(cmd, reader, svc, backendEmbedding); err != nil {
		return err
	}

	cmd.Println("Step 2: Generation Provider")
	cmd.Println("---------------------------")
	if err := configureBackend(cmd, reader, svc, backendLLM); err != nil {
		return err
	}

	cmd.Println("Setup complete. Run 'sercha-assist index' to build the embedding table.")
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	return runSettingsBackend(cmd, backendEmbedding)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	return runSettingsBackend(cmd, backendLLM)
}

func runSettingsFallback(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}
	if clearFallback, _ := cmd.Flags().GetBool("clear"); clearFallback {
		if err := svc.SetFallback("", "", ""); err != nil {
			return fmt.Errorf("failed to clear fallback: %w", err)
		}
		cmd.Println("Fallback backend removed.")
		return nil
	}
	return runSettingsBackend(cmd, backendFallback)
}

func runSettingsBackend(cmd *cobra.Command, kind backendKind) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("provider") {
		return configureBackend(cmd, bufio.NewReader(cmd.InOrStdin()), svc, kind)
	}

	providerName, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	baseURL, _ := cmd.Flags().GetString("base-url")

	provider := domain.AIProvider(providerName)
	if !provider.IsValid() {
		return fmt.Errorf("unknown provider %q: use ollama or openai", providerName)
	}
	if model == "" {
		model = kind.defaultModel()
	}
	if err := kind.set(svc, provider, model, baseURL); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", kind, err)
	}
	cmd.Printf("%s provider configured: %s (%s)\n", kind.title(), provider.Description(), model)
	return nil
}

func runSettingsRetrieval(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}
	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("max-chunks") {
		settings.Retrieval.MaxChunks, _ = flags.GetInt("max-chunks")
	}
	if flags.Changed("diversity-threshold") {
		settings.Retrieval.DiversityThreshold, _ = flags.GetFloat64("diversity-threshold")
	}
	if flags.Changed("fallback-threshold") {
		settings.Retrieval.FallbackThreshold, _ = flags.GetFloat64("fallback-threshold")
	}
	if flags.Changed("context-budget") {
		settings.Retrieval.ContextBudget, _ = flags.GetInt("context-budget")
	}
	if flags.Changed("min-confidence") {
		settings.Retrieval.MinConfidence, _ = flags.GetInt("min-confidence")
	}
	if flags.Changed("chunk-size") {
		settings.Indexing.ChunkSize, _ = flags.GetInt("chunk-size")
		if settings.Indexing.ChunkSize < 1 {
			return fmt.Errorf("%w: chunk size must be at least 1", domain.ErrInvalidInput)
		}
	}

	if clearSynonyms, _ := flags.GetBool("clear-synonyms"); clearSynonyms {
		settings.Retrieval.Synonyms = nil
	}
	if flags.Changed("synonym") {
		entries, _ := flags.GetStringArray("synonym")
		added, err := domain.ParseSynonyms(entries)
		if err != nil {
			return err
		}
		if settings.Retrieval.Synonyms == nil {
			settings.Retrieval.Synonyms = make(map[string][]string, len(added))
		}
		maps.Copy(settings.Retrieval.Synonyms, added)
	}

	if err := settings.Retrieval.Validate(); err != nil {
		return err
	}
	if err := svc.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println("Retrieval settings saved.")
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	if err := svc.Validate(); err != nil {
		return err
	}

	cmd.Print("Embedding service... ")
	if err := svc.ValidateEmbeddingConfig(); err != nil {
		cmd.Println("FAILED")
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Print("Generation service... ")
	if err := svc.ValidateLLMConfig(); err != nil {
		cmd.Println("FAILED")
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")
	return nil
}

// backendKind names which configured service a prompt edits.
type backendKind string

const (
	backendEmbedding backendKind = "embedding"
	backendLLM       backendKind = "LLM"
	backendFallback  backendKind = "fallback"
)

func (k backendKind) title() string {
	switch k {
	case backendEmbedding:
		return "Embedding"
	case backendFallback:
		return "Fallback"
	default:
		return "LLM"
	}
}

func (k backendKind) defaultModel() string {
	if k == backendEmbedding {
		return domain.DefaultEmbeddingModel
	}
	return domain.DefaultLLMModel
}

func (k backendKind) set(svc driving.SettingsService, provider domain.AIProvider, model, baseURL string) error {
	switch k {
	case backendEmbedding:
		return svc.SetEmbeddingProvider(provider, model, baseURL)
	case backendFallback:
		return svc.SetFallback(provider, model, baseURL)
	default:
		return svc.SetLLMProvider(provider, model, baseURL)
	}
}

func (k backendKind) validate(svc driving.SettingsService) error {
	if k == backendEmbedding {
		return svc.ValidateEmbeddingConfig()
	}
	return svc.ValidateLLMConfig()
}

// setAPIKey stores the key on the backend the kind refers to.
func (k backendKind) setAPIKey(settings *domain.AppSettings, key string) {
	switch k {
	case backendEmbedding:
		settings.Embedding.APIKey = key
	case backendFallback:
		settings.LLM.Fallback.APIKey = key
	default:
		settings.LLM.APIKey = key
	}
}

func configureBackend(cmd *cobra.Command, reader *bufio.Reader, svc driving.SettingsService, kind backendKind) error {
	cmd.Printf("Select %s Provider\n", kind.title())
	providers := domain.AllProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	provider := providers[idx-1]

	defaultModel := kind.defaultModel()
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	cmd.Print("Enter base URL [provider default]: ")
	baseURL := readLine(reader)

	if err := kind.set(svc, provider, model, baseURL); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", kind, err)
	}

	if provider == domain.AIProviderOpenAI {
		cmd.Print("Enter API key [none]: ")
		if key := readPassword(cmd.InOrStdin(), reader); key != "" {
			settings, err := svc.Get()
			if err != nil {
				return fmt.Errorf("failed to get settings: %w", err)
			}
			kind.setAPIKey(settings, key)
			if err := svc.Save(settings); err != nil {
				return fmt.Errorf("failed to save API key: %w", err)
			}
		}
		cmd.Println()
	}

	cmd.Print("Validating configuration... ")
	if err := kind.validate(svc); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", kind, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n\n", kind.title(), provider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
