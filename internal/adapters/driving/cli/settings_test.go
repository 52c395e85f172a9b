package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

func TestSettingsCmd_Show(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.LLM.Fallback = domain.BackendSettings{
		Provider: domain.AIProviderOpenAI,
		Model:    "llama-3.2-1b",
		APIKey:   "sk-1234567890abcdef",
	}

	out, err := executeCommand(t, "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Table: /data/embeddings.json")
	assert.Contains(t, out, "Max chunks: 4")
	assert.Contains(t, out, "Min confidence: 30")
	assert.Contains(t, out, "Chunk size: 300 words")
	assert.Contains(t, out, "Model: all-minilm")
	assert.Contains(t, out, "Model: qwen2:0.5b")
	assert.Contains(t, out, "Model: llama-3.2-1b")
	assert.Contains(t, out, "API Key: sk-1...cdef")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsCmd_ShowWarnsWhenInvalid(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.validateErr = errors.New("embedding provider is not configured")

	out, err := executeCommand(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: embedding provider is not configured")
	assert.Contains(t, out, "(not set)")
}

func TestSettingsCmd_EmbeddingFlags(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "settings", "embedding",
		"--provider", "openai", "--model", "nomic-embed-text", "--base-url", "http://localhost:1234/v1")

	require.NoError(t, err)
	emb := ts.settings.settings.Embedding
	assert.Equal(t, domain.AIProviderOpenAI, emb.Provider)
	assert.Equal(t, "nomic-embed-text", emb.Model)
	assert.Equal(t, "http://localhost:1234/v1", emb.BaseURL)
	assert.Contains(t, out, "Embedding provider configured")
}

func TestSettingsCmd_LLMDefaultModel(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.LLM.Model = "something-else"

	_, err := executeCommand(t, "settings", "llm", "--provider", "ollama")

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultLLMModel, ts.settings.settings.LLM.Model)
}

func TestSettingsCmd_UnknownProvider(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "settings", "llm", "--provider", "anthropic")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "anthropic"`)
}

func TestSettingsCmd_LLMInteractive(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("2\nllama-3.2-3b\nhttp://localhost:1234/v1\nsk-test-key-123456\n"))
	out, err := executeCommand(t, "settings", "llm")

	require.NoError(t, err)
	llm := ts.settings.settings.LLM
	assert.Equal(t, domain.AIProviderOpenAI, llm.Provider)
	assert.Equal(t, "llama-3.2-3b", llm.Model)
	assert.Equal(t, "http://localhost:1234/v1", llm.BaseURL)
	assert.Equal(t, "sk-test-key-123456", llm.APIKey)
	assert.Contains(t, out, "Validating configuration... OK")
}

func TestSettingsCmd_InteractiveValidationFails(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.pingErr = domain.ErrEmbeddingUnavailable

	rootCmd.SetIn(strings.NewReader("\n\n\n"))
	out, err := executeCommand(t, "settings", "embedding")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, out, "FAILED")
	assert.Equal(t, domain.AIProviderOllama, ts.settings.settings.Embedding.Provider)
	assert.Equal(t, domain.DefaultEmbeddingModel, ts.settings.settings.Embedding.Model)
}

func TestSettingsCmd_Wizard(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("1\nmxbai-embed-large\n\n1\nllama3.2\n\n"))
	out, err := executeCommand(t, "settings", "wizard")

	require.NoError(t, err)
	assert.Equal(t, "mxbai-embed-large", ts.settings.settings.Embedding.Model)
	assert.Equal(t, "llama3.2", ts.settings.settings.LLM.Model)
	assert.Contains(t, out, "Setup complete.")
}

func TestSettingsCmd_Fallback(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "settings", "fallback", "--provider", "openai", "--model", "phi-3")
	require.NoError(t, err)
	assert.Equal(t, "phi-3", ts.settings.settings.LLM.Fallback.Model)

	out, err := executeCommand(t, "settings", "fallback", "--clear")
	require.NoError(t, err)
	assert.Equal(t, domain.BackendSettings{}, ts.settings.settings.LLM.Fallback)
	assert.Contains(t, out, "Fallback backend removed.")
}

func TestSettingsCmd_Retrieval(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "settings", "retrieval", "--max-chunks", "6", "--min-confidence", "45", "--chunk-size", "200")

	require.NoError(t, err)
	r := ts.settings.settings.Retrieval
	assert.Equal(t, 6, r.MaxChunks)
	assert.Equal(t, 45, r.MinConfidence)
	assert.Equal(t, domain.DefaultContextBudget, r.ContextBudget)
	assert.Equal(t, 200, ts.settings.settings.Indexing.ChunkSize)
	assert.Equal(t, 1, ts.settings.saved)
}

func TestSettingsCmd_RetrievalSynonyms(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.Retrieval.Synonyms = map[string][]string{"guard": {"fence"}}

	_, err := executeCommand(t, "settings", "retrieval",
		"--synonym", "PLC = programmable logic controller",
		"--synonym", "light curtain = safety light curtain")

	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"guard":         {"fence"},
		"plc":           {"programmable logic controller"},
		"light curtain": {"safety light curtain"},
	}, ts.settings.settings.Retrieval.Synonyms)
	assert.Equal(t, 1, ts.settings.saved)
}

func TestSettingsCmd_RetrievalClearSynonyms(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.Retrieval.Synonyms = map[string][]string{"guard": {"fence"}}

	_, err := executeCommand(t, "settings", "retrieval", "--clear-synonyms")

	require.NoError(t, err)
	assert.Nil(t, ts.settings.settings.Retrieval.Synonyms)
}

func TestSettingsCmd_RetrievalRejectsMalformedSynonym(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "settings", "retrieval", "--synonym", "no separator")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, ts.settings.saved)
}

func TestSettingsCmd_ShowSynonyms(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.settings.settings.Retrieval.Synonyms = map[string][]string{"plc": {"controller", "programmable logic controller"}}

	out, err := executeCommand(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Synonym: plc = controller, programmable logic controller")
}

func TestSettingsCmd_RetrievalRejectsInvalid(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand(t, "settings", "retrieval", "--fallback-threshold", "0.9")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, ts.settings.saved)
}

func TestSettingsCmd_Validate(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand(t, "settings", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Embedding service... OK")
	assert.Contains(t, out, "Generation service... OK")

	ts.settings.pingErr = domain.ErrConnectionRefused
	_, err = executeCommand(t, "settings", "validate")
	assert.ErrorIs(t, err, domain.ErrConnectionRefused)
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short key",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long key",
			input:    "sk-1234567890abcdef",
			expected: "sk-1...cdef",
		},
		{
			name:     "Very long key",
			input:    "sk-proj-1234567890abcdefghijklmnop",
			expected: "sk-p...mnop",
		},
		{
			name:     "Empty key",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskAPIKey(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}
