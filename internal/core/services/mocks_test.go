package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// --- Mock implementations ---

// conceptDims maps words onto a handful of concepts so tests get
// meaningful similarities without a real model.
var conceptDims = map[string]int{
	"emergency": 0, "stop": 0, "e-stop": 0, "estop": 0,
	"color": 1, "colour": 1, "red": 1,
	"button": 2, "buttons": 2, "pushbutton": 2,
	"mushroom-shaped": 3, "shape": 3,
	"iso": 4, "standard": 4,
	"risk": 5, "hazard": 5, "assessment": 5, "analysis": 5,
	"ce": 6, "marking": 6, "mark": 6,
	"voltage": 7, "electrical": 7,
}

const conceptCount = 8

func conceptVector(text string) []float64 {
	vec := make([]float64, conceptCount)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,?!;:()\"'")
		if dim, ok := conceptDims[word]; ok {
			vec[dim]++
		}
	}
	return vec
}

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	mu     sync.Mutex
	calls  int
	texts  []string
	failOn int // 1-based call number that fails; 0 never fails
	err    error
	dims   int // overrides vector length when non-zero
	model  string
	embed  func(text string) []float64
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{model: "concept-test", embed: conceptVector}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil && (m.failOn == 0 || call == m.failOn) {
		return nil, m.err
	}
	if m.dims > 0 {
		return make([]float64, m.dims), nil
	}
	return m.embed(text), nil
}

func (m *mockEmbedder) ModelName() string            { return m.model }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockBackend implements driven.GenerationBackend for testing.
type mockBackend struct {
	name   string
	vision bool

	mu       sync.Mutex
	requests []driven.ChatRequest
	// respond handles each call; defaults to a fixed answer.
	respond func(ctx context.Context, req driven.ChatRequest) (*driven.ChatResponse, error)
}

var _ driven.GenerationBackend = (*mockBackend)(nil)

func newMockBackend(name string) *mockBackend {
	return &mockBackend{
		name: name,
		respond: func(_ context.Context, req driven.ChatRequest) (*driven.ChatResponse, error) {
			return &driven.ChatResponse{Content: "Emergency stops must be red.", Model: req.Model}, nil
		},
	}
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) SupportsVision(model string) bool {
	return m.vision || domain.IsVisionModel(model, nil)
}

func (m *mockBackend) Chat(ctx context.Context, req driven.ChatRequest) (*driven.ChatResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.respond(ctx, req)
}

func (m *mockBackend) Ping(_ context.Context) error { return nil }
func (m *mockBackend) Close() error                 { return nil }

func (m *mockBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockBackend) lastRequest() driven.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// blockUntilDone waits for the context and reports its error, like a
// transport whose request was aborted.
func blockUntilDone(ctx context.Context, _ driven.ChatRequest) (*driven.ChatResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func failWith(err error) func(context.Context, driven.ChatRequest) (*driven.ChatResponse, error) {
	return func(context.Context, driven.ChatRequest) (*driven.ChatResponse, error) {
		return nil, err
	}
}

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", errors.New("missing prompt")
}

func (m *mockPromptStore) Reload() {}

// mockValidator implements driven.AIConfigValidator for testing.
type mockValidator struct {
	embeddingErr  error
	generationErr error
	validated     []string
}

func (m *mockValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.validated = append(m.validated, "embedding:"+cfg.Model)
	return m.embeddingErr
}

func (m *mockValidator) ValidateGeneration(cfg *domain.BackendSettings) error {
	m.validated = append(m.validated, "generation:"+cfg.Model)
	return m.generationErr
}
