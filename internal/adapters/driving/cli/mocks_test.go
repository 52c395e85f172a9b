package cli

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-assist/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
)

// mockAssistant is a mock implementation of driving.AssistantService.
// With wait set, Query holds each answer back until wait passes or the
// request is canceled.
type mockAssistant struct {
	answer  *domain.Answer
	err     error
	stats   *domain.StoreStats
	summary *domain.IndexSummary
	path    string
	wait    time.Duration

	mu        sync.Mutex
	questions []string
	canceled  []bool
	lastReq   domain.QueryRequest
	lastDocs  []domain.Document
}

var _ driving.AssistantService = (*mockAssistant)(nil)

func (m *mockAssistant) Query(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	m.mu.Lock()
	m.questions = append(m.questions, req.Question)
	m.lastReq = req
	m.mu.Unlock()

	canceled := false
	if m.wait > 0 {
		select {
		case <-ctx.Done():
			canceled = true
		case <-time.After(m.wait):
		}
	}
	m.mu.Lock()
	m.canceled = append(m.canceled, canceled)
	m.mu.Unlock()

	if canceled {
		return &domain.Answer{State: domain.StateCanceled, Text: domain.MessageCanceled}, domain.ErrCanceled
	}
	if m.err != nil {
		return &domain.Answer{State: domain.StateFailed, Text: domain.UserMessage(m.err)}, m.err
	}
	return m.answer, nil
}

func (m *mockAssistant) Reindex(_ context.Context, docs []domain.Document) (*domain.IndexSummary, error) {
	m.lastDocs = docs
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

func (m *mockAssistant) SetTablePath(path string) error {
	m.path = path
	return nil
}

func (m *mockAssistant) TablePath() string {
	return m.path
}

func (m *mockAssistant) Stats(_ context.Context) (*domain.StoreStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

// mockSettings is a mock implementation of driving.SettingsService.
type mockSettings struct {
	settings    domain.AppSettings
	validateErr error
	pingErr     error
	saved       int
}

var _ driving.SettingsService = (*mockSettings)(nil)

func newMockSettings() *mockSettings {
	s := domain.DefaultAppSettings()
	s.TablePath = "/data/embeddings.json"
	s.DocumentsDir = "/data/documents"
	return &mockSettings{settings: s}
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	m.saved++
	return nil
}

func (m *mockSettings) SetEmbeddingProvider(provider domain.AIProvider, model, baseURL string) error {
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.BaseURL = baseURL
	return nil
}

func (m *mockSettings) SetLLMProvider(provider domain.AIProvider, model, baseURL string) error {
	m.settings.LLM.Provider = provider
	m.settings.LLM.Model = model
	m.settings.LLM.BaseURL = baseURL
	return nil
}

func (m *mockSettings) SetFallback(provider domain.AIProvider, model, baseURL string) error {
	m.settings.LLM.Fallback = domain.BackendSettings{Provider: provider, Model: model, BaseURL: baseURL}
	return nil
}

func (m *mockSettings) SetTablePath(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	m.settings.TablePath = path
	return nil
}

func (m *mockSettings) Validate() error {
	return m.validateErr
}

func (m *mockSettings) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettings) ValidateEmbeddingConfig() error {
	return m.pingErr
}

func (m *mockSettings) ValidateLLMConfig() error {
	return m.pingErr
}

// mockLoader is a mock documentLoader.
type mockLoader struct {
	docs    []domain.Document
	skipped []filesystem.Skipped
	err     error
}

func (m *mockLoader) Load(_ context.Context) ([]domain.Document, []filesystem.Skipped, error) {
	return m.docs, m.skipped, m.err
}

func (m *mockLoader) Documents(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockLoader) Dir() string {
	return "/data/documents"
}

// mockImporter is a mock documentImporter.
type mockImporter struct {
	result   *filesystem.ImportResult
	err      error
	sources  []string
	policies []domain.ConflictPolicy
}

func (m *mockImporter) Import(_ context.Context, src string, policy domain.ConflictPolicy) (*filesystem.ImportResult, error) {
	m.sources = append(m.sources, src)
	m.policies = append(m.policies, policy)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// testServices are the mocks installed by setupTestServices.
type testServices struct {
	assistant *mockAssistant
	settings  *mockSettings
	loader    *mockLoader
	importer  *mockImporter
}

// setupTestServices installs mocks for every service and returns a
// cleanup function restoring the previous ones.
func setupTestServices() (*testServices, func()) {
	prevSettings, prevAssistant := settingsService, assistantService
	prevLoader, prevImporter, prevCache := loader, importer, tableCache
	prevFactory := newAssistant

	ts := &testServices{
		assistant: &mockAssistant{
			answer:  &domain.Answer{State: domain.StateDone, Text: "ok"},
			stats:   &domain.StoreStats{},
			summary: &domain.IndexSummary{},
			path:    "/data/embeddings.json",
		},
		settings:  newMockSettings(),
		loader:    &mockLoader{},
		importer:  &mockImporter{result: &filesystem.ImportResult{}},
	}
	settingsService = ts.settings
	assistantService = ts.assistant
	loader = ts.loader
	importer = ts.importer
	tableCache = nil
	newAssistant = nil
	resetFlags(rootCmd)

	return ts, func() {
		settingsService, assistantService = prevSettings, prevAssistant
		loader, importer, tableCache = prevLoader, prevImporter, prevCache
		newAssistant = prevFactory
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}

// resetFlags restores every flag of cmd and its children to its default,
// since cobra keeps parsed values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil) //nolint:errcheck
		} else {
			f.Value.Set(f.DefValue) //nolint:errcheck
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}
