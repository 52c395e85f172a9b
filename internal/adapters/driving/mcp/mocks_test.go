package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
)

// mockAssistant is a mock implementation of driving.AssistantService.
type mockAssistant struct {
	answer  *domain.Answer
	err     error
	stats   *domain.StoreStats
	summary *domain.IndexSummary

	lastReq  domain.QueryRequest
	lastDocs []domain.Document
	path     string
}

var _ driving.AssistantService = (*mockAssistant)(nil)

func (m *mockAssistant) Query(_ context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	m.lastReq = req
	if m.answer == nil {
		return &domain.Answer{State: domain.StateFailed}, m.err
	}
	return m.answer, m.err
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

// mockDocuments is a mock DocumentSource.
type mockDocuments struct {
	docs []domain.Document
	err  error
}

func (m *mockDocuments) Documents(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}
