package mcp

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/logger"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the knowledge base"`
	Model    string `json:"model,omitempty" jsonschema:"generation model overriding the configured one"`
	Image    string `json:"image,omitempty" jsonschema:"optional base64 encoded image for vision models"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	RequestID       string                `json:"request_id"`
	State           string                `json:"state"`
	Answer          string                `json:"answer"`
	Reasoning       string                `json:"reasoning,omitempty"`
	Confidence      int                   `json:"confidence"`
	ConfidenceLevel string                `json:"confidence_level"`
	Refused         bool                  `json:"refused"`
	Sources         []domain.AnswerSource `json:"sources"`
	Elapsed         string                `json:"elapsed"`
}

// StatsInput is the (empty) input schema for the stats tool.
type StatsInput struct{}

// ReindexInput is the (empty) input schema for the reindex tool.
type ReindexInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask",
		Description: "Answer a question from the local knowledge base. " +
			"Refuses with a fixed message when the retrieved context is not relevant enough.",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Summarise the loaded embedding table: documents, chunks and dimensions",
	}, s.handleStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reindex",
		Description: "Rebuild the embedding table from the documents directory",
	}, s.handleReindex)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	req := domain.QueryRequest{
		Question: input.Question,
		Model:    strings.TrimSpace(input.Model),
	}
	if input.Image != "" {
		img, err := base64.StdEncoding.DecodeString(input.Image)
		if err != nil {
			return nil, AskOutput{}, &ToolError{
				Message: "image is not valid base64",
				Err:     fmt.Errorf("%w: %w", domain.ErrInvalidInput, err),
			}
		}
		req.Image = img
	}

	answer, err := s.ports.Assistant.Query(ctx, req)
	if err != nil {
		logger.Warn("ask failed: %v", err)
		return nil, AskOutput{}, toolError(err)
	}

	return nil, AskOutput{
		RequestID:       answer.RequestID,
		State:           answer.State.String(),
		Answer:          answer.Text,
		Reasoning:       answer.Reasoning,
		Confidence:      answer.Confidence,
		ConfidenceLevel: answer.ConfidenceLevel.String(),
		Refused:         answer.Refused(),
		Sources:         answer.Sources,
		Elapsed:         answer.Diagnostics.ElapsedFormatted,
	}, nil
}

func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, domain.StoreStats, error) {
	stats, err := s.ports.Assistant.Stats(ctx)
	if err != nil {
		return nil, domain.StoreStats{}, toolError(err)
	}
	return nil, *stats, nil
}

func (s *Server) handleReindex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ReindexInput,
) (*mcp.CallToolResult, domain.IndexSummary, error) {
	if s.ports.Documents == nil {
		return nil, domain.IndexSummary{}, ErrNoDocumentSource
	}

	docs, err := s.ports.Documents.Documents(ctx)
	if err != nil {
		return nil, domain.IndexSummary{}, fmt.Errorf("loading documents: %w", err)
	}

	summary, err := s.ports.Assistant.Reindex(ctx, docs)
	if err != nil {
		logger.Warn("reindex failed: %v", err)
		return nil, domain.IndexSummary{}, fmt.Errorf("reindex: %w", err)
	}
	return nil, *summary, nil
}
