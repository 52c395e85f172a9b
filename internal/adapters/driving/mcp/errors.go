// Package mcp provides an MCP (Model Context Protocol) server adapter for
// the assistant. It lets MCP clients ask questions against the knowledge
// base, inspect the loaded table and trigger a reindex.
package mcp

import (
	"errors"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// ErrMissingAssistant is returned when the assistant service is not provided.
var ErrMissingAssistant = errors.New("mcp: assistant service is required")

// ErrNoDocumentSource is returned by reindex when no document source is wired.
var ErrNoDocumentSource = errors.New("mcp: reindex is not available without a documents directory")

// ToolError carries the user-facing text of a failed tool call while
// keeping the underlying error for errors.Is.
type ToolError struct {
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	return e.Message
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// toolError converts a pipeline error into the message shown to clients.
// Errors outside the domain taxonomy keep their own text.
func toolError(err error) error {
	if err == nil {
		return nil
	}
	msg := domain.UserMessage(err)
	if msg == domain.MessageUnexpected {
		msg = err.Error()
	}
	return &ToolError{Message: msg, Err: err}
}
