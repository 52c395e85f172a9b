package driven

import "context"

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GenerationBackend produces a completion from role-structured messages.
// The call is treated as opaque: given messages, return text.
//
// Errors wrap one of domain.ErrConnectionRefused, domain.ErrGenerationTimeout,
// domain.ErrCanceled, domain.ErrMalformedResponse or domain.ErrImageRejected.
type GenerationBackend interface {
	// Name identifies the backend in diagnostics (e.g. "ollama").
	Name() string

	// SupportsVision reports whether model accepts attached images.
	SupportsVision(model string) bool

	// Chat sends the messages and waits for the full completion.
	// Cancelling ctx aborts the underlying request.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of RoleSystem, RoleUser or RoleAssistant.
	Role string

	// Content is the message text.
	Content string

	// Images are raw image attachments. Only sent to vision models.
	Images [][]byte
}

// ChatRequest configures one completion.
type ChatRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int

	// Structured asks for a {thinking, answer} JSON envelope where supported.
	Structured bool
}

// ChatResponse is the raw completion. Content may be plain text or a
// {thinking, answer} JSON envelope; callers normalise it.
type ChatResponse struct {
	Content string
	Model   string
}
