// Package ollama provides a generation backend adapter using Ollama.
package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/adapters/driven/transport"
	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure Backend implements the interface.
var _ driven.GenerationBackend = (*Backend)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = domain.DefaultLLMModel
)

const serviceName = "ollama"

// Config holds configuration for the Ollama backend.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Timeout bounds each request. Zero leaves it to the caller's context.
	Timeout time.Duration

	// VisionModels extends the built-in list of image-capable model names.
	VisionModels []string
}

// Backend generates chat completions using Ollama.
type Backend struct {
	client       *http.Client
	baseURL      string
	visionModels []string
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string          `json:"model"`
	Messages []chatMessage   `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   json.RawMessage `json:"format,omitempty"`
	Options  *options        `json:"options,omitempty"`
}

// chatMessage is the Ollama chat message format. Images are base64.
type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// chatResponse is the Ollama /api/chat response format.
type chatResponse struct {
	Model   string      `json:"model"`
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// NewBackend creates a new Ollama generation backend.
func NewBackend(cfg Config) *Backend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	return &Backend{
		client:       transport.NewClient(cfg.Timeout),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		visionModels: cfg.VisionModels,
	}
}

// Name returns the backend name used in logs and diagnostics.
func (b *Backend) Name() string {
	return serviceName
}

// SupportsVision reports whether model accepts images.
func (b *Backend) SupportsVision(model string) bool {
	return domain.IsVisionModel(model, b.visionModels)
}

// Chat sends one non-streaming chat request.
func (b *Backend) Chat(ctx context.Context, req driven.ChatRequest) (*driven.ChatResponse, error) {
	messages := make([]chatMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = chatMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
		for _, img := range msg.Images {
			messages[i].Images = append(messages[i].Images, base64.StdEncoding.EncodeToString(img))
		}
	}

	body := chatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   false,
	}
	if req.MaxTokens > 0 || req.Temperature > 0 {
		body.Options = &options{
			NumPredict:  req.MaxTokens,
			Temperature: req.Temperature,
		}
	}
	if req.Structured {
		body.Format = transport.EnvelopeSchema
	}

	var resp chatResponse
	if err := transport.PostJSON(ctx, b.client, serviceName, b.baseURL+"/api/chat", body, &resp); err != nil {
		return nil, classify(err)
	}

	return &driven.ChatResponse{
		Content: resp.Message.Content,
		Model:   resp.Model,
	}, nil
}

// classify tags status failures the generator acts on.
func classify(err error) error {
	switch code := transport.StatusCode(err); {
	case code == http.StatusBadRequest && transport.MentionsImage(transport.ErrorText(err)):
		return fmt.Errorf("%w: %w", domain.ErrImageRejected, err)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	default:
		return err
	}
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (b *Backend) Ping(ctx context.Context) error {
	return transport.Get(ctx, b.client, serviceName, b.baseURL+"/api/tags")
}

// Close releases resources.
func (b *Backend) Close() error {
	return nil
}
