// Package openai provides a generation backend for OpenAI-compatible
// servers such as LM Studio and the llama.cpp server.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/sercha-assist/internal/adapters/driven/transport"
	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure Backend implements the interface.
var _ driven.GenerationBackend = (*Backend)(nil)

// DefaultBaseURL is LM Studio's local server.
const DefaultBaseURL = transport.DefaultOpenAIBaseURL

const (
	serviceName  = "openai"
	envelopeName = "answer_envelope"
)

// Config holds configuration for the OpenAI-compatible backend.
type Config struct {
	// APIKey is optional for local servers.
	APIKey string

	// BaseURL is the API base URL (default: LM Studio on 127.0.0.1:1234).
	BaseURL string

	// Timeout bounds each request. Zero leaves it to the caller's context.
	Timeout time.Duration

	// VisionModels extends the built-in list of image-capable model names.
	VisionModels []string
}

// Backend generates chat completions through /chat/completions.
type Backend struct {
	client       *openai.Client
	visionModels []string
}

// NewBackend creates a new OpenAI-compatible backend.
func NewBackend(cfg Config) *Backend {
	return &Backend{
		client:       transport.NewOpenAIClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout),
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

// Chat sends one non-streaming chat completion.
func (b *Backend) Chat(ctx context.Context, req driven.ChatRequest) (*driven.ChatResponse, error) {
	completion := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toMessages(req.Messages),
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	if req.Structured {
		completion.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   envelopeName,
				Schema: transport.EnvelopeSchema,
				Strict: true,
			},
		}
	}

	resp, err := b.client.CreateChatCompletion(ctx, completion)
	if err != nil {
		return nil, classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: %w: no completion choices returned", serviceName, domain.ErrMalformedResponse)
	}

	return &driven.ChatResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
	}, nil
}

// toMessages converts chat messages, sending images as data URLs.
func toMessages(messages []driven.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		if len(msg.Images) == 0 {
			out[i] = openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
			continue
		}

		parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: msg.Content}}
		for _, img := range msg.Images {
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: dataURL(img)},
			})
		}
		out[i] = openai.ChatCompletionMessage{Role: msg.Role, MultiContent: parts}
	}
	return out
}

func dataURL(img []byte) string {
	return "data:" + http.DetectContentType(img) + ";base64," + base64.StdEncoding.EncodeToString(img)
}

// classify maps a failed completion onto the generation error taxonomy.
func classify(ctx context.Context, err error) error {
	err = transport.Classify(ctx, err)
	switch code := transport.StatusCode(err); {
	case code == http.StatusBadRequest && transport.MentionsImage(transport.ErrorText(err)):
		return fmt.Errorf("%s: %w: %w", serviceName, domain.ErrImageRejected, err)
	case code == http.StatusNotFound:
		return fmt.Errorf("%s: %w: %w", serviceName, domain.ErrNotFound, err)
	case code == 0 && !isTransport(err):
		return fmt.Errorf("%s: %w: %w", serviceName, domain.ErrMalformedResponse, err)
	default:
		return fmt.Errorf("%s: %w", serviceName, err)
	}
}

func isTransport(err error) bool {
	return errors.Is(err, domain.ErrCanceled) ||
		errors.Is(err, domain.ErrGenerationTimeout) ||
		errors.Is(err, domain.ErrConnectionRefused)
}

// Ping validates the server is reachable by listing its models.
func (b *Backend) Ping(ctx context.Context) error {
	if _, err := b.client.ListModels(ctx); err != nil {
		return fmt.Errorf("%s: ping: %w", serviceName, transport.Classify(ctx, err))
	}
	return nil
}

// Close releases resources.
func (b *Backend) Close() error {
	return nil
}
