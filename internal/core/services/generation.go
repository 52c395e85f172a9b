package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/logger"
)

// Route pairs a generation backend with the model to request from it.
type Route struct {
	Backend driven.GenerationBackend
	Model   string
}

// GenerateRequest is the input of one generation.
type GenerateRequest struct {
	// Context is the assembled context block.
	Context string

	// Query is the user's question as typed.
	Query string

	// Image is an optional attachment.
	Image []byte

	// Model overrides the primary route's model when set.
	Model string
}

// GenerateResult is a normalised completion.
type GenerateResult struct {
	Answer    string
	Reasoning string
	Backend   string
	Model     string
	FellBack  bool
	ImageUsed bool
}

// GeneratorOptions tunes every attempt.
type GeneratorOptions struct {
	// Timeout bounds each attempt. Zero means no per-attempt limit.
	Timeout time.Duration

	Temperature float64
	MaxTokens   int

	// Structured asks backends for a {thinking, answer} envelope.
	Structured bool
}

// Generator sends the assembled prompt through an ordered list of routes.
// The next route is tried only after a timeout or refused connection,
// and each route is attempted once.
type Generator struct {
	routes  []Route
	prompts driven.PromptStore
	opts    GeneratorOptions
}

// NewGenerator creates a generator. prompts may be nil, in which case
// the built-in prompts are used.
func NewGenerator(routes []Route, prompts driven.PromptStore, opts GeneratorOptions) *Generator {
	return &Generator{
		routes:  routes,
		prompts: prompts,
		opts:    opts,
	}
}

// PrimaryModel returns the model of the first route.
func (g *Generator) PrimaryModel() string {
	if len(g.routes) == 0 {
		return ""
	}
	return g.routes[0].Model
}

// Generate builds the messages and walks the routes.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if len(g.routes) == 0 {
		return nil, domain.ErrNoBackends
	}
	logger.Section("Generation")

	var lastErr error
	for i, route := range g.routes {
		model := route.Model
		if i == 0 && req.Model != "" {
			model = req.Model
		}
		if i > 0 {
			logger.Warn("Falling back to %s/%s after: %v", route.Backend.Name(), model, lastErr)
		}

		result, err := g.attempt(ctx, route.Backend, model, req)
		if err == nil {
			result.FellBack = i > 0
			return result, nil
		}
		if errors.Is(err, domain.ErrCanceled) || !domain.IsFallbackEligible(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// attempt runs one route, retrying text-only once if the backend rejects the image.
func (g *Generator) attempt(
	ctx context.Context, backend driven.GenerationBackend, model string, req GenerateRequest,
) (*GenerateResult, error) {
	useImage := len(req.Image) > 0 && backend.SupportsVision(model)
	if len(req.Image) > 0 && !useImage {
		logger.Warn("Model %s does not support images; answering from text only", model)
	}

	result, err := g.call(ctx, backend, model, req, useImage)
	if err != nil && useImage && errors.Is(err, domain.ErrImageRejected) {
		logger.Warn("Model %s rejected the image; retrying text only", model)
		result, err = g.call(ctx, backend, model, req, false)
	}
	return result, err
}

func (g *Generator) call(
	ctx context.Context, backend driven.GenerationBackend, model string, req GenerateRequest, useImage bool,
) (*GenerateResult, error) {
	messages, err := g.buildMessages(req, useImage)
	if err != nil {
		return nil, err
	}

	attemptCtx := ctx
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	logger.Debug("Calling %s model=%s messages=%d image=%t", backend.Name(), model, len(messages), useImage)
	stop := logger.Timer(backend.Name() + " chat")
	resp, err := backend.Chat(attemptCtx, driven.ChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
		Structured:  g.opts.Structured,
	})
	stop()
	if err != nil {
		return nil, classifyAttemptError(ctx, attemptCtx, backend.Name(), err)
	}

	answer, reasoning := NormalizeResponse(resp.Content)
	if answer == "" {
		return nil, fmt.Errorf("%s: %w: empty answer", backend.Name(), domain.ErrMalformedResponse)
	}
	if resp.Model != "" {
		model = resp.Model
	}
	return &GenerateResult{
		Answer:    answer,
		Reasoning: reasoning,
		Backend:   backend.Name(),
		Model:     model,
		ImageUsed: useImage,
	}, nil
}

// classifyAttemptError separates caller cancellation from the per-attempt
// deadline, whatever the backend reported.
func classifyAttemptError(parent, attempt context.Context, backend string, err error) error {
	switch {
	case parent.Err() != nil:
		return fmt.Errorf("%s: %w", backend, domain.ErrCanceled)
	case errors.Is(attempt.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrGenerationTimeout):
		return fmt.Errorf("%s: %w: %w", backend, domain.ErrGenerationTimeout, err)
	default:
		return fmt.Errorf("%s: %w", backend, err)
	}
}

func (g *Generator) buildMessages(req GenerateRequest, useImage bool) ([]driven.ChatMessage, error) {
	system, err := g.prompt(domain.PromptAnswerSystem)
	if err != nil {
		return nil, err
	}
	userTemplate, err := g.prompt(domain.PromptAnswerUser)
	if err != nil {
		return nil, err
	}

	closing := domain.PromptTextInstruction
	switch {
	case useImage:
		addendum, err := g.prompt(domain.PromptVisionAddendum)
		if err != nil {
			return nil, err
		}
		system += "\n\n" + addendum
		closing = domain.PromptVisionInstruction
	case len(req.Image) > 0:
		closing = domain.PromptImageUnsupported
	}
	instruction, err := g.prompt(closing)
	if err != nil {
		return nil, err
	}

	user := driven.ChatMessage{
		Role:    driven.RoleUser,
		Content: fmt.Sprintf(userTemplate, req.Context, req.Query) + "\n\n" + instruction,
	}
	if useImage {
		user.Images = [][]byte{req.Image}
	}

	return []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: system},
		user,
	}, nil
}

func (g *Generator) prompt(name string) (string, error) {
	if g.prompts != nil {
		p, err := g.prompts.Load(name)
		if err == nil {
			return p, nil
		}
		logger.Warn("Prompt %q unavailable, using built-in: %v", name, err)
	}
	p, ok := domain.DefaultPrompt(name)
	if !ok {
		return "", fmt.Errorf("%w: unknown prompt %q", domain.ErrNotFound, name)
	}
	return p, nil
}

// envelope is the structured completion some models are asked to produce.
type envelope struct {
	Thinking *string `json:"thinking"`
	Answer   *string `json:"answer"`
}

// NormalizeResponse accepts a plain completion or a {thinking, answer}
// JSON envelope and returns the answer and the optional reasoning.
func NormalizeResponse(content string) (answer, reasoning string) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") {
		var env envelope
		if err := json.Unmarshal([]byte(trimmed), &env); err == nil && env.Answer != nil {
			if env.Thinking != nil {
				reasoning = strings.TrimSpace(*env.Thinking)
			}
			return strings.TrimSpace(*env.Answer), reasoning
		}
	}
	return trimmed, ""
}
