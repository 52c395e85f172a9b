package transport

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultOpenAIBaseURL is LM Studio's local server.
const DefaultOpenAIBaseURL = "http://127.0.0.1:1234/v1"

// localAPIKey is sent when no key is configured. Local servers accept any value.
const localAPIKey = "lm-studio"

// NewOpenAIClient returns a go-openai client for an OpenAI-compatible server.
func NewOpenAIClient(baseURL, apiKey string, timeout time.Duration) *openai.Client {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if apiKey == "" {
		apiKey = localAPIKey
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	cfg.HTTPClient = NewClient(timeout)
	return openai.NewClientWithConfig(cfg)
}

// StatusCode returns the HTTP status of a failed request, or 0 when the
// request never got a response.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// ErrorText returns the server's explanation of a failed request.
func ErrorText(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Body
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return string(reqErr.Body)
	}
	return ""
}

// EnvelopeSchema is the JSON schema of a {thinking, answer} completion.
var EnvelopeSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "thinking": {"type": "string"},
    "answer": {"type": "string"}
  },
  "required": ["thinking", "answer"],
  "additionalProperties": false
}`)

// MentionsImage reports whether a rejection message is about an attached image.
func MentionsImage(text string) bool {
	text = strings.ToLower(text)
	return strings.Contains(text, "image") || strings.Contains(text, "vision") || strings.Contains(text, "multimodal")
}
