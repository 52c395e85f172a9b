package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown normaliser or table format.
	ErrUnsupportedType = errors.New("unsupported type")

	// Store Errors.

	// ErrStoreNotFound indicates the persisted embedding table does not exist.
	ErrStoreNotFound = errors.New("embedding table not found")

	// ErrCorruptTable indicates the persisted table could not be parsed.
	ErrCorruptTable = errors.New("embedding table is corrupt")

	// ErrDimensionMismatch indicates vectors of different lengths were compared.
	// Usually caused by mixing embedding models in one table.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Embedding Errors.

	// ErrEmbeddingService wraps any embedding failure surfaced by the pipeline.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrEmbeddingUnavailable indicates the embedding service could not be reached
	// or answered with a non-success status.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrBadEmbeddingResponse indicates the embedding service answered
	// with a payload of the wrong shape.
	ErrBadEmbeddingResponse = errors.New("bad embedding response")

	// Generation Errors.

	// ErrGenerationTimeout indicates the generation backend did not answer in time.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrCanceled indicates the caller canceled the request.
	// It is an outcome, not a failure.
	ErrCanceled = errors.New("request canceled")

	// ErrConnectionRefused indicates the generation backend is not listening.
	ErrConnectionRefused = errors.New("connection refused")

	// ErrMalformedResponse indicates the generation backend answered
	// with something that is not a usable completion.
	ErrMalformedResponse = errors.New("malformed generation response")

	// ErrImageRejected indicates the backend refused an attached image.
	ErrImageRejected = errors.New("image rejected by model")

	// ErrNoBackends indicates no generation backend is configured.
	ErrNoBackends = errors.New("no generation backend configured")

	// ErrInvalidTransition indicates a request state machine was driven
	// through a transition it does not allow.
	ErrInvalidTransition = errors.New("invalid request state transition")
)

// DimensionMismatchError reports the two lengths that disagreed.
type DimensionMismatchError struct {
	// Expected is the query or table dimensionality.
	Expected int

	// Got is the offending vector's length.
	Got int

	// ChunkID identifies the offending chunk, if known.
	ChunkID string
}

// Error implements error.
func (e *DimensionMismatchError) Error() string {
	if e.ChunkID == "" {
		return fmt.Sprintf("%s: expected %d, got %d", ErrDimensionMismatch, e.Expected, e.Got)
	}
	return fmt.Sprintf("%s: chunk %s has %d dimensions, expected %d",
		ErrDimensionMismatch, e.ChunkID, e.Got, e.Expected)
}

// Is makes errors.Is(err, ErrDimensionMismatch) match.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// IsEmbeddingServiceError reports whether err came from the embedding client.
func IsEmbeddingServiceError(err error) bool {
	return errors.Is(err, ErrEmbeddingService) ||
		errors.Is(err, ErrEmbeddingUnavailable) ||
		errors.Is(err, ErrBadEmbeddingResponse)
}

// IsFallbackEligible reports whether a generation error should move on
// to the next configured backend.
func IsFallbackEligible(err error) bool {
	return errors.Is(err, ErrGenerationTimeout) || errors.Is(err, ErrConnectionRefused)
}

// User-facing explanations for failed requests.
const (
	MessageNotReady      = "The knowledge base is not ready. Index some documents first, then ask again."
	MessageMisconfigured = "The knowledge base was built with a different embedding model. Rebuild the index and try again."
	MessageEmbedding     = "Could not reach the embedding service. Check that it is running and try again."
	MessageTimeout       = "The language model took too long to answer. Please try again."
	MessageUnreachable   = "Could not reach the language model. Check that it is running and try again."
	MessageCanceled      = "Request canceled."
	MessageEmptyQuestion = "Please enter a question."
	MessageUnexpected    = "Something went wrong while answering. Please try again."
)

// UserMessage maps an error onto the explanation shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCanceled):
		return MessageCanceled
	case errors.Is(err, ErrInvalidInput):
		return MessageEmptyQuestion
	case errors.Is(err, ErrStoreNotFound), errors.Is(err, ErrCorruptTable):
		return MessageNotReady
	case errors.Is(err, ErrDimensionMismatch):
		return MessageMisconfigured
	case IsEmbeddingServiceError(err):
		return MessageEmbedding
	case errors.Is(err, ErrGenerationTimeout):
		return MessageTimeout
	case errors.Is(err, ErrConnectionRefused), errors.Is(err, ErrNoBackends):
		return MessageUnreachable
	default:
		return MessageUnexpected
	}
}
