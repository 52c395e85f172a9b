package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-assist/internal/logger"
)

// Session keeps at most one request in flight. Asking a new question
// cancels the one still running.
type Session struct {
	asker driving.Asker

	mu      sync.Mutex
	seq     uint64
	current context.CancelFunc
}

// NewSession creates a session over the pipeline.
func NewSession(asker driving.Asker) *Session {
	return &Session{asker: asker}
}

// Ask cancels any outstanding request and runs req.
func (s *Session) Ask(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	ctx, end := s.Begin(ctx)
	defer end()
	return s.asker.Query(ctx, req)
}

// Begin registers a new request and cancels the outstanding one. The
// returned context is canceled by the next Begin or by Cancel; end must be
// called once the request has finished.
func (s *Session) Begin(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.current != nil {
		logger.Debug("Canceling previous request")
		s.current()
	}
	s.seq++
	seq := s.seq
	s.current = cancel
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if s.seq == seq {
			s.current = nil
		}
		s.mu.Unlock()
		cancel()
	}
}

// Cancel aborts the outstanding request, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current()
		s.current = nil
	}
}
