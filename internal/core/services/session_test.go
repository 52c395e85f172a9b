package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// blockingAsker blocks every query until its context ends, except ones
// asking "quick".
type blockingAsker struct {
	started chan string
}

func (a *blockingAsker) Query(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	a.started <- req.Question
	if req.Question == "quick" {
		return &domain.Answer{State: domain.StateDone, Text: "done"}, nil
	}
	<-ctx.Done()
	return &domain.Answer{State: domain.StateCanceled}, domain.ErrCanceled
}

func TestSession_NewQuestionCancelsPrevious(t *testing.T) {
	asker := &blockingAsker{started: make(chan string, 2)}
	session := NewSession(asker)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = session.Ask(context.Background(), domain.QueryRequest{Question: "slow"})
	}()
	require.Equal(t, "slow", <-asker.started)

	answer, err := session.Ask(context.Background(), domain.QueryRequest{Question: "quick"})
	require.NoError(t, err)
	assert.Equal(t, "done", answer.Text)

	wg.Wait()
	assert.ErrorIs(t, firstErr, domain.ErrCanceled)
}

func TestSession_Cancel(t *testing.T) {
	asker := &blockingAsker{started: make(chan string, 1)}
	session := NewSession(asker)

	done := make(chan error, 1)
	go func() {
		_, err := session.Ask(context.Background(), domain.QueryRequest{Question: "slow"})
		done <- err
	}()
	<-asker.started
	session.Cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, domain.ErrCanceled)
	case <-time.After(time.Second):
		t.Fatal("request was not canceled")
	}

	session.Cancel()
}

func TestSession_Begin(t *testing.T) {
	session := NewSession(&blockingAsker{})

	first, endFirst := session.Begin(context.Background())
	session.Cancel()
	assert.ErrorIs(t, first.Err(), context.Canceled)
	endFirst()

	second, endSecond := session.Begin(context.Background())
	third, endThird := session.Begin(context.Background())
	assert.ErrorIs(t, second.Err(), context.Canceled)
	assert.NoError(t, third.Err())

	endSecond()
	session.Cancel()
	assert.ErrorIs(t, third.Err(), context.Canceled)
	endThird()
}
