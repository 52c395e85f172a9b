package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/logger"
)

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithConcurrency sets how many embedding calls may be in flight.
// Values below 2 keep indexing sequential.
func WithConcurrency(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.concurrency = n
		}
	}
}

// WithRateLimit throttles embedding calls to perSecond with a burst of one.
// Zero or negative disables throttling.
func WithRateLimit(perSecond float64) IndexerOption {
	return func(ix *Indexer) {
		if perSecond > 0 {
			ix.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithIndexerClock overrides the timestamp source for CreatedAt.
func WithIndexerClock(now func() time.Time) IndexerOption {
	return func(ix *Indexer) {
		ix.now = now
	}
}

// Indexer chunks documents and embeds every chunk.
type Indexer struct {
	pipeline    driven.PostProcessorPipeline
	embedder    driven.EmbeddingService
	concurrency int
	limiter     *rate.Limiter
	now         func() time.Time
}

// NewIndexer creates an indexer. Embedding is sequential unless
// WithConcurrency says otherwise.
func NewIndexer(pipeline driven.PostProcessorPipeline, embedder driven.EmbeddingService, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		pipeline:    pipeline,
		embedder:    embedder,
		concurrency: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Build chunks and embeds every document, returning chunks in document
// order then chunk order. Any embedding failure aborts the whole build.
func (ix *Indexer) Build(ctx context.Context, docs []domain.Document) ([]domain.Chunk, error) {
	logger.Section("Indexing")

	seen := make(map[string]bool, len(docs))
	var chunks []domain.Chunk
	for i := range docs {
		doc := &docs[i]
		if doc.Name == "" {
			return nil, fmt.Errorf("%w: document %d has no name", domain.ErrInvalidInput, i)
		}
		if seen[doc.Name] {
			return nil, fmt.Errorf("%w: duplicate document name %q", domain.ErrInvalidInput, doc.Name)
		}
		seen[doc.Name] = true

		docChunks, err := ix.pipeline.Process(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", doc.Name, err)
		}
		logger.Debug("%s: %d chunks", doc.Name, len(docChunks))
		chunks = append(chunks, docChunks...)
	}

	logger.Info("Embedding %d chunks from %d documents (concurrency %d)", len(chunks), len(docs), ix.concurrency)
	stop := logger.Timer("embedding")
	defer stop()

	var err error
	if ix.concurrency <= 1 {
		err = ix.embedSequential(ctx, chunks)
	} else {
		err = ix.embedParallel(ctx, chunks)
	}
	if err != nil {
		return nil, err
	}

	if err := checkDimensions(chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (ix *Indexer) embedSequential(ctx context.Context, chunks []domain.Chunk) error {
	for i := range chunks {
		if err := ix.embedOne(ctx, &chunks[i]); err != nil {
			return err
		}
	}
	return nil
}

// embedParallel writes each vector into its own slot, so chunk order
// never depends on completion order.
func (ix *Indexer) embedParallel(ctx context.Context, chunks []domain.Chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency)
	for i := range chunks {
		chunk := &chunks[i]
		g.Go(func() error {
			return ix.embedOne(gctx, chunk)
		})
	}
	return g.Wait()
}

func (ix *Indexer) embedOne(ctx context.Context, chunk *domain.Chunk) error {
	if ix.limiter != nil {
		if err := ix.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %w", domain.ErrCanceled, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCanceled, err)
	}

	vec, err := ix.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		if errors.Is(err, domain.ErrCanceled) {
			return err
		}
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %w", domain.ErrCanceled, err)
		}
		return fmt.Errorf("%w: chunk %s: %w", domain.ErrEmbeddingService, chunk.ID, err)
	}
	if len(vec) == 0 {
		return fmt.Errorf("%w: chunk %s: %w: empty vector", domain.ErrEmbeddingService, chunk.ID, domain.ErrBadEmbeddingResponse)
	}

	chunk.Embedding = vec
	chunk.CreatedAt = ix.now()
	return nil
}
