package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-assist/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.AssistantService = (*AssistantService)(nil)

// refusalSources is how many sources accompany a refusal.
const refusalSources = 3

// DefaultQueryCacheSize is the number of query embeddings kept in memory.
const DefaultQueryCacheSize = 256

// AssistantConfig wires an AssistantService.
type AssistantConfig struct {
	Store     *EmbeddingStore
	Indexer   *Indexer
	Embedder  driven.EmbeddingService
	Generator *Generator

	// Enhancer defaults to the built-in vocabulary.
	Enhancer *QueryEnhancer

	// Scorer defaults to MeanTopScorer.
	Scorer ConfidenceScorer

	Retrieval domain.RetrievalSettings

	// QueryCacheSize defaults to DefaultQueryCacheSize.
	QueryCacheSize int
}

// AssistantService runs the retrieval pipeline: enhance, embed, rank,
// select, assemble, gate and generate.
type AssistantService struct {
	store      *EmbeddingStore
	indexer    *Indexer
	embedder   driven.EmbeddingService
	generator  *Generator
	enhancer   *QueryEnhancer
	scorer     ConfidenceScorer
	retrieval  domain.RetrievalSettings
	queryCache *lru.Cache[string, []float64]
	now        func() time.Time
}

// NewAssistantService creates the pipeline.
func NewAssistantService(cfg AssistantConfig) (*AssistantService, error) {
	if cfg.Store == nil || cfg.Embedder == nil || cfg.Generator == nil {
		return nil, fmt.Errorf("%w: store, embedder and generator are required", domain.ErrInvalidInput)
	}
	if err := cfg.Retrieval.Validate(); err != nil {
		return nil, err
	}
	if cfg.Enhancer == nil {
		cfg.Enhancer = NewQueryEnhancer(nil)
	}
	if cfg.Scorer == nil {
		cfg.Scorer = MeanTopScorer{Top: DefaultScoredChunks}
	}
	if cfg.QueryCacheSize <= 0 {
		cfg.QueryCacheSize = DefaultQueryCacheSize
	}
	cache, err := lru.New[string, []float64](cfg.QueryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create query cache: %w", err)
	}

	return &AssistantService{
		store:      cfg.Store,
		indexer:    cfg.Indexer,
		embedder:   cfg.Embedder,
		generator:  cfg.Generator,
		enhancer:   cfg.Enhancer,
		scorer:     cfg.Scorer,
		retrieval:  cfg.Retrieval,
		queryCache: cache,
		now:        time.Now,
	}, nil
}

// Query answers one question.
func (s *AssistantService) Query(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error) {
	start := s.now()
	run := domain.NewRequestRun()
	answer := &domain.Answer{
		RequestID: uuid.NewString(),
		Sources:   []domain.AnswerSource{},
	}
	answer.Diagnostics.EmbeddingModel = s.embedder.ModelName()

	logger.Section("Query " + answer.RequestID)
	s.advance(run, domain.StateRetrieving)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return s.fail(run, answer, start, fmt.Errorf("%w: empty question", domain.ErrInvalidInput))
	}

	retrievalStart := s.now()
	result, err := s.retrieve(ctx, question)
	answer.Diagnostics.RetrievalMillis = s.now().Sub(retrievalStart).Milliseconds()
	if err != nil {
		return s.fail(run, answer, start, err)
	}

	answer.Diagnostics.RetrievalDiagnostics = result.Diagnostics
	answer.Confidence = result.Confidence
	answer.Diagnostics.ConfidenceScore = result.Confidence
	answer.ConfidenceLevel = domain.LevelFor(result.Confidence, s.retrieval.MinConfidence)
	for _, rc := range result.Selected {
		answer.Sources = append(answer.Sources, domain.NewAnswerSource(rc))
	}

	if result.Confidence < s.retrieval.MinConfidence {
		logger.Info("Confidence %d below %d, refusing", result.Confidence, s.retrieval.MinConfidence)
		s.advance(run, domain.StateRefused)
		answer.Text = domain.RefusalMessage
		if len(answer.Sources) > refusalSources {
			answer.Sources = answer.Sources[:refusalSources]
		}
		return s.finish(run, answer, start), nil
	}

	s.advance(run, domain.StateGenerating)
	generationStart := s.now()
	gen, err := s.generator.Generate(ctx, GenerateRequest{
		Context: result.Context,
		Query:   question,
		Image:   req.Image,
		Model:   req.Model,
	})
	answer.Diagnostics.GenerationMillis = s.now().Sub(generationStart).Milliseconds()
	if err != nil {
		return s.fail(run, answer, start, err)
	}

	answer.Text = gen.Answer
	answer.Reasoning = gen.Reasoning
	answer.Diagnostics.GenerationModel = gen.Model
	answer.Diagnostics.Backend = gen.Backend
	answer.Diagnostics.FellBack = gen.FellBack
	s.advance(run, domain.StateDone)
	return s.finish(run, answer, start), nil
}

// Retrieve runs the retrieval half of a query without generating.
func (s *AssistantService) Retrieve(ctx context.Context, question string) (*domain.RetrievalResult, error) {
	return s.retrieve(ctx, strings.TrimSpace(question))
}

func (s *AssistantService) retrieve(ctx context.Context, question string) (*domain.RetrievalResult, error) {
	chunks, err := s.store.Load(ctx)
	if err != nil {
		if cerr := canceled(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, err
	}
	if err := canceled(ctx); err != nil {
		return nil, err
	}

	enhanced := s.enhancer.Enhance(question)
	logger.Debug("Enhanced query: %q", enhanced)
	vec, err := s.embedQuery(ctx, enhanced)
	if err != nil {
		return nil, err
	}
	if err := canceled(ctx); err != nil {
		return nil, err
	}

	ranked, err := Rank(vec, chunks)
	if err != nil {
		return nil, err
	}
	selected := Select(ranked, SelectOptionsFrom(s.retrieval))
	contextText := AssembleContext(selected, s.retrieval.ContextBudget)
	confidence := s.scorer.Score(selected)

	diag := domain.RetrievalDiagnostics{
		ChunksSearched: len(chunks),
		ChunksUsed:     len(selected),
		ContextChars:   len(contextText),
	}
	if len(ranked) > 0 {
		diag.TopSimilarity = ranked[0].Similarity
	}
	logger.Info("Searched %d chunks, selected %d, top similarity %.3f, confidence %d",
		diag.ChunksSearched, diag.ChunksUsed, diag.TopSimilarity, confidence)

	return &domain.RetrievalResult{
		Selected:    selected,
		Context:     contextText,
		Confidence:  confidence,
		Diagnostics: diag,
	}, nil
}

func (s *AssistantService) embedQuery(ctx context.Context, text string) ([]float64, error) {
	key := s.embedder.ModelName() + "\x00" + text
	if vec, ok := s.queryCache.Get(key); ok {
		logger.Debug("Query embedding cache hit")
		return vec, nil
	}

	stop := logger.Timer("query embedding")
	vec, err := s.embedder.Embed(ctx, text)
	stop()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrCanceled, err)
		}
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbeddingService, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: %w: empty query vector", domain.ErrEmbeddingService, domain.ErrBadEmbeddingResponse)
	}
	s.queryCache.Add(key, vec)
	return vec, nil
}

// Reindex rebuilds the table from docs and swaps it in.
func (s *AssistantService) Reindex(ctx context.Context, docs []domain.Document) (*domain.IndexSummary, error) {
	if s.indexer == nil {
		return nil, fmt.Errorf("%w: no indexer configured", domain.ErrInvalidInput)
	}
	chunks, err := s.indexer.Build(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("reindex: %w", err)
	}
	if err := s.store.Replace(ctx, chunks); err != nil {
		return nil, fmt.Errorf("reindex: %w", err)
	}

	summary := &domain.IndexSummary{
		ChunksIndexed:    len(chunks),
		DocumentsIndexed: len(domain.CountBySource(chunks)),
	}
	logger.Info("Indexed %d chunks from %d documents", summary.ChunksIndexed, summary.DocumentsIndexed)
	return summary, nil
}

// SetTablePath switches to another embedding table.
func (s *AssistantService) SetTablePath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%w: table path is empty", domain.ErrInvalidInput)
	}
	s.store.SetPath(path)
	return nil
}

// TablePath returns the current embedding table location.
func (s *AssistantService) TablePath() string {
	return s.store.Path()
}

// Stats summarises the loaded table.
func (s *AssistantService) Stats(ctx context.Context) (*domain.StoreStats, error) {
	chunks, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.CountsBySource(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.StoreStats{
		DocumentCount: len(docs),
		ChunkCount:    len(chunks),
		TablePath:     s.store.Path(),
		Documents:     docs,
	}
	if len(chunks) > 0 {
		stats.Dimensions = chunks[0].Dimensions()
	}
	return stats, nil
}

// advance moves the run along a transition the pipeline is known to allow.
func (s *AssistantService) advance(run *domain.RequestRun, to domain.RequestState) {
	if err := run.Advance(to); err != nil {
		logger.Error("%v", err)
	}
}

func (s *AssistantService) fail(
	run *domain.RequestRun, answer *domain.Answer, start time.Time, err error,
) (*domain.Answer, error) {
	switch {
	case errors.Is(err, domain.ErrCanceled):
		logger.Info("Request canceled")
		s.advance(run, domain.StateCanceled)
	case errors.Is(err, domain.ErrDimensionMismatch):
		logger.Error("Embedding table does not match the query embedding model: %v", err)
		s.advance(run, domain.StateFailed)
	default:
		logger.Warn("Request failed: %v", err)
		s.advance(run, domain.StateFailed)
	}
	answer.Text = domain.UserMessage(err)
	if answer.ConfidenceLevel == "" {
		answer.ConfidenceLevel = domain.ConfidenceLow
	}
	return s.finish(run, answer, start), err
}

func (s *AssistantService) finish(run *domain.RequestRun, answer *domain.Answer, start time.Time) *domain.Answer {
	elapsed := s.now().Sub(start)
	answer.State = run.State()
	answer.Diagnostics.ElapsedMillis = elapsed.Milliseconds()
	answer.Diagnostics.ElapsedFormatted = domain.FormatElapsed(elapsed)
	return answer
}

func canceled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCanceled, err)
	}
	return nil
}
