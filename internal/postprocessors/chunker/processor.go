// Package chunker provides a fixed-size word chunking processor.
package chunker

import (
	"context"
	"iter"
	"strings"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of words per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// Chunks yields consecutive runs of up to size whitespace-delimited words,
// joined by single spaces. Whitespace-only text yields nothing.
// A size of zero or less uses DefaultChunkSize.
func Chunks(text string, size int) iter.Seq[string] {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return func(yield func(string) bool) {
		words := strings.Fields(text)
		for start := 0; start < len(words); start += size {
			end := min(start+size, len(words))
			if !yield(strings.Join(words[start:end], " ")) {
				return
			}
		}
	}
}

// Processor splits document text into word-count chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in words.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured words per chunk.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Process splits the document text into chunks with ids and position
// metadata. Embeddings are left empty. Input chunks are ignored.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var texts []string
	for text := range Chunks(doc.Text, p.chunkSize) {
		texts = append(texts, text)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:          domain.ChunkID(doc.Name, i+1),
			Text:        text,
			Source:      doc.Name,
			ChunkIndex:  i + 1,
			TotalChunks: len(texts),
		}
	}

	return chunks, nil
}
