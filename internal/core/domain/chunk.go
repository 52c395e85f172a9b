package domain

import (
	"fmt"
	"time"
)

// Document is a named source text handed to the indexer.
type Document struct {
	// Name is the originating file name. It prefixes every chunk id.
	Name string

	// Text is the full plain-text content.
	Text string
}

// Chunk is a contiguous slice of a source document together with its embedding.
type Chunk struct {
	// ID is unique across a store, formatted by ChunkID.
	ID string

	// Text is the trimmed, non-empty chunk content.
	Text string

	// Embedding has the same length for every chunk in a store.
	Embedding []float64

	// Source is the originating document name.
	Source string

	// ChunkIndex is the 1-based position within the source.
	ChunkIndex int

	// TotalChunks is the number of chunks the source produced.
	TotalChunks int

	// CreatedAt is when the embedding was generated.
	CreatedAt time.Time
}

// ChunkID formats the identifier of the index-th chunk (1-based) of source.
func ChunkID(source string, index int) string {
	return fmt.Sprintf("%s-chunk-%d", source, index)
}

// Dimensions returns the embedding length.
func (c Chunk) Dimensions() int {
	return len(c.Embedding)
}

// RankedChunk is a chunk scored against one query vector.
// It is recomputed per query and never persisted.
type RankedChunk struct {
	Chunk

	// Similarity is the cosine similarity with the query, effectively in [0,1].
	Similarity float64
}

// IndexSummary reports the outcome of a reindex.
type IndexSummary struct {
	ChunksIndexed    int `json:"chunks_indexed"`
	DocumentsIndexed int `json:"documents_indexed"`
}
