// Package domain defines the core entities of the retrieval assistant.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A named source text handed to the indexer
//   - Chunk: An embedded slice of a document, the unit of retrieval
//   - RankedChunk: A chunk scored against one query
//   - Answer: The terminal output of one query
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
