// Package domain defines the core entities of the retrieval engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A stored document whose text gets chunked
//   - Chunk: A trimmed window of document text, the unit of retrieval
//   - PoolEntry: Auto-indexed content from conversations, screenshots, audio and imports
//   - Citation: A record linking a retrieved chunk to a conversation turn
//   - RawDocument: Opaque bytes read from a file before normalisation
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
