// Package sqlite provides a unified SQLite-based implementation of the
// storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements multiple store interfaces
// through a single database connection:
//
//   - DocumentStore: documents and their index state
//   - ChunkStore: chunk rows with float32 embedding blobs
//   - CitationStore: citation history and aggregates
//   - PoolStore: auto-indexed content from external pipelines
//   - EntityStore: recurring entities
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.recall/data/recall.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
