// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Document persistence
//   - ChunkStore: Chunk persistence with batch replace
//   - CitationStore: Citation persistence and aggregates
//   - PoolStore: Read access to auto-indexed content pools
//   - EmbeddingProvider: Text to vector conversion
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SearchEngine: Ranked keyword search (bleve). Without it keyword search uses substring matching.
//   - EmbeddingCache: Caches vectors from remote providers.
//   - EntityStore: Knowledge-graph entities appended to prompts.
//   - MetricsRecorder: Indexing and retrieval metrics.
//   - PromptStore: Customisable prompt fragments.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
