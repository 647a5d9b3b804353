package driven

import "time"

// MetricsRecorder receives operational measurements from the core.
type MetricsRecorder interface {
	// IndexCompleted records one index run.
	IndexCompleted(chunks, failedEmbeddings int, elapsed time.Duration, err error)

	// RetrievalCompleted records one search or retrieval.
	RetrievalCompleted(operation string, results int, elapsed time.Duration)

	// EmbeddingFallback records a remote provider failure answered locally.
	EmbeddingFallback(provider string)

	// PoolFailed records a content pool that degraded to empty.
	PoolFailed(source string)
}
