package driven

import "context"

// EmbeddingProvider converts text to a fixed-dimension vector.
// Empty text yields a zero vector of Dimensions() length.
type EmbeddingProvider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name identifies the provider and model, e.g. "openai:text-embedding-3-small".
	Name() string

	// Dimensions returns the vector size.
	Dimensions() int
}

// DirectEmbedder is implemented by providers that substitute a vector when
// the backend fails. EmbedDirect skips the substitution and returns the error,
// so callers can store no embedding or search by keyword instead.
type DirectEmbedder interface {
	EmbedDirect(ctx context.Context, text string) ([]float32, error)
}

// Pinger is implemented by providers that can check reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingCache stores vectors keyed by an opaque string.
type EmbeddingCache interface {
	// Get returns the cached vector and whether it was present.
	Get(ctx context.Context, key string) ([]float32, bool, error)

	// Set stores a vector.
	Set(ctx context.Context, key string, vector []float32) error
}
