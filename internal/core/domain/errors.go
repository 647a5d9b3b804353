package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown normaliser or provider type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates the embedding provider could not produce a vector.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrInvalidDimensions indicates an embedding does not match the provider dimension.
	ErrInvalidDimensions = errors.New("invalid embedding dimensions")

	// ErrSearchUnavailable indicates the keyword search engine is not configured.
	ErrSearchUnavailable = errors.New("search engine unavailable")

	// ErrStoreUnavailable indicates the persistence layer could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrConfigNotFound indicates a configuration key is not set.
	ErrConfigNotFound = errors.New("config key not found")
)
