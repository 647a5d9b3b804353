package domain

import (
	"time"
	"unicode/utf8"
)

// Document is a stored document owned by the content store.
// The indexer only reads Content and writes back ChunkCount and Indexed.
type Document struct {
	// ID is the unique identifier.
	ID string

	// OwnerID identifies the user the document belongs to.
	OwnerID string

	// Title is the display title.
	Title string

	// Filename is the original file name, if the document came from a file.
	Filename string

	// Content is the full extracted text.
	Content string

	// Tags are free-form labels.
	Tags []string

	// ChunkCount is the number of chunks produced by the last index run.
	ChunkCount int

	// Indexed reports whether the last index run completed.
	Indexed bool

	// CreatedAt is when the document was created.
	CreatedAt time.Time

	// UpdatedAt is when the document was last modified.
	UpdatedAt time.Time
}

// Chunk is a contiguous, trimmed window of a document's text.
type Chunk struct {
	// ID is the unique identifier.
	ID string

	// DocumentID links to the parent document.
	DocumentID string

	// ChunkIndex is the 0-based position within the document.
	ChunkIndex int

	// Content is the trimmed window text.
	Content string

	// CharStart is the rune offset where the untrimmed window starts.
	CharStart int

	// CharEnd is the rune offset where the untrimmed window ends (exclusive).
	CharEnd int

	// TokenCount is the estimated token count of Content.
	TokenCount int

	// Embedding is the vector representation, nil when generation failed or was skipped.
	Embedding []float32

	// CreatedAt is when the chunk was written.
	CreatedAt time.Time
}

// HasEmbedding reports whether the chunk carries a vector.
func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// EstimateTokens approximates the token count of text as one token per
// four characters, rounded up.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
