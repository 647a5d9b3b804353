package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// Normaliser transforms raw file bytes into plain text ready for indexing.
// Each normaliser handles specific MIME types (e.g., PDF, Markdown).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts a title and text from a raw document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking is handled by the indexer.
type NormaliseResult struct {
	// Title is the extracted or derived title.
	Title string

	// Content is the plain text.
	Content string

	// Format names the detected format, e.g. "markdown".
	Format string
}
