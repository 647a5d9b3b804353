package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// DocumentStore persists documents and their full text.
type DocumentStore interface {
	// SaveDocument creates or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocuments retrieves all documents whose IDs are in ids.
	// Missing IDs are skipped.
	GetDocuments(ctx context.Context, ids []string) ([]domain.Document, error)

	// ListDocuments lists documents for an owner. Empty ownerID lists all.
	ListDocuments(ctx context.Context, ownerID string) ([]domain.Document, error)

	// UpdateIndexState writes back the chunk count and indexed flag.
	// Returns domain.ErrNotFound if the document does not exist.
	UpdateIndexState(ctx context.Context, id string, chunkCount int, indexed bool) error

	// DeleteDocument removes a document with its chunks and citations.
	DeleteDocument(ctx context.Context, id string) error
}
