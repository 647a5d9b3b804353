package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// DocumentService manages stored documents.
type DocumentService interface {
	// Add stores a document, assigning an ID when empty.
	Add(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns documents for an owner. Empty ownerID lists all.
	List(ctx context.Context, ownerID string) ([]domain.Document, error)

	// Remove deletes a document and its index.
	Remove(ctx context.Context, documentID string) error
}
