package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// CitationStore persists citations and answers aggregate queries.
type CitationStore interface {
	// InsertCitations writes citations as one batch.
	InsertCitations(ctx context.Context, citations []domain.Citation) error

	// ListSessionCitations returns a session's citations joined with
	// document titles, oldest first.
	ListSessionCitations(ctx context.Context, sessionID string) ([]domain.CitationDetail, error)

	// TopCitedDocuments returns the most cited documents, by citation count
	// descending. Empty ownerID aggregates over all owners.
	TopCitedDocuments(ctx context.Context, ownerID string, limit int) ([]domain.CitedDocument, error)
}
