package driving

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// RetrieverService assembles retrieved context into prompts and records citations.
type RetrieverService interface {
	// RetrieveContext searches the document index and attaches document metadata.
	RetrieveContext(ctx context.Context, query string, opts domain.RetrieveOptions) (*domain.ContextData, error)

	// RetrieveContextMultiSource searches documents and content pools and
	// merges them by weighted score.
	RetrieveContextMultiSource(ctx context.Context, query, ownerID string, opts domain.MultiSourceOptions) (*domain.ContextData, error)

	// BuildEnrichedPrompt appends as much context as fits the token budget.
	BuildEnrichedPrompt(ctx context.Context, query, basePrompt string, data *domain.ContextData) *domain.EnrichedPrompt

	// BuildEnrichedPromptMultiSource is BuildEnrichedPrompt with source labels
	// and a related-entities block.
	BuildEnrichedPromptMultiSource(ctx context.Context, query, basePrompt, ownerID string, data *domain.ContextData) *domain.EnrichedPrompt

	// TrackCitations records one citation per document source.
	TrackCitations(ctx context.Context, sessionID, messageID string, sources []domain.Source) ([]domain.Citation, error)

	// GetSessionCitations lists a session's citations.
	GetSessionCitations(ctx context.Context, sessionID string) ([]domain.CitationDetail, error)

	// GetTopCitedDocuments lists the most cited documents.
	GetTopCitedDocuments(ctx context.Context, ownerID string, limit int) ([]domain.CitedDocument, error)

	// SetMaxContextTokens sets the token budget for injected context.
	SetMaxContextTokens(tokens int) error

	// SetMinRelevanceScore sets the default similarity threshold.
	SetMinRelevanceScore(score float64) error
}
