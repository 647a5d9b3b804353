package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/logger"
)

// defaultTopCitedLimit is used when GetTopCitedDocuments gets no limit.
const defaultTopCitedLimit = 10

// TrackCitations records one citation per document-backed source in a single
// batch. Sources from content pools have no document and are skipped.
// An empty input writes nothing.
func (s *RetrieverService) TrackCitations(
	ctx context.Context, sessionID, messageID string, sources []domain.Source,
) ([]domain.Citation, error) {
	if len(sources) == 0 {
		return []domain.Citation{}, nil
	}
	if sessionID == "" || messageID == "" {
		return nil, fmt.Errorf("%w: session and message ids are required", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	citations := make([]domain.Citation, 0, len(sources))
	for _, src := range sources {
		if src.DocumentID == "" || (src.SourceType != "" && src.SourceType != domain.SourceDocument) {
			continue
		}
		citations = append(citations, domain.Citation{
			ID:             uuid.New().String(),
			SessionID:      sessionID,
			MessageID:      messageID,
			DocumentID:     src.DocumentID,
			ChunkID:        src.ChunkID,
			RelevanceScore: clamp01(src.Score),
			ContextUsed:    src.Content,
			CreatedAt:      now,
		})
	}
	if len(citations) == 0 {
		return []domain.Citation{}, nil
	}

	if err := s.citations.InsertCitations(ctx, citations); err != nil {
		return nil, fmt.Errorf("insert citations: %w", err)
	}
	logger.Debug("Tracked %d citations for %s/%s", len(citations), sessionID, messageID)
	return citations, nil
}

// GetSessionCitations lists a session's citations, oldest first.
// Store failures yield an empty list.
func (s *RetrieverService) GetSessionCitations(ctx context.Context, sessionID string) ([]domain.CitationDetail, error) {
	citations, err := s.citations.ListSessionCitations(ctx, sessionID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("list citations for session %s: %v", sessionID, err)
		return []domain.CitationDetail{}, nil
	}
	if citations == nil {
		citations = []domain.CitationDetail{}
	}
	return citations, nil
}

// GetTopCitedDocuments lists the most cited documents. Store failures yield
// an empty list.
func (s *RetrieverService) GetTopCitedDocuments(ctx context.Context, ownerID string, limit int) ([]domain.CitedDocument, error) {
	if limit <= 0 {
		limit = defaultTopCitedLimit
	}

	docs, err := s.citations.TopCitedDocuments(ctx, ownerID, limit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("top cited documents: %v", err)
		return []domain.CitedDocument{}, nil
	}
	if docs == nil {
		docs = []domain.CitedDocument{}
	}
	return docs, nil
}
