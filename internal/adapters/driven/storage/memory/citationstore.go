package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure CitationStore implements the interface.
var _ driven.CitationStore = (*CitationStore)(nil)

// CitationStore is an in-memory implementation of driven.CitationStore.
// Citations of a document are dropped when the document is deleted.
type CitationStore struct {
	mu        sync.RWMutex
	docs      *DocumentStore
	citations []domain.Citation
}

// NewCitationStore creates a citation store that resolves titles and
// ownership through docs.
func NewCitationStore(docs *DocumentStore) *CitationStore {
	s := &CitationStore{docs: docs}
	docs.onDelete = append(docs.onDelete, s.dropDocument)
	return s
}

// InsertCitations appends citations. Every referenced document must exist.
func (s *CitationStore) InsertCitations(_ context.Context, citations []domain.Citation) error {
	s.docs.mu.RLock()
	for _, c := range citations {
		if _, ok := s.docs.documents[c.DocumentID]; !ok {
			s.docs.mu.RUnlock()
			return domain.ErrNotFound
		}
	}
	s.docs.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.citations = append(s.citations, citations...)
	return nil
}

// ListSessionCitations returns a session's citations, oldest first.
func (s *CitationStore) ListSessionCitations(_ context.Context, sessionID string) ([]domain.CitationDetail, error) {
	s.mu.RLock()
	var matched []domain.Citation
	for _, c := range s.citations {
		if c.SessionID == sessionID {
			matched = append(matched, c)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })

	s.docs.mu.RLock()
	defer s.docs.mu.RUnlock()
	details := make([]domain.CitationDetail, 0, len(matched))
	for _, c := range matched {
		details = append(details, domain.CitationDetail{Citation: c, DocumentTitle: s.docs.title(c.DocumentID)})
	}
	return details, nil
}

// TopCitedDocuments aggregates citations per document, most cited first.
func (s *CitationStore) TopCitedDocuments(_ context.Context, ownerID string, limit int) ([]domain.CitedDocument, error) {
	s.mu.RLock()
	all := append([]domain.Citation(nil), s.citations...)
	s.mu.RUnlock()

	s.docs.mu.RLock()
	defer s.docs.mu.RUnlock()

	byDoc := make(map[string]*domain.CitedDocument)
	sums := make(map[string]float64)
	for _, c := range all {
		doc, ok := s.docs.documents[c.DocumentID]
		if !ok || (ownerID != "" && doc.OwnerID != ownerID) {
			continue
		}
		agg, ok := byDoc[c.DocumentID]
		if !ok {
			agg = &domain.CitedDocument{DocumentID: c.DocumentID, Title: doc.Title}
			byDoc[c.DocumentID] = agg
		}
		agg.CitationCount++
		sums[c.DocumentID] += c.RelevanceScore
		if c.CreatedAt.After(agg.LastCitedAt) {
			agg.LastCitedAt = c.CreatedAt
		}
	}

	out := make([]domain.CitedDocument, 0, len(byDoc))
	for id, agg := range byDoc {
		agg.AvgRelevance = sums[id] / float64(agg.CitationCount)
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CitationCount != out[j].CitationCount {
			return out[i].CitationCount > out[j].CitationCount
		}
		if !out[i].LastCitedAt.Equal(out[j].LastCitedAt) {
			return out[i].LastCitedAt.After(out[j].LastCitedAt)
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// dropDocument runs with the document store's write lock held.
func (s *CitationStore) dropDocument(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.citations[:0]
	for _, c := range s.citations {
		if c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	s.citations = kept
}
