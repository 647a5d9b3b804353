// Package memory provides in-memory store implementations for tests and
// the ephemeral "memory" storage driver.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interfaces.
var (
	_ driven.DocumentStore = (*DocumentStore)(nil)
	_ driven.ChunkStore    = (*DocumentStore)(nil)
)

// DocumentStore is an in-memory implementation of driven.DocumentStore and
// driven.ChunkStore. Deleting a document deletes its chunks.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk

	// onDelete runs under the write lock after a document is removed.
	onDelete []func(documentID string)
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *doc
	stored.Tags = append([]string(nil), doc.Tags...)
	s.documents[doc.ID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocuments retrieves the documents that exist among ids.
func (s *DocumentStore) GetDocuments(_ context.Context, ids []string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if doc, ok := s.documents[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// ListDocuments lists documents for an owner, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context, ownerID string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if ownerID == "" || doc.OwnerID == ownerID {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// UpdateIndexState writes back the chunk count and indexed flag.
func (s *DocumentStore) UpdateIndexState(_ context.Context, id string, chunkCount int, indexed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.ChunkCount = chunkCount
	doc.Indexed = indexed
	s.documents[id] = doc
	return nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.chunks, id)
	for _, fn := range s.onDelete {
		fn(id)
	}
	return nil
}

// ReplaceChunks swaps a document's chunks under a single lock.
func (s *DocumentStore) ReplaceChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(chunks) == 0 {
		delete(s.chunks, documentID)
		return nil
	}
	stored := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		c.DocumentID = documentID
		if len(c.Embedding) > 0 {
			c.Embedding = append([]float32(nil), c.Embedding...)
		} else {
			c.Embedding = nil
		}
		stored[i] = c
	}
	s.chunks[documentID] = stored
	return nil
}

// DeleteChunks removes every chunk of a document.
func (s *DocumentStore) DeleteChunks(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, documentID)
	return nil
}

// ListChunks returns a document's chunks by index, without embeddings.
func (s *DocumentStore) ListChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := make([]domain.Chunk, 0, len(s.chunks[documentID]))
	for _, c := range s.chunks[documentID] {
		c.Embedding = nil
		chunks = append(chunks, c)
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].ChunkIndex < chunks[j].ChunkIndex })
	return chunks, nil
}

// GetChunks returns chunks by ID, without embeddings.
func (s *DocumentStore) GetChunks(_ context.Context, ids []string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var chunks []domain.Chunk
	for _, docChunks := range s.chunks {
		for _, c := range docChunks {
			if want[c.ID] {
				c.Embedding = nil
				chunks = append(chunks, c)
			}
		}
	}
	return chunks, nil
}

// ListEmbedded returns up to limit embedded chunks, most recent first.
func (s *DocumentStore) ListEmbedded(_ context.Context, documentIDs []string, limit int) ([]domain.Chunk, error) {
	return s.collect(documentIDs, limit, func(c domain.Chunk) bool {
		return c.HasEmbedding()
	})
}

// SearchContent returns up to limit chunks containing query, case-insensitively.
func (s *DocumentStore) SearchContent(_ context.Context, query string, documentIDs []string, limit int) ([]domain.Chunk, error) {
	needle := strings.ToLower(query)
	chunks, err := s.collect(documentIDs, limit, func(c domain.Chunk) bool {
		return strings.Contains(strings.ToLower(c.Content), needle)
	})
	for i := range chunks {
		chunks[i].Embedding = nil
	}
	return chunks, err
}

func (s *DocumentStore) collect(documentIDs []string, limit int, keep func(domain.Chunk) bool) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var filter map[string]bool
	if len(documentIDs) > 0 {
		filter = make(map[string]bool, len(documentIDs))
		for _, id := range documentIDs {
			filter[id] = true
		}
	}

	var out []domain.Chunk
	for docID, docChunks := range s.chunks {
		if filter != nil && !filter[docID] {
			continue
		}
		for _, c := range docChunks {
			if keep(c) {
				c.Embedding = append([]float32(nil), c.Embedding...)
				out = append(out, c)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// title returns a document's title. Callers hold at least a read lock.
func (s *DocumentStore) title(id string) string {
	return s.documents[id].Title
}
