package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages stored documents.
type DocumentService struct {
	docStore driven.DocumentStore
	indexer  driving.IndexerService
}

// NewDocumentService creates a new document service.
// indexer may be nil, in which case Remove only deletes the document row.
func NewDocumentService(docStore driven.DocumentStore, indexer driving.IndexerService) *DocumentService {
	return &DocumentService{
		docStore: docStore,
		indexer:  indexer,
	}
}

// Add stores a document. New documents get an ID and creation time; the
// index state is reset because the content may have changed.
func (s *DocumentService) Add(ctx context.Context, doc *domain.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(doc.Content) == "" {
		return fmt.Errorf("%w: document content is empty", domain.ErrInvalidInput)
	}

	now := time.Now().UTC()
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	doc.ChunkCount = 0
	doc.Indexed = false

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	logger.Debug("Stored document %s (%d chars)", doc.ID, len(doc.Content))
	return nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// List returns documents for an owner.
func (s *DocumentService) List(ctx context.Context, ownerID string) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx, ownerID)
}

// Remove deletes a document together with its chunks.
func (s *DocumentService) Remove(ctx context.Context, documentID string) error {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return err
	}

	if s.indexer != nil {
		if err := s.indexer.DeleteDocumentIndex(ctx, documentID); err != nil {
			return fmt.Errorf("delete index: %w", err)
		}
	}
	return s.docStore.DeleteDocument(ctx, documentID)
}
