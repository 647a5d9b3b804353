package driven

import (
	"context"

	"github.com/custodia-labs/recall/internal/core/domain"
)

// PoolStore reads auto-indexed content produced by an external pipeline.
type PoolStore interface {
	// ListCandidates returns up to limit entries of one source type for an
	// owner, ordered by importance then recency, both descending.
	ListCandidates(ctx context.Context, ownerID string, source domain.SourceType, limit int) ([]domain.PoolEntry, error)

	// SavePoolEntry creates or updates an entry.
	SavePoolEntry(ctx context.Context, entry *domain.PoolEntry) error
}

// EntityStore supplies recurring knowledge-graph entities.
type EntityStore interface {
	// TopEntities returns up to limit entities for an owner by mention count.
	TopEntities(ctx context.Context, ownerID string, limit int) ([]domain.Entity, error)

	// SaveEntity creates or replaces an owner's entity by name.
	SaveEntity(ctx context.Context, ownerID string, entity domain.Entity) error
}
