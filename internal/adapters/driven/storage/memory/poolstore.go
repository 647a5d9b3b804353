package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure PoolStore implements the interfaces.
var (
	_ driven.PoolStore   = (*PoolStore)(nil)
	_ driven.EntityStore = (*PoolStore)(nil)
)

// PoolStore is an in-memory implementation of driven.PoolStore and
// driven.EntityStore.
type PoolStore struct {
	mu       sync.RWMutex
	entries  map[string]domain.PoolEntry
	entities map[string][]domain.Entity
}

// NewPoolStore creates a new in-memory pool store.
func NewPoolStore() *PoolStore {
	return &PoolStore{
		entries:  make(map[string]domain.PoolEntry),
		entities: make(map[string][]domain.Entity),
	}
}

// SavePoolEntry stores or updates an entry.
func (s *PoolStore) SavePoolEntry(_ context.Context, entry *domain.PoolEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = *entry
	return nil
}

// ListCandidates returns an owner's entries of one type by importance then
// recency.
func (s *PoolStore) ListCandidates(
	_ context.Context, ownerID string, source domain.SourceType, limit int,
) ([]domain.PoolEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.PoolEntry
	for _, e := range s.entries {
		if e.SourceType == source && (ownerID == "" || e.OwnerID == ownerID) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ImportanceScore != out[j].ImportanceScore {
			return out[i].ImportanceScore > out[j].ImportanceScore
		}
		if !out[i].IndexedAt.Equal(out[j].IndexedAt) {
			return out[i].IndexedAt.After(out[j].IndexedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveEntity records an entity for an owner, replacing one with the same name.
func (s *PoolStore) SaveEntity(_ context.Context, ownerID string, entity domain.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.entities[ownerID]
	for i := range list {
		if list[i].Name == entity.Name {
			list[i] = entity
			return nil
		}
	}
	s.entities[ownerID] = append(list, entity)
	return nil
}

// TopEntities returns an owner's entities by mention count.
func (s *PoolStore) TopEntities(_ context.Context, ownerID string, limit int) ([]domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]domain.Entity(nil), s.entities[ownerID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mentions > out[j].Mentions })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
