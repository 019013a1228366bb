package history

import (
	"context"
	"slices"
	"sync"

	"github.com/raphaelgruber/docdesk/internal/models"
)

// MemoryStore keeps history in process memory. Used by tests and the memory backend.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.TranslationRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, rec models.TranslationRecord) (models.TranslationRecord, error) {
	rec = Prepare(rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(rec.ID) >= 0 {
		return models.TranslationRecord{}, ErrDuplicateID
	}
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]models.TranslationRecord, error) {
	limit = EffectiveLimit(limit)

	s.mu.RLock()
	out := make([]models.TranslationRecord, len(s.records))
	// Newest append first so equal timestamps keep insertion order reversed.
	for i, rec := range s.records {
		out[len(s.records)-1-i] = rec
	}
	s.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b models.TranslationRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	s.records = slices.Delete(s.records, i, i+1)
	return nil
}

// indexOf returns the position of id or -1. Caller must hold the lock.
func (s *MemoryStore) indexOf(id string) int {
	return slices.IndexFunc(s.records, func(r models.TranslationRecord) bool {
		return r.ID == id
	})
}
