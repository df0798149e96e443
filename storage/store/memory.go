package store

import (
	"context"
	"sort"
	"sync"

	"logsift/internal/models"
)

// MemoryStore implements Store in process memory. It backs the
// "memory://local" database mode and the package tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]models.ClassifiedRecord
	ordered []models.ClassifiedRecord // insertion order; sorted on read
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]models.ClassifiedRecord)}
}

// WriteClassified stores the record, ignoring duplicates by id.
func (s *MemoryStore) WriteClassified(_ context.Context, rec models.ClassifiedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[rec.ID]; exists {
		return nil
	}
	s.byID[rec.ID] = rec
	s.ordered = append(s.ordered, rec)
	return nil
}

// ListByClassification returns a page of records, newest first.
func (s *MemoryStore) ListByClassification(_ context.Context, class models.Classification, limit, offset int) ([]models.ClassifiedRecord, error) {
	recs := s.filtered(class)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.After(recs[j].Timestamp) })
	return page(recs, limit, offset), nil
}

// ListByClassificationAsc returns up to limit records, oldest first.
func (s *MemoryStore) ListByClassificationAsc(_ context.Context, class models.Classification, limit int) ([]models.ClassifiedRecord, error) {
	recs := s.filtered(class)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp.Before(recs[j].Timestamp) })
	return page(recs, limit, 0), nil
}

func (s *MemoryStore) filtered(class models.Classification) []models.ClassifiedRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ClassifiedRecord
	for _, rec := range s.ordered {
		if rec.Classification == class {
			out = append(out, rec)
		}
	}
	return out
}

func page(recs []models.ClassifiedRecord, limit, offset int) []models.ClassifiedRecord {
	if offset >= len(recs) {
		return nil
	}
	recs = recs[offset:]
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	return recs
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}

var _ Store = (*MemoryStore)(nil)
