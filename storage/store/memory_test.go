package store

import (
	"context"
	"testing"
	"time"

	"logsift/internal/models"
)

func rec(id string, class models.Classification, offset time.Duration) models.ClassifiedRecord {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	return models.ClassifiedRecord{
		LogRecord: models.LogRecord{
			ID:        id,
			Timestamp: base.Add(offset),
			LogLevel:  "ERROR",
			Message:   "msg " + id,
		},
		Classification: class,
		ClassifiedAt:   base.Add(offset),
	}
}

func TestMemoryStoreIdempotentWrite(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	r := rec("r1", models.ClassAnomaly, 0)
	if err := s.WriteClassified(ctx, r); err != nil {
		t.Fatalf("WriteClassified: %v", err)
	}
	if err := s.WriteClassified(ctx, r); err != nil {
		t.Fatalf("duplicate WriteClassified: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d after duplicate write, want 1", s.Len())
	}
}

func TestMemoryStoreListOrdering(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// Inserted out of timestamp order on purpose.
	for _, r := range []models.ClassifiedRecord{
		rec("b", models.ClassAnomaly, 2*time.Minute),
		rec("a", models.ClassAnomaly, time.Minute),
		rec("c", models.ClassAnomaly, 3*time.Minute),
		rec("n", models.ClassNormal, 90*time.Second),
	} {
		if err := s.WriteClassified(ctx, r); err != nil {
			t.Fatalf("WriteClassified(%s): %v", r.ID, err)
		}
	}

	desc, err := s.ListByClassification(ctx, models.ClassAnomaly, 10, 0)
	if err != nil {
		t.Fatalf("ListByClassification: %v", err)
	}
	if len(desc) != 3 || desc[0].ID != "c" || desc[2].ID != "a" {
		t.Fatalf("newest-first order wrong: %v", ids(desc))
	}

	asc, err := s.ListByClassificationAsc(ctx, models.ClassAnomaly, 2)
	if err != nil {
		t.Fatalf("ListByClassificationAsc: %v", err)
	}
	if len(asc) != 2 || asc[0].ID != "a" || asc[1].ID != "b" {
		t.Fatalf("ascending order/limit wrong: %v", ids(asc))
	}
}

func TestMemoryStorePaging(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		r := rec(string(rune('a'+i)), models.ClassNormal, time.Duration(i)*time.Minute)
		if err := s.WriteClassified(ctx, r); err != nil {
			t.Fatalf("WriteClassified: %v", err)
		}
	}

	pg, err := s.ListByClassification(ctx, models.ClassNormal, 2, 2)
	if err != nil {
		t.Fatalf("ListByClassification: %v", err)
	}
	if len(pg) != 2 || pg[0].ID != "c" || pg[1].ID != "b" {
		t.Fatalf("page = %v, want [c b]", ids(pg))
	}

	empty, err := s.ListByClassification(ctx, models.ClassNormal, 2, 10)
	if err != nil {
		t.Fatalf("ListByClassification: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("offset past end returned %d records", len(empty))
	}
}

func ids(recs []models.ClassifiedRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
