// Package store is the persistence gateway for classified records. The
// backing store accepts idempotent writes keyed by record id: writing the
// same id twice never creates a duplicate row.
package store

import (
	"context"

	"logsift/internal/models"
)

// Store defines the persistence operations the pipeline relies on.
type Store interface {
	// WriteClassified persists a classified record. Idempotent by record id.
	WriteClassified(ctx context.Context, rec models.ClassifiedRecord) error

	// ListByClassification returns a page of records with the given
	// classification, newest first.
	ListByClassification(ctx context.Context, class models.Classification, limit, offset int) ([]models.ClassifiedRecord, error)

	// ListByClassificationAsc returns up to limit records with the given
	// classification in ascending timestamp order. The notification
	// dispatcher selects its send candidates through this.
	ListByClassificationAsc(ctx context.Context, class models.Classification, limit int) ([]models.ClassifiedRecord, error)

	// Close releases the store's resources.
	Close()
}
