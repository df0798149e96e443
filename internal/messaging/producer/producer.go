package producer

import (
	"context"

	"logsift/internal/models"
)

// Producer defines the interface for publishing raw log records to the broker
type Producer interface {
	// Publish sends a single log record to the configured topic
	Publish(ctx context.Context, rec *models.LogRecord) error

	// PublishBatch sends log records in batch to the configured topic
	PublishBatch(ctx context.Context, recs []*models.LogRecord) error

	// Close closes the producer connection
	Close() error
}
