package consumer

import (
	"context"

	"logsift/internal/models"
)

// Consumer defines the interface for broker consumers feeding the pipeline.
type Consumer interface {
	// Consume blocks until a record is received or the context is cancelled.
	// It returns the record, an acknowledgement callback, and any error that occurred.
	// The ack callback: ack(true) commits progress past the record;
	// ack(false) leaves the offset uncommitted so the record is redelivered.
	// Delivery downstream is therefore at-least-once; duplicates are absorbed
	// by the dedup contexts, not here.
	Consume(ctx context.Context) (rec *models.LogRecord, ack func(success bool), err error)

	// Close gracefully shuts down the consumer connection.
	Close() error
}
