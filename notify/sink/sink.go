// Package sink defines the external notification channel interface and its
// implementations. A sink delivers a batch of anomalous records to a chat
// system; any non-success response is a failure for the whole batch.
package sink

import (
	"context"

	"logsift/internal/models"
)

// Sink is the generic interface for notification channels. Implementations
// must treat the batch atomically: an error means nothing in the batch is
// considered delivered.
type Sink interface {
	// Send delivers a batch of classified records to the channel.
	Send(ctx context.Context, batch []models.ClassifiedRecord) error

	// Name identifies the sink type for logging and status.
	Name() string

	// Close releases the sink's resources.
	Close() error
}
