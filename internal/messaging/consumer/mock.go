package consumer

import (
	"context"
	"errors"
	"log"
	"time"

	"logsift/internal/models"
)

// MockConsumer delivers records from an in-memory queue. It backs the
// "mock://local" broker mode and the worker tests.
type MockConsumer struct {
	logger  *log.Logger
	records chan *models.LogRecord
}

// PredefinedRecords returns a fixed set of records covering each
// classification outcome: an anomaly, a normal record, and one with no
// recognizable log level.
func PredefinedRecords() []*models.LogRecord {
	base := time.Now().Add(-time.Minute)
	return []*models.LogRecord{
		{
			ID:         "mock-1",
			Timestamp:  base,
			LogLevel:   "ERROR",
			Message:    "Failed to replicate block blk_900123 to 10.250.1.17:50010",
			ParamValue: "blk_900123",
		},
		{
			ID:         "mock-2",
			Timestamp:  base.Add(10 * time.Second),
			LogLevel:   "INFO",
			Message:    "Received block blk_900124 of size 67108864 from /10.250.1.18",
			ParamValue: "blk_900124",
		},
		{
			ID:        "mock-3",
			Timestamp: base.Add(20 * time.Second),
			LogLevel:  "TRACE",
			Message:   "Unrecognized verbosity from legacy component",
		},
	}
}

// NewMockConsumer creates a MockConsumer preloaded with the predefined records.
func NewMockConsumer(logger *log.Logger) *MockConsumer {
	return NewMockConsumerWith(logger, PredefinedRecords())
}

// NewMockConsumerWith creates a MockConsumer preloaded with the given records.
func NewMockConsumerWith(logger *log.Logger, records []*models.LogRecord) *MockConsumer {
	mc := &MockConsumer{
		logger:  logger,
		records: make(chan *models.LogRecord, len(records)+8),
	}
	for _, rec := range records {
		mc.records <- rec
	}
	logger.Printf("[MockConsumer] Loaded %d predefined records", len(records))
	return mc
}

// Push enqueues an additional record, simulating broker delivery.
func (m *MockConsumer) Push(rec *models.LogRecord) {
	select {
	case m.records <- rec:
	default:
		m.logger.Printf("[MockConsumer] Warning: queue full, dropping record %s", rec.ID)
	}
}

// Consume reads records from the in-memory queue.
func (m *MockConsumer) Consume(ctx context.Context) (rec *models.LogRecord, ack func(success bool), err error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case rec := <-m.records:
		if rec == nil {
			return nil, nil, errors.New("record channel closed")
		}

		ackCallback := func(success bool) {
			if success {
				return
			}
			// Nack: re-queue so the record is redelivered, as a broker would.
			m.logger.Printf("[MockConsumer] NACK received for record %s. Re-queueing", rec.ID)
			select {
			case m.records <- rec:
			default:
				m.logger.Printf("[MockConsumer] Warning: Failed to re-queue record (channel full?): %s", rec.ID)
			}
		}
		return rec, ackCallback, nil
	}
}

// Close closes the record channel.
func (m *MockConsumer) Close() error {
	close(m.records)
	return nil
}

var _ Consumer = (*MockConsumer)(nil)
