package sink

import (
	"context"
	"log"

	"logsift/internal/models"
)

// LogSink writes batches to the process log. It stands in for a real chat
// channel in development and in the mock broker mode.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Send logs each record in the batch.
func (s *LogSink) Send(_ context.Context, batch []models.ClassifiedRecord) error {
	s.logger.Printf("[LogSink] Anomaly report: %d record(s)", len(batch))
	for _, rec := range batch {
		s.logger.Printf("[LogSink]   %s  %s  %s", rec.Timestamp.Format("2006-01-02 15:04:05"), rec.ID, rec.ParamValue)
	}
	return nil
}

// Name identifies the sink type.
func (s *LogSink) Name() string { return "log" }

// Close is a no-op.
func (s *LogSink) Close() error { return nil }

var _ Sink = (*LogSink)(nil)
