package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"logsift/classify"
	"logsift/config"
	"logsift/internal/hub"
	"logsift/internal/models"
	"logsift/internal/stats"
	"logsift/storage/store"

	"logsift/internal/messaging/consumer"
)

// Worker is the ingestion consumer: it pulls raw records from the broker in
// delivery order and runs each through classify -> persist -> aggregate ->
// broadcast, committing progress only after the full sequence completes.
type Worker struct {
	consumerRetryDelay time.Duration // Parsed from cfg.ConsumerRetryDelay
	persistBackoffBase time.Duration // Parsed from cfg.PersistBackoffBase
	persistTimeout     time.Duration // Parsed from cfg.PersistTimeout
	persistMaxRetries  int

	logger     *log.Logger
	consumer   consumer.Consumer
	store      store.Store
	classifier classify.Classifier
	aggregator *stats.Aggregator
	hub        *hub.Hub
}

// New creates a new Worker instance
func New(cfg config.WorkerConfig, logger *log.Logger, c consumer.Consumer, s store.Store, cl classify.Classifier, agg *stats.Aggregator, h *hub.Hub) *Worker {
	// Parse time duration strings
	consumerRetryDelay, err := time.ParseDuration(cfg.ConsumerRetryDelay)
	if err != nil {
		logger.Printf("Warning: Invalid consumer_retry_delay '%s', using default 5s", cfg.ConsumerRetryDelay)
		consumerRetryDelay = 5 * time.Second
	}

	persistBackoffBase, err := time.ParseDuration(cfg.PersistBackoffBase)
	if err != nil {
		logger.Printf("Warning: Invalid persist_backoff_base '%s', using default 100ms", cfg.PersistBackoffBase)
		persistBackoffBase = 100 * time.Millisecond
	}

	persistTimeout, err := time.ParseDuration(cfg.PersistTimeout)
	if err != nil {
		logger.Printf("Warning: Invalid persist_timeout '%s', using default 5s", cfg.PersistTimeout)
		persistTimeout = 5 * time.Second
	}

	persistMaxRetries := cfg.PersistMaxRetries
	if persistMaxRetries <= 0 {
		persistMaxRetries = 5
	}

	return &Worker{
		consumerRetryDelay: consumerRetryDelay,
		persistBackoffBase: persistBackoffBase,
		persistTimeout:     persistTimeout,
		persistMaxRetries:  persistMaxRetries,
		logger:             logger,
		consumer:           c,
		store:              s,
		classifier:         cl,
		aggregator:         agg,
		hub:                h,
	}
}

// Run consumes until the context is cancelled. The in-flight record finishes
// processing before Run returns, so a shutdown does not double-process an
// offset unnecessarily.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Println("Ingestion worker started")
	for {
		rec, ack, err := w.consumer.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				w.logger.Println("Ingestion worker: context cancelled, stopping.")
				return
			}
			// Malformed messages were already committed by the consumer;
			// everything else is a broker-side condition worth backing off on.
			var malformed *models.MalformedRecordError
			if !errors.As(err, &malformed) {
				w.logger.Printf("Ingestion worker: consumer error: %v", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(w.consumerRetryDelay):
				}
			}
			continue
		}
		if rec == nil {
			continue
		}

		w.processRecord(ctx, rec, ack)
	}
}

// RunPool starts n workers sharing this worker's consumer and waits for all
// of them. The broker serializes delivery per partition, so ordering within
// a partition is preserved regardless of pool size.
func (w *Worker) RunPool(ctx context.Context, n int) {
	if n <= 1 {
		w.Run(ctx)
		return
	}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}
	wg.Wait()
}

// processRecord runs the per-record pipeline and acknowledges the broker.
// Progress is committed only after every step has completed.
func (w *Worker) processRecord(ctx context.Context, rec *models.LogRecord, ack func(success bool)) {
	// 1. Validate required fields. A malformed record is skipped, never a
	// reason to stall the stream; committing it keeps the offset moving.
	if err := rec.Validate(); err != nil {
		w.logger.Printf("Ingestion worker: skipping record: %v", err)
		ack(true)
		return
	}

	// 2. Classify.
	classified := models.ClassifiedRecord{
		LogRecord:      *rec,
		Classification: w.classifier.Classify(*rec),
		ClassifiedAt:   time.Now().UTC(),
	}

	// 3. Persist with bounded backoff. On exhaustion the record is logged as
	// lost to persistence but still forwarded: live visibility must not
	// depend on durable storage succeeding.
	if err := w.persistWithRetry(ctx, classified); err != nil {
		w.logger.Printf("Ingestion worker: record %s lost to persistence after %d attempts: %v",
			classified.ID, w.persistMaxRetries, err)
	}

	// 4. Update running counts.
	w.aggregator.Record(classified.Classification)

	// 5. Fan out to live subscribers.
	w.hub.Publish(classified)

	ack(true)
}

// persistWithRetry writes the record, retrying with exponential backoff up
// to the configured attempt limit.
func (w *Worker) persistWithRetry(ctx context.Context, rec models.ClassifiedRecord) error {
	var lastErr error
	backoff := w.persistBackoffBase
	for attempt := 1; attempt <= w.persistMaxRetries; attempt++ {
		writeCtx, cancel := context.WithTimeout(ctx, w.persistTimeout)
		lastErr = w.store.WriteClassified(writeCtx, rec)
		cancel()
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt < w.persistMaxRetries {
			w.logger.Printf("Ingestion worker: persistence attempt %d/%d for record %s failed: %v (retrying in %v)",
				attempt, w.persistMaxRetries, rec.ID, lastErr, backoff)
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return lastErr
}
