// Package notify selects anomalous records that have not yet been delivered
// to the external chat channel and sends them, at most once per record,
// either on manual trigger or on an automatic cadence.
package notify

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"logsift/config"
	"logsift/internal/dedup"
	"logsift/internal/models"
	"logsift/notify/sink"
	"logsift/storage/store"
)

// SentContext is the dedup context holding ids already delivered to the
// notification channel. It survives dashboard reconnects; only ClearSent
// resets it.
const SentContext = "notifications"

// ErrSendInFlight is returned when a trigger arrives while a send is already
// in progress. Concurrent triggers are no-ops, not queued.
var ErrSendInFlight = errors.New("notification send already in flight")

// State is the dispatcher's current phase.
type State string

const (
	StateIdle    State = "idle"
	StateSending State = "sending"
	StateFailed  State = "failed"
)

// Status is a read-only snapshot of the dispatcher.
type Status struct {
	State             State     `json:"state"`
	AutoSendEnabled   bool      `json:"auto_send_enabled"`
	DispatcherRunning bool      `json:"dispatcher_running"`
	SentCount         int       `json:"sent_count"`
	SinkName          string    `json:"sink"`
	LastError         string    `json:"last_error,omitempty"`
	LastSendAt        time.Time `json:"last_send_at,omitempty"`
}

// Dispatcher owns NotificationState. All mutations — marking ids sent,
// toggling auto-send, entering and leaving Sending — are serialized under
// one mutex; two dispatchers must not share a sink over the same data.
type Dispatcher struct {
	mu       sync.Mutex
	state    State
	autoSend bool
	running  bool
	lastErr  string
	lastSend time.Time

	store       store.Store
	tracker     *dedup.Tracker
	sink        sink.Sink
	logger      *log.Logger
	limiter     *rate.Limiter
	cron        *cron.Cron
	batchCap    int
	sendTimeout time.Duration
	interval    time.Duration

	// failedTTL bounds how long the transient Failed state stays visible
	// before reverting to Idle.
	failedTTL time.Duration
}

// NewDispatcher creates a Dispatcher from configuration.
func NewDispatcher(cfg config.NotifierConfig, s store.Store, tracker *dedup.Tracker, snk sink.Sink, logger *log.Logger) *Dispatcher {
	interval, err := time.ParseDuration(cfg.AutoSendInterval)
	if err != nil || interval <= 0 {
		logger.Printf("Warning: Invalid auto_send_interval '%s', using default 60s", cfg.AutoSendInterval)
		interval = 60 * time.Second
	}

	sendTimeout, err := time.ParseDuration(cfg.SendTimeout)
	if err != nil || sendTimeout <= 0 {
		logger.Printf("Warning: Invalid send_timeout '%s', using default 15s", cfg.SendTimeout)
		sendTimeout = 15 * time.Second
	}

	batchCap := cfg.BatchCap
	if batchCap <= 0 {
		batchCap = 50
	}

	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	return &Dispatcher{
		state:       StateIdle,
		autoSend:    cfg.AutoSendEnabled,
		store:       s,
		tracker:     tracker,
		sink:        snk,
		logger:      logger,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		batchCap:    batchCap,
		sendTimeout: sendTimeout,
		interval:    interval,
		failedTTL:   3 * time.Second,
	}
}

// Run starts the automatic cadence: a cron entry fires the Idle -> Sending
// transition on the configured interval while auto-send is enabled. Returns
// after registering; Stop tears the schedule down.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc("@every "+d.interval.String(), func() { d.autoTrigger(ctx) })
	if err != nil {
		return err
	}
	c.Start()
	d.cron = c
	d.running = true
	d.logger.Printf("Notification dispatcher started (sink: %s, interval: %s, batch cap: %d)",
		d.sink.Name(), d.interval, d.batchCap)
	return nil
}

// Stop halts the automatic cadence. An in-flight send is not aborted.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	c := d.cron
	d.cron = nil
	wasRunning := d.running
	d.running = false
	d.mu.Unlock()

	if c != nil {
		// Wait for a firing job to return before declaring the stop done.
		<-c.Stop().Done()
	}
	if wasRunning {
		d.logger.Println("Notification dispatcher stopped")
	}
}

// autoTrigger fires a send if the automatic mode is on. A send already in
// flight is skipped silently.
func (d *Dispatcher) autoTrigger(ctx context.Context) {
	d.mu.Lock()
	enabled := d.autoSend
	d.mu.Unlock()
	if !enabled {
		return
	}
	if err := d.TriggerSend(ctx); err != nil && !errors.Is(err, ErrSendInFlight) {
		d.logger.Printf("Notification dispatcher: automatic send failed: %v", err)
	}
}

// TriggerSend runs one send cycle: gather anomaly records not yet sent, in
// ascending timestamp order up to the batch cap, deliver them as one sink
// call, and mark every included id as sent atomically with the success.
// A failure marks nothing, so the next trigger retries the same ids.
func (d *Dispatcher) TriggerSend(ctx context.Context) error {
	d.mu.Lock()
	if d.state == StateSending {
		d.mu.Unlock()
		return ErrSendInFlight
	}
	d.state = StateSending
	d.mu.Unlock()

	batch, err := d.selectUnsent(ctx)
	if err != nil {
		d.fail(err)
		return err
	}
	if len(batch) == 0 {
		// Nothing new: the sink is not called.
		d.setIdle()
		return nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		d.fail(err)
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	err = d.sink.Send(sendCtx, batch)
	cancel()
	if err != nil {
		// Attempted ids stay unmarked for the retry on the next trigger.
		d.fail(err)
		return err
	}

	ids := make([]string, len(batch))
	for i, rec := range batch {
		ids[i] = rec.ID
	}

	d.mu.Lock()
	d.tracker.MarkBatch(SentContext, ids)
	d.state = StateIdle
	d.lastErr = ""
	d.lastSend = time.Now()
	d.mu.Unlock()

	d.logger.Printf("Notification dispatcher: sent %d record(s) via %s", len(batch), d.sink.Name())
	return nil
}

// selectUnsent returns anomaly records absent from the sent set, oldest
// first, capped at the batch size. The fetch window is widened by the sent
// count so already-delivered old records cannot crowd out newer ones.
func (d *Dispatcher) selectUnsent(ctx context.Context) ([]models.ClassifiedRecord, error) {
	window := d.batchCap + d.tracker.Count(SentContext)
	candidates, err := d.store.ListByClassificationAsc(ctx, models.ClassAnomaly, window)
	if err != nil {
		return nil, err
	}
	unsent := make([]models.ClassifiedRecord, 0, d.batchCap)
	for _, rec := range candidates {
		if d.tracker.Seen(SentContext, rec.ID) {
			continue
		}
		unsent = append(unsent, rec)
		if len(unsent) == d.batchCap {
			break
		}
	}
	return unsent, nil
}

// fail records the error, surfaces the transient Failed state, and schedules
// the revert to Idle.
func (d *Dispatcher) fail(err error) {
	d.logger.Printf("Notification dispatcher: send failed: %v", err)
	d.mu.Lock()
	d.state = StateFailed
	d.lastErr = err.Error()
	ttl := d.failedTTL
	d.mu.Unlock()

	time.AfterFunc(ttl, func() {
		d.mu.Lock()
		if d.state == StateFailed {
			d.state = StateIdle
		}
		d.mu.Unlock()
	})
}

func (d *Dispatcher) setIdle() {
	d.mu.Lock()
	d.state = StateIdle
	d.mu.Unlock()
}

// SetAutoSend toggles the automatic cadence. Toggling off stops future
// automatic triggers without aborting a send in progress, and never clears
// the sent-record set.
func (d *Dispatcher) SetAutoSend(enabled bool) {
	d.mu.Lock()
	d.autoSend = enabled
	d.mu.Unlock()
	d.logger.Printf("Notification dispatcher: auto-send %v", enabled)
}

// ClearSent resets the sent-record tracking.
func (d *Dispatcher) ClearSent() {
	d.tracker.Clear(SentContext)
	d.logger.Println("Notification dispatcher: cleared sent-record tracking")
}

// Status returns a read-only snapshot of the dispatcher state.
func (d *Dispatcher) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		State:             d.state,
		AutoSendEnabled:   d.autoSend,
		DispatcherRunning: d.running,
		SentCount:         d.tracker.Count(SentContext),
		SinkName:          d.sink.Name(),
		LastError:         d.lastErr,
		LastSendAt:        d.lastSend,
	}
}
