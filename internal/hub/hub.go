// Package hub multiplexes classified records to live subscribers. Each
// subscriber owns a bounded queue; a slow subscriber loses its oldest events
// rather than blocking publication to anyone else.
package hub

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"logsift/internal/models"
)

// EventType distinguishes data events from keepalives on the stream.
type EventType string

const (
	EventRecord    EventType = "record"
	EventKeepalive EventType = "ping"
)

// Event is one unit delivered to a subscriber.
type Event struct {
	Type      EventType
	Record    *models.ClassifiedRecord // set when Type == EventRecord
	Timestamp time.Time
}

// Subscriber is a live connection identity: created on subscribe, destroyed
// on unsubscribe. Its queue belongs to it alone.
type Subscriber struct {
	id      string
	events  chan Event
	dropped atomic.Int64 // oldest events discarded under backpressure
}

// ID returns the subscriber's unique identity.
func (s *Subscriber) ID() string { return s.id }

// Events returns the subscriber's event stream. The channel is closed on
// unsubscribe; until then it yields records and periodic keepalives.
func (s *Subscriber) Events() <-chan Event { return s.events }

// Hub maintains the set of active subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscriber
	buffer int
	logger *log.Logger
}

// New creates a Hub whose subscribers each hold at most buffer queued events.
func New(buffer int, logger *log.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[string]*Subscriber),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe creates a new Subscriber and registers it with the hub. The
// stream starts empty: no history is replayed.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		id:     uuid.NewString(),
		events: make(chan Event, h.buffer),
	}
	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()
	h.logger.Printf("Hub: subscriber %s connected (total: %d)", sub.id, h.Len())
	return sub
}

// Unsubscribe removes the subscriber and releases its queue. Idempotent:
// unknown ids are ignored.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(sub.events)
	}
	h.mu.Unlock()
	if ok {
		if n := sub.dropped.Load(); n > 0 {
			h.logger.Printf("Hub: subscriber %s disconnected (%d events dropped under backpressure)", id, n)
		} else {
			h.logger.Printf("Hub: subscriber %s disconnected", id)
		}
	}
}

// Publish delivers the record to every currently active subscriber. It never
// blocks: a full queue sheds its oldest event first.
func (h *Hub) Publish(rec models.ClassifiedRecord) {
	ev := Event{Type: EventRecord, Record: &rec, Timestamp: rec.ClassifiedAt}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		h.offer(sub, ev)
	}
}

// Len returns the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// RunKeepalive emits keepalive events to all subscribers on the given
// interval until the context is cancelled, so idle periods stay
// distinguishable from a dead connection.
func (h *Hub) RunKeepalive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			ev := Event{Type: EventKeepalive, Timestamp: now}
			h.mu.RLock()
			for _, sub := range h.subs {
				h.offer(sub, ev)
			}
			h.mu.RUnlock()
		}
	}
}

// offer enqueues without blocking, dropping the subscriber's oldest event
// when the queue is full. Caller holds at least a read lock, so the channel
// cannot be closed concurrently.
func (h *Hub) offer(sub *Subscriber, ev Event) {
	select {
	case sub.events <- ev:
		return
	default:
	}
	// Queue full: shed the oldest event, then retry once.
	select {
	case <-sub.events:
		sub.dropped.Add(1)
	default:
	}
	select {
	case sub.events <- ev:
	default:
		sub.dropped.Add(1)
	}
}
