package hub

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"logsift/internal/models"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func classified(id string) models.ClassifiedRecord {
	return models.ClassifiedRecord{
		LogRecord: models.LogRecord{
			ID:        id,
			Timestamp: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
			LogLevel:  "ERROR",
			Message:   "msg " + id,
		},
		Classification: models.ClassAnomaly,
		ClassifiedAt:   time.Date(2026, 8, 1, 10, 0, 1, 0, time.UTC),
	}
}

func drain(sub *Subscriber) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	h := New(8, testLogger())
	a := h.Subscribe()
	b := h.Subscribe()

	h.Publish(classified("r1"))

	for _, sub := range []*Subscriber{a, b} {
		evs := drain(sub)
		if len(evs) != 1 || evs[0].Type != EventRecord || evs[0].Record.ID != "r1" {
			t.Fatalf("subscriber %s got %v, want one record event r1", sub.ID(), evs)
		}
	}
}

// One subscriber disconnects after 3 records; the 4th is delivered only to
// the survivor, and nothing errors for the departed one.
func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := New(8, testLogger())
	stay := h.Subscribe()
	leave := h.Subscribe()

	for i := 1; i <= 3; i++ {
		h.Publish(classified(fmt.Sprintf("r%d", i)))
	}
	h.Unsubscribe(leave.ID())
	h.Unsubscribe(leave.ID()) // idempotent

	h.Publish(classified("r4"))

	evs := drain(stay)
	if len(evs) != 4 {
		t.Fatalf("surviving subscriber got %d events, want 4", len(evs))
	}
	if evs[3].Record.ID != "r4" {
		t.Fatalf("last event = %s, want r4", evs[3].Record.ID)
	}

	// The departed subscriber's channel is closed and holds only its 3 events.
	got := drain(leave)
	if len(got) != 3 {
		t.Fatalf("departed subscriber drained %d events, want the 3 pre-disconnect ones", len(got))
	}
	if h.Len() != 1 {
		t.Fatalf("hub has %d subscribers, want 1", h.Len())
	}
}

// A slow subscriber loses its oldest events instead of slowing anyone down.
func TestSlowSubscriberDropsOldest(t *testing.T) {
	h := New(2, testLogger())
	slow := h.Subscribe()
	fast := h.Subscribe()

	// Fast subscriber consumes as events arrive; slow never reads.
	received := make(chan int)
	go func() {
		n := 0
		for range fast.Events() {
			n++
			if n == 10 {
				received <- n
				return
			}
		}
		received <- n
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= 10; i++ {
			h.Publish(classified(fmt.Sprintf("r%d", i)))
			time.Sleep(time.Millisecond) // let the fast reader keep pace
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}

	select {
	case n := <-received:
		if n != 10 {
			t.Fatalf("fast subscriber received %d events, want 10", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fast subscriber starved by a slow peer")
	}

	evs := drain(slow)
	if len(evs) != 2 {
		t.Fatalf("slow subscriber holds %d events, want 2 (buffer size)", len(evs))
	}
	if evs[len(evs)-1].Record.ID != "r10" {
		t.Fatalf("newest retained event = %s, want r10", evs[len(evs)-1].Record.ID)
	}
}

func TestKeepaliveEmittedWithoutTraffic(t *testing.T) {
	h := New(8, testLogger())
	sub := h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.RunKeepalive(ctx, 10*time.Millisecond)

	select {
	case ev := <-sub.Events():
		if ev.Type != EventKeepalive {
			t.Fatalf("event type = %s, want ping", ev.Type)
		}
		if ev.Timestamp.IsZero() {
			t.Fatal("keepalive carries no timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("no keepalive within 1s at a 10ms interval")
	}
}
