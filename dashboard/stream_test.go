package dashboard

import (
	"bufio"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"logsift/internal/dedup"
	"logsift/internal/hub"
	"logsift/internal/models"
)

type streamEvent struct {
	Type   string                  `json:"type"`
	Record *models.ClassifiedRecord `json:"record"`
}

// readFrames feeds decoded SSE frames into a channel until the body closes.
func readFrames(body io.Reader, out chan<- streamEvent) {
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			continue
		}
		out <- ev
	}
	close(out)
}

func nextEvent(t *testing.T, events <-chan streamEvent) streamEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("stream closed before the expected event arrived")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a stream event")
	}
	return streamEvent{}
}

func waitForSubscribers(t *testing.T, h *hub.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Len() != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub never reached %d subscriber(s)", n)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func classified(id string) models.ClassifiedRecord {
	now := time.Now().UTC()
	return models.ClassifiedRecord{
		LogRecord: models.LogRecord{
			ID:        id,
			Timestamp: now,
			LogLevel:  "ERROR",
			Message:   "disk failure",
		},
		Classification: models.ClassAnomaly,
		ClassifiedAt:   now,
	}
}

func TestStreamDeliversRecordsOncePerConnection(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	h := hub.New(16, logger)
	tracker := dedup.NewTracker()

	srv := httptest.NewServer(NewStreamHandler(h, tracker, logger))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", got)
	}

	events := make(chan streamEvent, 16)
	go readFrames(resp.Body, events)

	// The stream opens with a ping before any record.
	if ev := nextEvent(t, events); ev.Type != "ping" {
		t.Fatalf("expected opening ping, got %q", ev.Type)
	}

	waitForSubscribers(t, h, 1)

	// A record redelivered by the broker reaches the client once.
	h.Publish(classified("r1"))
	h.Publish(classified("r1"))
	h.Publish(classified("r2"))

	ev := nextEvent(t, events)
	if ev.Type != "record" || ev.Record == nil || ev.Record.ID != "r1" {
		t.Fatalf("expected record r1, got %+v", ev)
	}
	ev = nextEvent(t, events)
	if ev.Type != "record" || ev.Record == nil || ev.Record.ID != "r2" {
		t.Fatalf("duplicate was not suppressed: got %+v", ev)
	}

	resp.Body.Close()
	waitForSubscribers(t, h, 0)
}

func TestStreamReconnectStartsFresh(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	h := hub.New(16, logger)
	tracker := dedup.NewTracker()

	srv := httptest.NewServer(NewStreamHandler(h, tracker, logger))
	defer srv.Close()

	connect := func() (*http.Response, chan streamEvent) {
		resp, err := http.Get(srv.URL)
		if err != nil {
			t.Fatalf("stream request failed: %v", err)
		}
		events := make(chan streamEvent, 16)
		go readFrames(resp.Body, events)
		if ev := nextEvent(t, events); ev.Type != "ping" {
			t.Fatalf("expected opening ping, got %q", ev.Type)
		}
		return resp, events
	}

	resp, events := connect()
	waitForSubscribers(t, h, 1)
	h.Publish(classified("r1"))
	if ev := nextEvent(t, events); ev.Record == nil || ev.Record.ID != "r1" {
		t.Fatalf("expected r1 on first connection, got %+v", ev)
	}
	resp.Body.Close()
	waitForSubscribers(t, h, 0)

	// The dedup context died with the connection: a redelivery of r1 is a
	// new record to the fresh subscriber.
	resp, events = connect()
	defer resp.Body.Close()
	waitForSubscribers(t, h, 1)
	h.Publish(classified("r1"))
	if ev := nextEvent(t, events); ev.Record == nil || ev.Record.ID != "r1" {
		t.Fatalf("expected r1 again after reconnect, got %+v", ev)
	}
}

func TestStreamRejectsPost(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	srv := httptest.NewServer(NewStreamHandler(hub.New(4, logger), dedup.NewTracker(), logger))
	defer srv.Close()

	resp, err := http.Post(srv.URL, "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}
