package dashboard

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"logsift/internal/dedup"
	"logsift/internal/hub"
)

// streamContextPrefix namespaces the per-connection dedup contexts so they
// never collide with the notification sent-record context.
const streamContextPrefix = "stream:"

// StreamHandler serves GET /v1/stream: a Server-Sent Events feed of
// classified records. Each connection gets its own hub subscription and its
// own dedup context, so a record re-delivered by the broker is forwarded to
// a given client at most once. The context is discarded on disconnect; a
// client that reconnects starts fresh.
type StreamHandler struct {
	hub     *hub.Hub
	tracker *dedup.Tracker
	logger  *log.Logger
}

// NewStreamHandler creates a new StreamHandler
func NewStreamHandler(h *hub.Hub, tracker *dedup.Tracker, l *log.Logger) *StreamHandler {
	return &StreamHandler{hub: h, tracker: tracker, logger: l}
}

// ServeHTTP streams hub events to the client until it disconnects.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := h.hub.Subscribe()
	streamCtx := streamContextPrefix + sub.ID()
	defer func() {
		h.hub.Unsubscribe(sub.ID())
		h.tracker.Clear(streamCtx)
		h.logger.Printf("Stream: subscriber %s disconnected", sub.ID())
	}()

	h.logger.Printf("Stream: subscriber %s connected", sub.ID())

	// Opening frame so the client knows the stream is live before any
	// record arrives.
	h.writeEvent(w, map[string]interface{}{
		"type":      "ping",
		"timestamp": time.Now().Format(time.RFC3339Nano),
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-sub.Events():
			if !open {
				return
			}
			switch ev.Type {
			case hub.EventKeepalive:
				h.writeEvent(w, map[string]interface{}{
					"type":      "ping",
					"timestamp": ev.Timestamp.Format(time.RFC3339Nano),
				})
			case hub.EventRecord:
				if !h.tracker.IsNew(streamCtx, ev.Record.ID) {
					continue
				}
				h.writeEvent(w, map[string]interface{}{
					"type":      "record",
					"record":    ev.Record,
					"timestamp": ev.Timestamp.Format(time.RFC3339Nano),
				})
			default:
				continue
			}
			flusher.Flush()
		}
	}
}

// writeEvent emits one SSE data frame.
func (h *StreamHandler) writeEvent(w http.ResponseWriter, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Printf("Stream: Failed to encode event: %v", err)
		return
	}
	w.Write([]byte("data: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
}
