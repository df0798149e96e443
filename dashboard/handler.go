// Package dashboard exposes the pipeline's read side over HTTP: aggregate
// statistics, classified record listings, notification controls, and a live
// SSE stream of classified records.
package dashboard

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"logsift/internal/models"
	"logsift/internal/stats"
	"logsift/notify"
	"logsift/storage/store"
)

const (
	defaultRecordsLimit = 100
	maxRecordsLimit     = 1000
)

// Handler encapsulates the logic for handling dashboard HTTP requests
type Handler struct {
	store      store.Store
	aggregator *stats.Aggregator
	dispatcher *notify.Dispatcher
	logger     *log.Logger
}

// NewHandler creates a new Handler
func NewHandler(s store.Store, agg *stats.Aggregator, d *notify.Dispatcher, l *log.Logger) *Handler {
	return &Handler{store: s, aggregator: agg, dispatcher: d, logger: l}
}

// Stats handles GET /v1/stats requests
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	snap := h.aggregator.Snapshot()
	resp := map[string]interface{}{
		"normal":       snap.Normal,
		"anomaly":      snap.Anomaly,
		"unidentified": snap.Unidentified,
		"total":        snap.Total(),
		"timestamp":    time.Now().Format(time.RFC3339Nano),
	}

	h.respondJSON(w, resp, http.StatusOK)
}

// Records handles GET /v1/records requests. Query parameters:
// classification (normal/anomaly/unidentified, default anomaly),
// limit (default 100, max 1000), offset (default 0).
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	class := models.Classification(r.URL.Query().Get("classification"))
	if class == "" {
		class = models.ClassAnomaly
	}
	if !class.Valid() {
		h.respondError(w, "invalid classification: "+string(class), http.StatusBadRequest)
		return
	}

	limit, err := queryInt(r, "limit", defaultRecordsLimit)
	if err != nil || limit < 1 {
		h.respondError(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}
	if limit > maxRecordsLimit {
		limit = maxRecordsLimit
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		h.respondError(w, "offset must be a non-negative integer", http.StatusBadRequest)
		return
	}

	records, err := h.store.ListByClassification(r.Context(), class, limit, offset)
	if err != nil {
		h.logger.Printf("Dashboard: record listing failed: %v", err)
		h.respondError(w, "record listing failed", http.StatusInternalServerError)
		return
	}

	resp := map[string]interface{}{
		"classification": class,
		"count":          len(records),
		"records":        records,
	}

	h.respondJSON(w, resp, http.StatusOK)
}

// NotificationStatus handles GET /v1/notifications/status requests
func (h *Handler) NotificationStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	h.respondJSON(w, h.dispatcher.Status(), http.StatusOK)
}

// TriggerSend handles POST /v1/notifications/send requests. A send already
// in flight yields 409 Conflict; a sink failure yields 502 Bad Gateway.
func (h *Handler) TriggerSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.dispatcher.TriggerSend(r.Context()); err != nil {
		if errors.Is(err, notify.ErrSendInFlight) {
			h.respondError(w, err.Error(), http.StatusConflict)
			return
		}
		h.logger.Printf("Dashboard: manual send failed: %v", err)
		h.respondError(w, err.Error(), http.StatusBadGateway)
		return
	}

	h.respondJSON(w, h.dispatcher.Status(), http.StatusOK)
}

// AutoSend handles POST /v1/notifications/auto requests. The flag comes from
// the enabled query parameter or a {"enabled": true|false} body.
func (h *Handler) AutoSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var enabled *bool
	if raw := r.URL.Query().Get("enabled"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondError(w, "enabled must be true or false", http.StatusBadRequest)
			return
		}
		enabled = &v
	} else if r.Body != nil {
		var reqPayload struct {
			Enabled *bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&reqPayload); err != nil && err != io.EOF {
			h.respondError(w, "Bad Request: Invalid JSON format", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()
		enabled = reqPayload.Enabled
	}

	if enabled == nil {
		h.respondError(w, "enabled is required", http.StatusBadRequest)
		return
	}

	h.dispatcher.SetAutoSend(*enabled)
	h.respondJSON(w, h.dispatcher.Status(), http.StatusOK)
}

// ClearSent handles POST /v1/notifications/clear-sent requests
func (h *Handler) ClearSent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	h.dispatcher.ClearSent()
	h.respondJSON(w, h.dispatcher.Status(), http.StatusOK)
}

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"service":   "dashboard",
	}

	h.respondJSON(w, resp, http.StatusOK)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// respondJSON sends JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("Dashboard: Failed to encode JSON response: %v", err)
		// Cannot send error to client at this point
	}
}

// respondError sends error response
func (h *Handler) respondError(w http.ResponseWriter, message string, statusCode int) {
	errorResp := map[string]interface{}{
		"error":   message,
		"status":  statusCode,
		"message": http.StatusText(statusCode),
	}

	h.respondJSON(w, errorResp, statusCode)
}
