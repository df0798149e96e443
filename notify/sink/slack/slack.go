// Package slack delivers anomaly reports to a Slack channel via the Web API.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"logsift/config"
	"logsift/internal/models"
)

const (
	defaultApiURL  = "https://slack.com/api/chat.postMessage"
	defaultTimeout = 10 * time.Second
	maxShownParams = 20 // entries listed in full before the overflow line
)

// Sink posts formatted anomaly reports with chat.postMessage.
type Sink struct {
	client    *http.Client
	apiURL    string
	token     string
	channelID string
	logger    *log.Logger
}

// New creates a Slack sink from configuration.
func New(cfg config.SlackSinkConfig, logger *log.Logger) (*Sink, error) {
	if cfg.BotToken == "" || cfg.ChannelID == "" {
		return nil, fmt.Errorf("slack sink configuration incomplete: bot_token and channel_id are required")
	}
	apiURL := cfg.ApiURL
	if apiURL == "" {
		apiURL = defaultApiURL
	}
	logger.Printf("Slack sink created for channel %s", cfg.ChannelID)
	return &Sink{
		client:    &http.Client{Timeout: defaultTimeout},
		apiURL:    apiURL,
		token:     cfg.BotToken,
		channelID: cfg.ChannelID,
		logger:    logger,
	}, nil
}

// Send posts the batch as one message. Any non-2xx response or an "ok":false
// API payload fails the whole batch.
func (s *Sink) Send(ctx context.Context, batch []models.ClassifiedRecord) error {
	payload := map[string]interface{}{
		"channel": s.channelID,
		"text":    formatReport(batch, time.Now()),
		"parse":   "none",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("slack: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack: HTTP %d", resp.StatusCode)
	}

	var apiResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("slack: decode response: %w", err)
	}
	if !apiResp.OK {
		return fmt.Errorf("slack: API error: %s", apiResp.Error)
	}

	s.logger.Printf("Slack sink: sent %d record(s) to channel %s", len(batch), s.channelID)
	return nil
}

// formatReport builds the report text: a stamped header, one section of
// anomaly entries (timestamp and parameter per entry), and an overflow line
// past maxShownParams.
func formatReport(batch []models.ClassifiedRecord, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Anomaly Detection Report - %s\n\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString(":red_circle: ANOMALY PARAMETERS\n")

	shown := batch
	if len(shown) > maxShownParams {
		shown = shown[:maxShownParams]
	}
	for _, rec := range shown {
		b.WriteString(rec.Timestamp.Format("01/02/2006, 03:04:05 PM"))
		b.WriteByte('\n')
		if rec.ParamValue != "" {
			b.WriteString(rec.ParamValue)
		} else {
			b.WriteString(rec.Message)
		}
		b.WriteString("\n\n")
	}
	if extra := len(batch) - maxShownParams; extra > 0 {
		fmt.Fprintf(&b, "... and %d more anomaly parameters\n", extra)
	}
	return b.String()
}

// Name identifies the sink type.
func (s *Sink) Name() string { return "slack" }

// Close is a no-op; the HTTP client holds no persistent resources.
func (s *Sink) Close() error { return nil }
