// Package telegram delivers anomaly reports to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"logsift/config"
	"logsift/internal/models"
)

// Sink sends formatted anomaly reports through a Telegram bot. The bot is
// send-only: no poller is attached.
type Sink struct {
	bot    *tele.Bot
	chatID int64
	logger *log.Logger
}

// New creates a Telegram sink from configuration.
func New(cfg config.TelegramSinkConfig, logger *log.Logger) (*Sink, error) {
	if strings.TrimSpace(cfg.BotToken) == "" {
		return nil, fmt.Errorf("telegram sink configuration incomplete: bot_token is required")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram sink configuration incomplete: chat_id is required")
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Client: nil, // default HTTP client
	})
	if err != nil {
		return nil, fmt.Errorf("telegram sink: %w", err)
	}

	logger.Printf("Telegram sink created for chat %d", cfg.ChatID)
	return &Sink{bot: bot, chatID: cfg.ChatID, logger: logger}, nil
}

// Send posts the batch as one message to the configured chat.
func (s *Sink) Send(ctx context.Context, batch []models.ClassifiedRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚨 Anomaly report — %d record(s)\n\n", len(batch))
	for _, rec := range batch {
		b.WriteString(rec.Timestamp.Format(time.RFC3339))
		b.WriteByte('\n')
		if rec.ParamValue != "" {
			b.WriteString(rec.ParamValue)
		} else {
			b.WriteString(rec.Message)
		}
		b.WriteString("\n\n")
	}

	if _, err := s.bot.Send(tele.ChatID(s.chatID), b.String(), &tele.SendOptions{DisableWebPagePreview: true}); err != nil {
		return fmt.Errorf("telegram sink: %w", err)
	}
	s.logger.Printf("Telegram sink: sent %d record(s) to chat %d", len(batch), s.chatID)
	return nil
}

// Name identifies the sink type.
func (s *Sink) Name() string { return "telegram" }

// Close is a no-op; no poller is running.
func (s *Sink) Close() error { return nil }
