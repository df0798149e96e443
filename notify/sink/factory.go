package sink

import (
	"fmt"
	"log"

	"logsift/config"
	"logsift/notify/sink/slack"
	"logsift/notify/sink/telegram"
)

// Type represents the kind of notification sink
type Type string

const (
	Slack    Type = "slack"
	Telegram Type = "telegram"
	Log      Type = "log"
)

// New creates a notification sink based on the configuration.
func New(cfg config.NotifierConfig, logger *log.Logger) (Sink, error) {
	switch Type(cfg.SinkType) {
	case Slack:
		return slack.New(cfg.Slack, logger)
	case Telegram:
		return telegram.New(cfg.Telegram, logger)
	case Log, "":
		// Default to the log sink when nothing external is configured.
		return NewLogSink(logger), nil
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", cfg.SinkType)
	}
}
