package config

import "fmt"

// SlackSinkConfig defines settings for the Slack notification sink
type SlackSinkConfig struct {
	BotToken  string `yaml:"bot_token"`  // Slack bot token (xoxb-...)
	ChannelID string `yaml:"channel_id"` // Target channel ID
	ApiURL    string `yaml:"api_url"`    // Override for tests; defaults to the Slack Web API
}

// TelegramSinkConfig defines settings for the Telegram notification sink
type TelegramSinkConfig struct {
	BotToken string `yaml:"bot_token"` // Telegram bot token
	ChatID   int64  `yaml:"chat_id"`   // Target chat ID
}

// NotifierConfig defines configuration for the notification dispatcher and its sink
type NotifierConfig struct {
	SinkType string `yaml:"sink_type"` // slack / telegram / log

	AutoSendEnabled  bool   `yaml:"auto_send_enabled"`  // Start with the automatic cadence on
	AutoSendInterval string `yaml:"auto_send_interval"` // Interval between automatic triggers
	BatchCap         int    `yaml:"batch_cap"`          // Max records per send
	SendTimeout      string `yaml:"send_timeout"`       // Timeout for one sink call
	RatePerMinute    int    `yaml:"rate_per_minute"`    // Ceiling on outbound sink calls

	Slack    SlackSinkConfig    `yaml:"slack"`
	Telegram TelegramSinkConfig `yaml:"telegram"`
}

// SetDefaults sets reasonable default values for notifier configuration
func (c *NotifierConfig) SetDefaults() {
	if c.SinkType == "" {
		c.SinkType = "log"
		fmt.Printf("Warning: notifier.sink_type not set, defaulting to %s\n", c.SinkType)
	}
	if c.AutoSendInterval == "" {
		c.AutoSendInterval = "60s"
		fmt.Printf("Warning: notifier.auto_send_interval not set, defaulting to %s\n", c.AutoSendInterval)
	}
	if c.BatchCap <= 0 {
		c.BatchCap = 50
		fmt.Printf("Warning: notifier.batch_cap not set or invalid, defaulting to %d\n", c.BatchCap)
	}
	if c.SendTimeout == "" {
		c.SendTimeout = "15s"
		fmt.Printf("Warning: notifier.send_timeout not set, defaulting to %s\n", c.SendTimeout)
	}
	if c.RatePerMinute <= 0 {
		c.RatePerMinute = 30
		fmt.Printf("Warning: notifier.rate_per_minute not set or invalid, defaulting to %d\n", c.RatePerMinute)
	}
}

// Validate validates the notifier configuration
func (c *NotifierConfig) Validate() error {
	switch c.SinkType {
	case "slack":
		if c.Slack.BotToken == "" {
			return fmt.Errorf("slack sink requires slack.bot_token")
		}
		if c.Slack.ChannelID == "" {
			return fmt.Errorf("slack sink requires slack.channel_id")
		}
	case "telegram":
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram sink requires telegram.bot_token")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram sink requires telegram.chat_id")
		}
	case "log":
		// No settings required.
	default:
		return fmt.Errorf("unsupported sink type: %s", c.SinkType)
	}
	return nil
}
