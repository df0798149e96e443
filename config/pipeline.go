package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// KafkaConsumerConfig defines configuration for the broker consumer
type KafkaConsumerConfig struct {
	Brokers           []string `yaml:"brokers"`            // e.g., ["kafka1:9092", "kafka2:9092"]
	Topic             string   `yaml:"topic"`              // Log topic to consume from
	GroupID           string   `yaml:"group_id"`           // Consumer group ID
	Count             int      `yaml:"count"`              // Number of consumers to create
	SessionTimeout    string   `yaml:"session_timeout"`    // Kafka session timeout
	HeartbeatInterval string   `yaml:"heartbeat_interval"` // Kafka heartbeat interval
	AutoOffsetReset   string   `yaml:"auto_offset_reset"`  // earliest/latest
}

// SetDefaults sets reasonable default values for Kafka consumer configuration
func (c *KafkaConsumerConfig) SetDefaults() {
	if c.Count <= 0 {
		c.Count = 1
		fmt.Printf("Warning: kafka_consumer.count not set or invalid, defaulting to %d\n", c.Count)
	}
	if c.SessionTimeout == "" {
		c.SessionTimeout = "30s"
		fmt.Printf("Warning: kafka_consumer.session_timeout not set, defaulting to %s\n", c.SessionTimeout)
	}
	if c.HeartbeatInterval == "" {
		c.HeartbeatInterval = "3s"
		fmt.Printf("Warning: kafka_consumer.heartbeat_interval not set, defaulting to %s\n", c.HeartbeatInterval)
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "earliest"
		fmt.Printf("Warning: kafka_consumer.auto_offset_reset not set, defaulting to %s\n", c.AutoOffsetReset)
	}
}

// WorkerConfig defines configuration for the ingestion worker
type WorkerConfig struct {
	ConsumerRetryDelay string `yaml:"consumer_retry_delay"` // Delay when the consumer errors
	PersistMaxRetries  int    `yaml:"persist_max_retries"`  // Attempts before a write is abandoned
	PersistBackoffBase string `yaml:"persist_backoff_base"` // First retry delay, doubled per attempt
	PersistTimeout     string `yaml:"persist_timeout"`      // Timeout for a single persistence write
}

// SetDefaults sets reasonable default values for worker configuration
func (c *WorkerConfig) SetDefaults() {
	if c.ConsumerRetryDelay == "" {
		c.ConsumerRetryDelay = "5s"
		fmt.Printf("Warning: worker.consumer_retry_delay not set, defaulting to %s\n", c.ConsumerRetryDelay)
	}
	if c.PersistMaxRetries <= 0 {
		c.PersistMaxRetries = 5
		fmt.Printf("Warning: worker.persist_max_retries not set or invalid, defaulting to %d\n", c.PersistMaxRetries)
	}
	if c.PersistBackoffBase == "" {
		c.PersistBackoffBase = "100ms"
		fmt.Printf("Warning: worker.persist_backoff_base not set, defaulting to %s\n", c.PersistBackoffBase)
	}
	if c.PersistTimeout == "" {
		c.PersistTimeout = "5s"
		fmt.Printf("Warning: worker.persist_timeout not set, defaulting to %s\n", c.PersistTimeout)
	}
}

// HubConfig defines configuration for the broadcast hub
type HubConfig struct {
	SubscriberBuffer  int    `yaml:"subscriber_buffer"`  // Bounded queue size per subscriber
	KeepaliveInterval string `yaml:"keepalive_interval"` // Cadence of keepalive events
}

// SetDefaults sets reasonable default values for hub configuration
func (c *HubConfig) SetDefaults() {
	if c.SubscriberBuffer <= 0 {
		c.SubscriberBuffer = 64
		fmt.Printf("Warning: hub.subscriber_buffer not set or invalid, defaulting to %d\n", c.SubscriberBuffer)
	}
	if c.KeepaliveInterval == "" {
		c.KeepaliveInterval = "30s"
		fmt.Printf("Warning: hub.keepalive_interval not set, defaulting to %s\n", c.KeepaliveInterval)
	}
}

// HttpServerConfig defines HTTP server configuration for the dashboard API
type HttpServerConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// MonitoringConfig defines monitoring configuration
type MonitoringConfig struct {
	HealthCheckPath string `yaml:"health_check_path"` // Health check endpoint path
	LogLevel        string `yaml:"log_level"`         // Logging level
}

// SetDefaults sets reasonable default values for monitoring configuration
func (c *MonitoringConfig) SetDefaults() {
	if c.HealthCheckPath == "" {
		c.HealthCheckPath = "/health"
		fmt.Printf("Warning: monitoring.health_check_path not set, defaulting to %s\n", c.HealthCheckPath)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
		fmt.Printf("Warning: monitoring.log_level not set, defaulting to %s\n", c.LogLevel)
	}
}

// ClassifierConfig defines the rule inputs for the classification strategy
type ClassifierConfig struct {
	AnomalyLevels []string `yaml:"anomaly_levels"` // Log levels flagged as anomalies
	NormalLevels  []string `yaml:"normal_levels"`  // Log levels considered normal
}

// SetDefaults sets reasonable default values for classifier configuration
func (c *ClassifierConfig) SetDefaults() {
	if len(c.AnomalyLevels) == 0 {
		c.AnomalyLevels = []string{"ERROR", "CRITICAL"}
		fmt.Printf("Warning: classifier.anomaly_levels not set, defaulting to %v\n", c.AnomalyLevels)
	}
	if len(c.NormalLevels) == 0 {
		c.NormalLevels = []string{"INFO", "DEBUG", "WARNING"}
		fmt.Printf("Warning: classifier.normal_levels not set, defaulting to %v\n", c.NormalLevels)
	}
}

// PipelineConfig defines all configuration for the classification pipeline service
type PipelineConfig struct {
	// Database Configuration
	Database DatabaseConfig `yaml:"database"`

	// Kafka Consumer Configuration
	KafkaConsumer KafkaConsumerConfig `yaml:"kafka_consumer"`

	// Ingestion Worker Configuration
	Worker WorkerConfig `yaml:"worker"`

	// Classification Rule Configuration
	Classifier ClassifierConfig `yaml:"classifier"`

	// Broadcast Hub Configuration
	Hub HubConfig `yaml:"hub"`

	// Notification Dispatcher Configuration
	Notifier NotifierConfig `yaml:"notifier"`

	// Dashboard HTTP API Configuration
	HttpServer HttpServerConfig `yaml:"http_server"`

	// Monitoring Configuration
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// LoadPipelineConfig loads configuration from the specified YAML file path
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg PipelineConfig
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
	}

	// Set default values for all configurations
	cfg.Database.SetDefaults()
	cfg.KafkaConsumer.SetDefaults()
	cfg.Worker.SetDefaults()
	cfg.Classifier.SetDefaults()
	cfg.Hub.SetDefaults()
	cfg.Notifier.SetDefaults()
	cfg.Monitoring.SetDefaults()

	// Validate database configuration
	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("database configuration error: %w", err)
	}

	// Validate notifier configuration
	if err := cfg.Notifier.Validate(); err != nil {
		return nil, fmt.Errorf("notifier configuration error: %w", err)
	}

	if cfg.HttpServer.ListenAddr == "" {
		return nil, fmt.Errorf("configuration error: http_server.listen_addr must be configured")
	}

	return &cfg, nil
}
