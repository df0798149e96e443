package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadPipelineConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "memory://local"
http_server:
  listen_addr: ":8080"
`)

	cfg, err := LoadPipelineConfig(path)
	if err != nil {
		t.Fatalf("LoadPipelineConfig failed: %v", err)
	}

	if cfg.KafkaConsumer.Count != 1 {
		t.Errorf("expected default consumer count 1, got %d", cfg.KafkaConsumer.Count)
	}
	if cfg.Worker.PersistMaxRetries != 5 {
		t.Errorf("expected default persist_max_retries 5, got %d", cfg.Worker.PersistMaxRetries)
	}
	if cfg.Hub.SubscriberBuffer != 64 {
		t.Errorf("expected default subscriber_buffer 64, got %d", cfg.Hub.SubscriberBuffer)
	}
	if cfg.Notifier.SinkType != "log" {
		t.Errorf("expected default sink_type log, got %s", cfg.Notifier.SinkType)
	}
	if cfg.Notifier.BatchCap != 50 {
		t.Errorf("expected default batch_cap 50, got %d", cfg.Notifier.BatchCap)
	}
	if len(cfg.Classifier.AnomalyLevels) == 0 {
		t.Error("expected default anomaly levels")
	}
	if cfg.Monitoring.HealthCheckPath != "/health" {
		t.Errorf("expected default health check path, got %s", cfg.Monitoring.HealthCheckPath)
	}
}

func TestLoadPipelineConfigRequiresListenAddr(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "memory://local"
`)

	_, err := LoadPipelineConfig(path)
	if err == nil || !strings.Contains(err.Error(), "listen_addr") {
		t.Fatalf("expected listen_addr error, got %v", err)
	}
}

func TestLoadPipelineConfigValidatesSink(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "memory://local"
http_server:
  listen_addr: ":8080"
notifier:
  sink_type: "slack"
`)

	_, err := LoadPipelineConfig(path)
	if err == nil || !strings.Contains(err.Error(), "bot_token") {
		t.Fatalf("expected slack credential error, got %v", err)
	}
}

func TestLoadPipelineConfigMissingFile(t *testing.T) {
	if _, err := LoadPipelineConfig(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadResolvesDefaultsFile(t *testing.T) {
	dir := t.TempDir()
	content := `
database:
  dsn: "memory://local"
http_server:
  listen_addr: ":8080"
`
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigName), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write defaults file: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HttpServer.ListenAddr != ":8080" {
		t.Errorf("unexpected listen addr: %s", cfg.HttpServer.ListenAddr)
	}
}
