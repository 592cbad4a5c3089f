package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATA_BACKEND", "")
	t.Setenv("EXPORT_INTERVAL", "")

	cfg := Load()
	if cfg.Port != "8082" {
		t.Errorf("default port = %q, want 8082", cfg.Port)
	}
	if cfg.DataBackend != "memory" {
		t.Errorf("default backend = %q, want memory", cfg.DataBackend)
	}
	if cfg.ExportInterval != 5*time.Minute {
		t.Errorf("default export interval = %v, want 5m", cfg.ExportInterval)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", "/tmp/x.db")
	t.Setenv("EXPORT_INTERVAL", "30s")

	cfg := Load()
	if cfg.Port != "9000" || cfg.DataBackend != "sqlite" || cfg.SQLiteDBPath != "/tmp/x.db" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.ExportInterval != 30*time.Second {
		t.Errorf("export interval = %v, want 30s", cfg.ExportInterval)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		dir := t.TempDir()
		return &Config{
			Port:           "8082",
			DataBackend:    "memory",
			StatePath:      filepath.Join(dir, "state.json"),
			SQLiteDBPath:   filepath.Join(dir, "perks.db"),
			AMQPExchange:   "perks",
			AMQPQueue:      "usage_sync",
			ExportInterval: time.Minute,
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"bad port", func(c *Config) { c.Port = "abc" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"bad backend", func(c *Config) { c.DataBackend = "postgres" }, "invalid data backend"},
		{"empty sqlite path", func(c *Config) { c.DataBackend = "sqlite"; c.SQLiteDBPath = "" }, "cannot be empty"},
		{"bad amqp url", func(c *Config) { c.AMQPURL = "http://broker" }, "invalid AMQP url"},
		{"amqp without queue", func(c *Config) { c.AMQPURL = "amqp://broker"; c.AMQPQueue = "" }, "cannot be empty"},
		{"interval too short", func(c *Config) { c.ExportInterval = 100 * time.Millisecond }, "too short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}
