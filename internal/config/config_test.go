package config

import (
	"strings"
	"testing"
	"time"
)

var allVars = []string{
	"REDIS_ADDR", "DB_CONN_STR", "NATS_URL", "OUTPUT_DIR",
	"LOG_LEVEL", "LOG_DIR", "AIRCRAFT", "STATS_INTERVAL",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range allVars {
		t.Setenv(v, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if config.RedisAddr != "localhost:6379" {
		t.Errorf("Expected default RedisAddr = localhost:6379, got %s", config.RedisAddr)
	}
	if config.DBConnStr != "" || config.ArchiveEnabled() {
		t.Errorf("Expected archive disabled by default, got %q", config.DBConnStr)
	}
	if config.NATSURL != "" || config.EventsEnabled() {
		t.Errorf("Expected events disabled by default, got %q", config.NATSURL)
	}
	if config.OutputDir != "./logs" {
		t.Errorf("Expected default OutputDir = ./logs, got %s", config.OutputDir)
	}
	if config.LogLevel != "info" {
		t.Errorf("Expected default LogLevel = info, got %s", config.LogLevel)
	}
	if config.LogDir != "./logs" {
		t.Errorf("Expected default LogDir = ./logs, got %s", config.LogDir)
	}
	if config.TailNumber != "N215C" {
		t.Errorf("Expected default TailNumber = N215C, got %s", config.TailNumber)
	}
	if config.StatsInterval != 5*time.Minute {
		t.Errorf("Expected default StatsInterval = 5m, got %s", config.StatsInterval)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("DB_CONN_STR", "postgres://fuel@db/fuelbal?sslmode=disable")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("OUTPUT_DIR", "/var/fuelbal/events")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_DIR", "/var/log/fuelbal")
	t.Setenv("AIRCRAFT", "N123AB")
	t.Setenv("STATS_INTERVAL", "30s")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	want := Config{
		RedisAddr:     "redis:6380",
		DBConnStr:     "postgres://fuel@db/fuelbal?sslmode=disable",
		NATSURL:       "nats://nats:4222",
		OutputDir:     "/var/fuelbal/events",
		LogLevel:      "debug",
		LogDir:        "/var/log/fuelbal",
		TailNumber:    "N123AB",
		StatsInterval: 30 * time.Second,
	}
	if *config != want {
		t.Errorf("Load() = %+v, want %+v", *config, want)
	}
	if !config.ArchiveEnabled() || !config.EventsEnabled() {
		t.Error("Expected archive and events enabled")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "unknown log level", key: "LOG_LEVEL", value: "verbose", wantErr: "invalid LOG_LEVEL"},
		{name: "bad duration", key: "STATS_INTERVAL", value: "often", wantErr: "invalid STATS_INTERVAL"},
		{name: "zero duration", key: "STATS_INTERVAL", value: "0s", wantErr: "must be positive"},
		{name: "negative duration", key: "STATS_INTERVAL", value: "-1m", wantErr: "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			config, err := Load()
			if err == nil {
				t.Fatal("Load() should have failed")
			}
			if config != nil {
				t.Fatal("Load() should have returned nil config")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}
