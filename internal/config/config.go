package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	RedisAddr     string
	DBConnStr     string
	NATSURL       string
	OutputDir     string
	LogLevel      string
	LogDir        string
	TailNumber    string
	StatsInterval time.Duration
}

var logLevels = []string{"debug", "info", "warn", "error"}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// Load loads the configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		RedisAddr:  getenv("REDIS_ADDR", "localhost:6379"),
		DBConnStr:  os.Getenv("DB_CONN_STR"),
		NATSURL:    os.Getenv("NATS_URL"),
		OutputDir:  getenv("OUTPUT_DIR", "./logs"),
		LogLevel:   strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogDir:     getenv("LOG_DIR", "./logs"),
		TailNumber: getenv("AIRCRAFT", "N215C"),
	}

	valid := false
	for _, l := range logLevels {
		if cfg.LogLevel == l {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: want one of %s", cfg.LogLevel, strings.Join(logLevels, ", "))
	}

	interval, err := time.ParseDuration(getenv("STATS_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid STATS_INTERVAL: must be positive, got %s", interval)
	}
	cfg.StatsInterval = interval

	return cfg, nil
}

// ArchiveEnabled reports whether a SQL archive is configured
func (c *Config) ArchiveEnabled() bool {
	return c.DBConnStr != ""
}

// EventsEnabled reports whether a NATS event feed is configured
func (c *Config) EventsEnabled() bool {
	return c.NATSURL != ""
}
