// Package config loads the workflow service and CLI configuration.
// Fail-fast: the server refuses to start without its database and Redis.
package config

import (
	"log/slog"
	"strings"
	"time"
)

// Config holds runtime configuration for cmd/server and cmd/workflowctl.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// HTTPAddr and GRPCAddr are the server listen addresses.
	HTTPAddr string `koanf:"http_addr"`
	GRPCAddr string `koanf:"grpc_addr"`

	DatabaseURL string `koanf:"database_url"`
	DBMaxConns  int32  `koanf:"db_max_conns"`
	RedisURL    string `koanf:"redis_url"`

	// EventsChannel receives EVENT_STAGE_CHANGED; CacheChannel carries
	// cache invalidations between replicas.
	EventsChannel string `koanf:"events_channel"`
	CacheChannel  string `koanf:"cache_channel"`

	AnalyticsTTL time.Duration `koanf:"analytics_ttl"`
	CatalogTTL   time.Duration `koanf:"catalog_ttl"`

	// RefreshSchedule is a cron spec for the analytics gauge refresh.
	RefreshSchedule string `koanf:"refresh_schedule"`

	// ServerURL and RequestTimeout configure the workflowctl HTTP client.
	ServerURL      string        `koanf:"server_url"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		HTTPAddr:        ":8083",
		GRPCAddr:        ":9083",
		DBMaxConns:      10,
		EventsChannel:   "EVENT_STAGE_CHANGED",
		CacheChannel:    "workflow:cache:invalidate",
		AnalyticsTTL:    30 * time.Second,
		CatalogTTL:      time.Hour,
		RefreshSchedule: "@every 30s",
		ServerURL:       "http://localhost:8083",
		RequestTimeout:  15 * time.Second,
	}
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
