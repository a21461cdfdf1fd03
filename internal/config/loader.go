package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. WORKFLOW_HTTP_ADDR.
const EnvPrefix = "WORKFLOW_"

// FileEnv names the optional YAML file.
const FileEnv = EnvPrefix + "CONFIG"

// Load builds the server Config. Order of precedence (low -> high):
//  1. defaults (New)
//  2. file (YAML) if WORKFLOW_CONFIG is set
//  3. env (prefix WORKFLOW_)
//
// DATABASE_URL and REDIS_URL are honoured when the prefixed form is unset.
func Load(ctx context.Context) (*Config, error) {
	cfg, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}

	switch {
	case cfg.DatabaseURL == "":
		return nil, fmt.Errorf("%w: database_url is required", ErrInvalidConfig)
	case cfg.RedisURL == "":
		return nil, fmt.Errorf("%w: redis_url is required", ErrInvalidConfig)
	case cfg.HTTPAddr == "":
		return nil, fmt.Errorf("%w: http_addr must not be empty", ErrInvalidConfig)
	case cfg.AnalyticsTTL <= 0 || cfg.CatalogTTL <= 0:
		return nil, fmt.Errorf("%w: cache ttls must be positive", ErrInvalidConfig)
	}
	return cfg, nil
}

// LoadClient builds the workflowctl Config. Only the client fields are checked.
func LoadClient(ctx context.Context) (*Config, error) {
	cfg, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("%w: server_url must not be empty", ErrInvalidConfig)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("%w: request_timeout must be positive", ErrInvalidConfig)
	}
	return cfg, nil
}

func load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// WORKFLOW_ANALYTICS_TTL -> analytics_ttl; underscores are kept to match
	// the flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	return cfg, nil
}
