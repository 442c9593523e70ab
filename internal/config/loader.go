package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "ESTATECAMP_"
	envConfig  = envPrefix + "CONFIG"
	keyDelim   = "."
	structTag  = "koanf"
	formatText = "text"
	formatJSON = "json"
)

// ErrLoadConfig wraps failures reading a layer; ErrInvalidConfig wraps the
// first setting Validate rejects.
var (
	ErrLoadConfig    = errors.New("load config")
	ErrInvalidConfig = errors.New("invalid config")
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ESTATECAMP_CONFIG is set
//  3. env (prefix ESTATECAMP_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(keyDelim)

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: file %s: %w", ErrLoadConfig, path, err)
		}
	}

	// ESTATECAMP_QUEUE_SIZE -> queue_size; underscores are kept to match the flat koanf tags.
	envProvider := env.Provider(envPrefix, keyDelim, func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: structTag}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.MaxPersonas <= 0:
		return fmt.Errorf("%w: max_personas must be positive, got %d", ErrInvalidConfig, c.MaxPersonas)
	case c.MaxImportRows <= 0:
		return fmt.Errorf("%w: max_import_rows must be positive, got %d", ErrInvalidConfig, c.MaxImportRows)
	case c.RateLimitRPS < 0 || c.RateLimitBurst < 0:
		return fmt.Errorf("%w: rate limits must not be negative", ErrInvalidConfig)
	case c.RedisAddr != "" && c.DedupeTTLSeconds <= 0:
		return fmt.Errorf("%w: dedupe_ttl_seconds must be positive when redis_addr is set", ErrInvalidConfig)
	case c.JWTSecret == "" && c.DevUserID == "":
		return fmt.Errorf("%w: dev_user_id is required when jwt_secret is empty", ErrInvalidConfig)
	case c.BlobEndpoint != "" && c.BlobBucket == "":
		return fmt.Errorf("%w: blob_bucket is required when blob_endpoint is set", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogFormat) {
	case "", formatText, formatJSON:
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
