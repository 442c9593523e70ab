// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env on top.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoder: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory score job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of score workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the in-memory job deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxPersonas caps personas per campaign.
	MaxPersonas int `koanf:"max_personas"`

	// MaxImportRows caps rows accepted by a single spreadsheet import.
	MaxImportRows int `koanf:"max_import_rows"`

	// PhoneRegion is the default region used to normalize imported phone numbers.
	PhoneRegion string `koanf:"phone_region"`

	// DatabaseURL selects the PostgreSQL store; empty keeps data in memory.
	DatabaseURL string `koanf:"database_url"`

	// Migrate applies embedded schema migrations on startup.
	Migrate bool `koanf:"migrate"`

	// RedisAddr enables the shared Redis job deduper when set.
	RedisAddr string `koanf:"redis_addr"`

	// DedupeTTLSeconds is how long a Redis dedupe key lives.
	DedupeTTLSeconds int `koanf:"dedupe_ttl_seconds"`

	// JWTSecret verifies HS256 bearer tokens. Empty disables auth and
	// attributes every request to DevUserID.
	JWTSecret string `koanf:"jwt_secret"`
	DevUserID string `koanf:"dev_user_id"`

	// RateLimitRPS and RateLimitBurst bound the scoring endpoints; zero disables.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// Blob* configure S3-compatible storage for creative assets; empty
	// endpoint keeps assets in memory.
	BlobEndpoint  string `koanf:"blob_endpoint"`
	BlobAccessKey string `koanf:"blob_access_key"`
	BlobSecretKey string `koanf:"blob_secret_key"`
	BlobBucket    string `koanf:"blob_bucket"`
	BlobUseSSL    bool   `koanf:"blob_use_ssl"`

	// ChromeURL points at a remote headless Chrome for PDF export; empty
	// launches a local browser on demand.
	ChromeURL string `koanf:"chrome_url"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		QueueSize:        10_000,
		WorkerCount:      runtime.NumCPU() * 2,
		DedupeSize:       100_000,
		MaxPersonas:      3,
		MaxImportRows:    5_000,
		PhoneRegion:      "MY",
		DedupeTTLSeconds: 300,
		DevUserID:        "00000000-0000-0000-0000-000000000001",
		RateLimitRPS:     50,
		RateLimitBurst:   100,
		BlobBucket:       "creative-assets",
	}
}
