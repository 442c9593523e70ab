// Package dedupe provides a Redis-backed score job deduper shared across replicas.
package dedupe

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/okian/estatecamp/internal/domain/dedupe"
	"github.com/okian/estatecamp/pkg/logger"
	"github.com/okian/estatecamp/pkg/metrics"
)

const (
	defaultKeyPrefix = "estatecamp:dedupe:"
	defaultTTL       = 5 * time.Minute
	opTimeout        = 500 * time.Millisecond
)

// Option configures a RedisDeduper.
type Option func(*RedisDeduper)

// WithKeyPrefix namespaces dedupe keys.
func WithKeyPrefix(prefix string) Option {
	return func(d *RedisDeduper) {
		if prefix != "" {
			d.prefix = prefix
		}
	}
}

// WithTTL sets how long a recorded key is remembered.
func WithTTL(ttl time.Duration) Option {
	return func(d *RedisDeduper) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// RedisDeduper records keys with SET NX and an expiry. When Redis is
// unreachable it fails open: the job is treated as new.
type RedisDeduper struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	size   atomic.Int64
}

var _ domain.Deduper = (*RedisDeduper)(nil)

// NewRedisDeduper wraps an existing client.
func NewRedisDeduper(client redis.UniversalClient, opts ...Option) *RedisDeduper {
	d := &RedisDeduper{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewClient builds a client from either a redis:// URL or a host:port address.
func NewClient(addr string) (*redis.Client, error) {
	if strings.Contains(addr, "://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

// Ping checks connectivity.
func (d *RedisDeduper) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

func (d *RedisDeduper) SeenAndRecord(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ok, err := d.client.SetNX(ctx, d.prefix+key, 1, d.ttl).Result()
	if err != nil {
		logger.Get().Warn(ctx, "redis dedupe unavailable, treating job as new",
			logger.String("key", key), logger.Error(err))
		metrics.RecordErrorByComponent("dedupe", "redis_unavailable")
		return false
	}
	if ok {
		d.size.Add(1)
	}
	return !ok
}

func (d *RedisDeduper) Unrecord(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := d.client.Del(ctx, d.prefix+key).Result()
	if err != nil {
		logger.Get().Warn(ctx, "redis dedupe unrecord failed",
			logger.String("key", key), logger.Error(err))
		return
	}
	if n > 0 {
		d.size.Add(-1)
	}
}

// Size returns the number of keys this process recorded and has not
// unrecorded. Expired keys are not subtracted.
func (d *RedisDeduper) Size() int64 {
	return d.size.Load()
}

// Close releases the underlying client.
func (d *RedisDeduper) Close() error {
	return d.client.Close()
}
