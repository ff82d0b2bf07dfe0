package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultTimeout bounds every backend call so an unavailable Redis
	// cannot stall request handling.
	DefaultTimeout = 250 * time.Millisecond

	// DefaultTTL is the fallback TTL when callers pass zero.
	DefaultTTL = 5 * time.Minute
)

// ComputeFunc produces a value for GetOrCompute on a cache miss.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// Client is a fail-soft caching client over Redis. All backend failures
// are absorbed and degraded to misses; only compute errors ever reach
// callers.
type Client struct {
	redis   *redis.Client
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
	errors atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call backend timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithClock injects a time source. Used by tests to control expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a fail-soft cache client with Redis backend.
func NewClient(redisClient *redis.Client, opts ...Option) *Client {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	c := &Client{
		redis:   redisClient,
		timeout: DefaultTimeout,
		now:     time.Now,
		logger:  log.With().Str("component", "cache-client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a cached value. Any backend or decode failure is a
// miss; this method never returns an error.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	start := time.Now()
	data, err := c.redis.Get(ctx, key).Bytes()
	cacheRoundtrip.WithLabelValues("get").Observe(time.Since(start).Seconds())

	if err != nil {
		if err == redis.Nil {
			c.miss()
			return nil, false
		}
		c.absorb("get", key, err)
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.absorb("get", key, fmt.Errorf("decode cache entry: %w", err))
		return nil, false
	}

	// Expired entries are always a miss, never stale data. The Redis
	// TTL usually reclaims these first; the envelope check covers
	// clock drift and injected clocks.
	if entry.IsExpired(c.now()) {
		_ = c.Delete(ctx, key)
		c.miss()
		return nil, false
	}

	c.hits.Add(1)
	cacheHits.WithLabelValues("redis").Inc()
	return entry.Data, true
}

// Set stores a value with the given TTL. Backend failures are logged,
// counted, and returned for visibility; callers are free to ignore the
// error because the cache is best-effort.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	entry := Entry{
		Data:     value,
		StoredAt: c.now(),
		Expires:  c.now().Add(ttl),
	}
	data, err := json.Marshal(&entry)
	if err != nil {
		c.absorb("set", key, fmt.Errorf("encode cache entry: %w", err))
		return fmt.Errorf("encode cache entry: %w", err)
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	start := time.Now()
	err = c.redis.Set(ctx, key, data, ttl).Err()
	cacheRoundtrip.WithLabelValues("set").Observe(time.Since(start).Seconds())
	if err != nil {
		c.absorb("set", key, err)
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a key. Used by mutation paths whose writes must not be
// masked by stale cached derivations.
func (c *Client) Delete(ctx context.Context, key string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	if err := c.redis.Del(ctx, key).Err(); err != nil {
		c.absorb("delete", key, err)
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Exists reports whether a live entry is stored under key. Backend
// failures report false.
func (c *Client) Exists(ctx context.Context, key string) bool {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	n, err := c.redis.Exists(ctx, key).Result()
	if err != nil {
		c.absorb("exists", key, err)
		return false
	}
	return n > 0
}

// Flush removes all keys matching prefix. Administrative use only.
func (c *Client) Flush(ctx context.Context, prefix string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*c.timeout)
	defer cancel()

	iter := c.redis.Scan(ctx, 0, prefix+"*", 100).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			c.absorb("flush", iter.Val(), err)
			return fmt.Errorf("redis del during flush: %w", err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		c.absorb("flush", prefix, err)
		return fmt.Errorf("redis scan: %w", err)
	}

	c.logger.Info().Str("prefix", prefix).Int("deleted", deleted).Msg("Cache flush complete")
	return nil
}

// GetOrCompute implements cache-aside: on a hit the cached value is
// returned directly; on a miss compute runs, its result is stored
// best-effort and returned. Compute errors propagate; cache failures
// never do. Concurrent callers on a cold key may each compute once
// (at-least-once under contention, accepted because computed values
// are idempotent).
func (c *Client) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	if data, ok := c.Get(ctx, key); ok {
		return data, nil
	}

	data, err := compute(ctx)
	if err != nil {
		return nil, fmt.Errorf("compute %q: %w", key, err)
	}

	if err := c.Set(ctx, key, data, ttl); err != nil {
		c.logger.Debug().Str("key", key).Msg("Computed value not cached")
	}
	return data, nil
}

// SetJSON marshals v and stores it under key.
func (c *Client) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal value for %q: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}

// GetJSON retrieves a cached value and unmarshals it into dest.
// Decode failures are treated as misses.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) bool {
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.absorb("get", key, fmt.Errorf("decode cached value: %w", err))
		return false
	}
	return true
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// miss counts a plain miss (key absent or expired).
func (c *Client) miss() {
	c.misses.Add(1)
	cacheMisses.Inc()
}

// absorb records a backend failure and degrades it to a miss.
func (c *Client) absorb(operation, key string, err error) {
	c.errors.Add(1)
	c.misses.Add(1)
	cacheErrors.WithLabelValues(operation).Inc()
	cacheMisses.Inc()
	c.logger.Warn().
		Err(err).
		Str("operation", operation).
		Str("key", key).
		Msg("Cache backend error, degraded to miss")
}
