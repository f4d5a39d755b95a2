package cache

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Store is an in-process cache of opaque values keyed by string, each entry
// with its own expiration deadline. Operations never perform I/O and never
// fail at runtime; the only returnable error is a malformed pattern passed
// to InvalidatePattern, which indicates a defect in the caller.
type Store interface {
	// Set inserts or replaces the entry for key. If ttl <= 0, the store's
	// configured default TTL is used. A nil value is a valid cached result
	// and is distinguishable from "not cached" via the found bool on Get.
	Set(key string, val any, ttl time.Duration)

	// Get returns the value for key and whether it was found. An entry whose
	// deadline has passed is treated as absent and removed as a side effect,
	// regardless of whether the background sweep has run.
	Get(key string) (any, bool)

	// Has reports whether key holds a live entry, with the same staleness
	// semantics as Get.
	Has(key string) bool

	// Invalidate unconditionally removes the entry for key. It reports
	// whether an entry was present (expired or not).
	Invalidate(key string) bool

	// InvalidatePattern removes every live key matching the regular
	// expression pattern and returns the number of entries removed. An
	// invalid pattern returns an error immediately and removes nothing.
	InvalidatePattern(pattern string) (int, error)

	// InvalidateMatching removes every live key matching re and returns the
	// number of entries removed.
	InvalidateMatching(re *regexp.Regexp) int

	// Clear removes all entries.
	Clear()

	// Len returns the number of entries currently stored, counting entries
	// that have expired but not yet been swept.
	Len() int

	// Close shuts down the background sweep. The store remains usable for
	// synchronous operations after Close.
	Close() error
}

type entry struct {
	object    any
	createdAt time.Time
	expires   time.Time
}

// DefaultTTL is the TTL used by Set when the caller passes ttl <= 0 and no
// WithDefaultTTL option was given.
const DefaultTTL = 5 * time.Minute

// DefaultSweepInterval is the default interval for the background sweep of
// expired entries.
const DefaultSweepInterval = time.Minute

type config struct {
	defaultTTL    time.Duration
	sweepInterval time.Duration
	now           func() time.Time
}

// Option configures a Store implementation.
type Option func(*config)

func defaultConfig() config {
	return config{
		defaultTTL:    DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithDefaultTTL sets the TTL applied when Set is called with ttl <= 0.
// Defaults to DefaultTTL (5 minutes).
func WithDefaultTTL(d time.Duration) Option {
	return func(c *config) { c.defaultTTL = d }
}

// WithSweepInterval sets the interval for background expired entry cleanup.
// A value <= 0 disables the sweep goroutine entirely; lazy expiry on read
// still applies. Defaults to DefaultSweepInterval (1 minute).
func WithSweepInterval(d time.Duration) Option {
	return func(c *config) { c.sweepInterval = d }
}

// WithClock overrides the wall-clock source used for expiry decisions.
// Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// GetTyped retrieves a typed value from the store. It performs a direct type
// assertion first and falls back to msgpack deserialization for []byte
// payloads, so values survive regardless of how a caller stored them.
func GetTyped[T any](s Store, key string) (T, bool, error) {
	val, found := s.Get(key)
	if !found {
		var zero T
		return zero, false, nil
	}
	if val == nil {
		var zero T
		return zero, true, nil
	}
	if typed, ok := val.(T); ok {
		return typed, true, nil
	}
	if data, ok := val.([]byte); ok {
		var result T
		if err := msgpack.Unmarshal(data, &result); err != nil {
			var zero T
			return zero, false, fmt.Errorf("cache: failed to unmarshal value: %w", err)
		}
		return result, true, nil
	}
	var zero T
	return zero, false, fmt.Errorf("cache: cannot convert value of type %T to %T", val, zero)
}

// ExecConfig configures the Exec helper.
type ExecConfig struct {
	// Key is the cache key. Required.
	Key string
	// TTL is the TTL for the cached value. If zero, the store's default
	// TTL governs.
	TTL time.Duration
}

// Invoker is a function that produces a value of type T. The bool return
// indicates whether a value was found. Return false to signal "not found"
// without caching a zero value.
type Invoker[T any] func(ctx context.Context) (T, bool, error)

// Exec is a cache-aside helper. It checks the store for config.Key first and
// returns the cached value on a hit. On a miss it calls invoke; a found
// result is stored under config.Key and returned, a not-found result is
// returned without caching so the next call invokes again.
func Exec[T any](ctx context.Context, config ExecConfig, s Store, invoke Invoker[T]) (bool, T, error) {
	val, found, err := GetTyped[T](s, config.Key)
	if err != nil {
		var zero T
		return false, zero, err
	}
	if found {
		return true, val, nil
	}

	result, ok, err := invoke(ctx)
	if err != nil {
		var zero T
		return false, zero, err
	}
	if !ok {
		var zero T
		return false, zero, nil
	}

	s.Set(config.Key, result, config.TTL)
	return true, result, nil
}
