// Package configcache resolves integer thresholds from the remote config
// collection with a short-lived process-local cache.
//
// The cache is opportunistic: there is no cross-instance invalidation, so a
// config change may take up to the TTL (30s by default) to reach a running
// client. That availability/consistency trade-off is deliberate and must be
// preserved: config lookups sit on the sign-in hot path and must never block
// on, or fail because of, the remote store.
package configcache

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"vlc/internal/auth/store/configentry"
	"vlc/internal/platform/metrics"
	"vlc/pkg/requesttime"
)

const (
	defaultTTL        = 30 * time.Second
	fallbackPageLimit = 50
)

type cachedEntry struct {
	at    time.Time
	entry *configentry.Entry
}

// Cache reads config entries through a per-key TTL cache.
type Cache struct {
	store   configentry.Store
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	entries map[string]cachedEntry
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New constructs a config cache over the given entry store.
func New(store configentry.Store, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		ttl:     defaultTTL,
		entries: make(map[string]cachedEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// GetInt returns the integer value of the most recent config entry for key.
// It never returns an error: a missing entry, an unparseable value, or any
// store failure resolves to defaultValue.
func (c *Cache) GetInt(ctx context.Context, key string, defaultValue int) int {
	k := strings.TrimSpace(key)
	if k == "" {
		return defaultValue
	}

	entry := c.lookup(ctx, k)
	if entry == nil {
		return defaultValue
	}
	parsed, ok := parseInteger(entry.Value)
	if !ok {
		c.logger.WarnContext(ctx, "config value not an integer",
			"key", k,
			"value", entry.Value,
		)
		return defaultValue
	}
	return parsed
}

func (c *Cache) lookup(ctx context.Context, key string) *configentry.Entry {
	now := requesttime.Now(ctx)

	c.mu.Lock()
	cached, ok := c.entries[key]
	c.mu.Unlock()
	if ok && now.Sub(cached.at) < c.ttl {
		if c.metrics != nil {
			c.metrics.IncrementConfigCacheHits()
		}
		return cached.entry
	}
	if c.metrics != nil {
		c.metrics.IncrementConfigCacheMisses()
	}

	entry := c.fetch(ctx, key)

	// Negative results are cached too: a store that is down should not be
	// hammered once per sign-in attempt.
	c.mu.Lock()
	c.entries[key] = cachedEntry{at: now, entry: entry}
	c.mu.Unlock()

	return entry
}

// fetch issues the ordered top-1 query, then degrades to a bounded unordered
// page scanned client-side when the primary path fails (e.g. the deployment
// lacks the key+timestamp index).
func (c *Cache) fetch(ctx context.Context, key string) *configentry.Entry {
	entry, err := c.store.LatestByKey(ctx, key)
	if err == nil {
		return entry
	}

	if c.metrics != nil {
		c.metrics.IncrementConfigFallbacks()
	}
	c.logger.DebugContext(ctx, "ordered config query failed, using fallback",
		"key", key,
		"error", err,
	)

	entries, err := c.store.ListByKey(ctx, key, fallbackPageLimit)
	if err != nil || len(entries) == 0 {
		return nil
	}

	var best *configentry.Entry
	for i := range entries {
		e := &entries[i]
		if e.Timestamp.IsZero() {
			continue
		}
		if best == nil || e.Timestamp.After(best.Timestamp) {
			best = e
		}
	}
	if best == nil {
		// No entry carries a timestamp; last resort is the first returned.
		best = &entries[0]
	}
	return best
}

func parseInteger(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	// Tolerate float-encoded values from older writers.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), true
	}
	return 0, false
}
