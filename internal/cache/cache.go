// Package cache provides a content-addressed, time-expiring result cache
// shared by all concurrent queries. Keys fingerprint the normalized query
// together with the fusion configuration, so any configuration change
// naturally misses. Expired entries are purged lazily on the next access
// to the same key; capacity pressure evicts by oldest last access.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Defaults mirror the engine's standard cache sizing.
const (
	DefaultMaxSize = 1000
	DefaultTTL     = time.Hour
)

// Fingerprint is the configuration half of a cache key. Two queries share
// an entry only when every field matches.
type Fingerprint struct {
	FusionMethod string  `json:"fusion_method"`
	VectorWeight float64 `json:"vector_weight"`
	BM25Weight   float64 `json:"bm25_weight"`
	TopK         int     `json:"top_k"`
}

// Config sizes the cache.
type Config struct {
	// MaxSize is the maximum entry count (default 1000).
	MaxSize int
	// TTL is how long an entry stays valid (default 1h).
	TTL time.Duration
	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

type entry[V any] struct {
	value      V
	storedAt   time.Time
	lastAccess time.Time
}

// Cache is a TTL + LRU cache keyed by (query, Fingerprint). All methods
// are safe for concurrent callers; the lock is held only for map
// manipulation, never across I/O.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	hits   uint64
	misses uint64
}

// New creates a cache with the given configuration.
func New[V any](cfg Config) *Cache[V] {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Cache[V]{
		entries: make(map[string]*entry[V]),
		maxSize: cfg.MaxSize,
		ttl:     cfg.TTL,
		now:     cfg.Now,
	}
}

// key builds the deterministic fingerprint for a query/config pair:
// sha256 over the canonical JSON of the trimmed, lowercased query and the
// fingerprint struct.
func (c *Cache[V]) key(query string, fp Fingerprint) string {
	payload := struct {
		Query  string      `json:"query"`
		Config Fingerprint `json:"config"`
	}{
		Query:  strings.ToLower(strings.TrimSpace(query)),
		Config: fp,
	}
	// Struct marshalling has a fixed field order, so the key is stable.
	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached value for the query/config pair. A present but
// expired entry counts as a miss and is deleted as a side effect.
func (c *Cache[V]) Get(query string, fp Fingerprint) (V, bool) {
	var zero V
	k := c.key(query, fp)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[k]
	if !ok {
		c.misses++
		return zero, false
	}

	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, k)
		c.misses++
		return zero, false
	}

	e.lastAccess = c.now()
	c.hits++
	return e.value, true
}

// Set stores a value for the query/config pair. At capacity, the entry
// with the oldest last access is evicted first.
func (c *Cache[V]) Set(query string, fp Fingerprint, value V) {
	k := c.key(query, fp)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[k]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.entries[k] = &entry[V]{value: value, storedAt: now, lastAccess: now}
}

// evictOldest removes the least-recently-accessed entry. Caller holds the
// lock.
func (c *Cache[V]) evictOldest() {
	var oldestKey string
	var oldest time.Time
	first := true
	for k, e := range c.entries {
		if first || e.lastAccess.Before(oldest) {
			oldestKey = k
			oldest = e.lastAccess
			first = false
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[V])
}

// Stats is a point-in-time snapshot of cache state.
type Stats struct {
	Size    int           `json:"size"`
	MaxSize int           `json:"max_size"`
	TTL     time.Duration `json:"ttl"`
	Hits    uint64        `json:"hits"`
	Misses  uint64        `json:"misses"`
	HitRate float64       `json:"hit_rate"`
}

// Snapshot returns current cache statistics.
func (c *Cache[V]) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}
	return Stats{
		Size:    len(c.entries),
		MaxSize: c.maxSize,
		TTL:     c.ttl,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: rate,
	}
}
