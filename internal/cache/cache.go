// Package cache provides the layered read cache shared by the resolver,
// writer, and dispatcher: an in-process map in front of a durable string
// key-value store, with per-pool TTL and capacity bounds.
package cache

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Store is the durable layer. String-valued, quota-prone, shared across all
// cache pools; each pool only ever touches keys under its own prefix.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string)
	// Keys returns every stored key beginning with prefix.
	Keys(prefix string) []string
}

// envelope is the persisted shape. TS is unix milliseconds; a zero TS after
// parsing means the stored value is corrupt and must be discarded.
type envelope struct {
	Data json.RawMessage `json:"data"`
	TS   int64           `json:"ts"`
}

type memEntry[T any] struct {
	data T
	ts   time.Time
}

// Cache is one named pool over the shared store. The in-process map is
// authoritative within TTL; the durable layer survives restarts and is read
// only on in-process misses.
type Cache[T any] struct {
	mu       sync.Mutex
	mem      map[string]memEntry[T]
	store    Store
	prefix   string
	ttl      time.Duration
	capacity int
	logger   *slog.Logger

	now func() time.Time
}

// New creates a pool whose durable keys all share prefix. capacity bounds the
// number of persisted entries in this pool; the in-process map is unbounded
// for the process lifetime. A nil store runs the pool in memory only.
func New[T any](store Store, prefix string, ttl time.Duration, capacity int, logger *slog.Logger) *Cache[T] {
	return &Cache[T]{
		mem:      make(map[string]memEntry[T]),
		store:    store,
		prefix:   prefix,
		ttl:      ttl,
		capacity: capacity,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the cached value for key iff its age is under TTL. Expired or
// corrupt durable entries are purged on access and reported as absent; parse
// failures are misses, never errors.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	now := c.now()

	if e, ok := c.mem[key]; ok {
		if now.Sub(e.ts) < c.ttl {
			return e.data, true
		}
		delete(c.mem, key)
	}

	if c.store == nil {
		return zero, false
	}
	full := c.prefix + key
	raw, ok := c.store.Get(full)
	if !ok {
		return zero, false
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil || env.TS == 0 || env.Data == nil {
		c.store.Delete(full)
		return zero, false
	}
	ts := time.UnixMilli(env.TS)
	if now.Sub(ts) >= c.ttl {
		c.store.Delete(full)
		return zero, false
	}
	var data T
	if err := json.Unmarshal(env.Data, &data); err != nil {
		c.store.Delete(full)
		return zero, false
	}
	c.mem[key] = memEntry[T]{data: data, ts: ts}
	return data, true
}

// Set stores the value in both layers. The durable write is guarded by the
// pool capacity and retried once after an extra eviction on failure; a write
// that still fails degrades this entry to memory-only and is only logged.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.mem[key] = memEntry[T]{data: value, ts: now}

	if c.store == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache entry not serializable, kept in memory only", "key", key, "error", err)
		return
	}
	encoded, err := json.Marshal(envelope{Data: raw, TS: now.UnixMilli()})
	if err != nil {
		c.logger.Warn("cache envelope encode failed", "key", key, "error", err)
		return
	}

	full := c.prefix + key
	if n := len(c.poolKeysExcluding(full)); n >= c.capacity {
		c.evictOldest(n - c.capacity + 1)
	}
	if err := c.store.Set(full, string(encoded)); err != nil {
		c.evictOldest(1)
		if err := c.store.Set(full, string(encoded)); err != nil {
			c.logger.Warn("durable cache write failed, value kept in memory only",
				"key", full, "error", err)
		}
	}
}

// poolKeysExcluding returns this pool's durable keys minus the one about to
// be overwritten, so rewriting an existing key never triggers an eviction.
func (c *Cache[T]) poolKeysExcluding(full string) []string {
	keys := c.store.Keys(c.prefix)
	out := keys[:0]
	for _, k := range keys {
		if k != full {
			out = append(out, k)
		}
	}
	return out
}

// evictOldest removes n durable entries from this pool, oldest stored
// timestamp first. Unparseable entries sort as oldest and go first.
func (c *Cache[T]) evictOldest(n int) {
	type aged struct {
		key string
		ts  int64
	}
	keys := c.store.Keys(c.prefix)
	entries := make([]aged, 0, len(keys))
	for _, k := range keys {
		var ts int64
		if raw, ok := c.store.Get(k); ok {
			var env envelope
			if err := json.Unmarshal([]byte(raw), &env); err == nil {
				ts = env.TS
			}
		}
		entries = append(entries, aged{key: k, ts: ts})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ts < entries[j].ts })
	for i := 0; i < n && i < len(entries); i++ {
		c.store.Delete(entries[i].key)
	}
}
