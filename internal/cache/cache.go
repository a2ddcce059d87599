// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Defaults applied by New for unset Config fields.
const (
	DefaultTTL        = 60 * time.Second
	DefaultMaxEntries = 10000
)

// Cache is the contract of the viewport result cache.
type Cache interface {
	// Get returns the value for key if present and not expired.
	Get(key string) (interface{}, bool)

	// Set stores value under key. A ttl <= 0 uses the cache default.
	Set(key string, value interface{}, ttl time.Duration)

	// Invalidate removes key.
	Invalidate(key string)

	// Clear removes every entry.
	Clear()

	// Stats returns a snapshot of the cache counters.
	Stats() Stats
}

// Clock supplies the current time. Tests inject a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Entry is a cached value with its lifetime.
type Entry struct {
	Value     interface{}
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Stats tracks cache performance counters.
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Sets          int64 `json:"sets"`
	Invalidations int64 `json:"invalidations"`
	Evictions     int64 `json:"evictions"`
	Entries       int   `json:"entries"`
}

// HitRate returns hits as a percentage of lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Config holds TTLCache parameters.
type Config struct {
	TTL        time.Duration
	MaxEntries int // 0 uses DefaultMaxEntries, negative means unbounded
}

// TTLCache is a thread-safe map with per-entry expiry.
type TTLCache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	expiry     *expiryHeap
	ttl        time.Duration
	maxEntries int
	clock      Clock

	hits          atomic.Int64
	misses        atomic.Int64
	sets          atomic.Int64
	invalidations atomic.Int64
	evictions     atomic.Int64
}

// New creates a TTLCache. A nil clock uses the system clock.
func New(cfg Config, clock Clock) *TTLCache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &TTLCache{
		entries:    make(map[string]Entry),
		expiry:     newExpiryHeap(),
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		clock:      clock,
	}
}

// Get returns the value for key if it has not expired.
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.clock.Now().Before(entry.ExpiresAt) {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry.Value, true
}

// GetStale returns the value for key even if it has expired. It does not
// touch the hit and miss counters.
func (c *TTLCache) GetStale(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return entry.Value, true
}

// Set stores value under key for ttl, or the default TTL when ttl <= 0.
// When the cache is full, expired entries are dropped first, then the entry
// closest to expiry.
func (c *TTLCache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := c.clock.Now()
	entry := Entry{Value: value, CreatedAt: now, ExpiresAt: now.Add(ttl)}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.makeRoomLocked(now)
	}
	c.entries[key] = entry
	c.expiry.push(key, entry.ExpiresAt)
	c.sets.Add(1)
}

// makeRoomLocked evicts until there is space for one entry. Caller holds mu.
func (c *TTLCache) makeRoomLocked(now time.Time) {
	for _, key := range c.expiry.popBefore(now) {
		delete(c.entries, key)
		c.evictions.Add(1)
	}
	for len(c.entries) >= c.maxEntries {
		key, ok := c.expiry.pop()
		if !ok {
			return
		}
		delete(c.entries, key)
		c.evictions.Add(1)
	}
}

// Invalidate removes key.
func (c *TTLCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.expiry.remove(key)
		c.invalidations.Add(1)
	}
}

// Clear removes every entry.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations.Add(int64(len(c.entries)))
	c.entries = make(map[string]Entry)
	c.expiry = newExpiryHeap()
}

// Len returns the number of stored entries, expired ones included.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *TTLCache) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Sets:          c.sets.Load(),
		Invalidations: c.invalidations.Load(),
		Evictions:     c.evictions.Load(),
		Entries:       c.Len(),
	}
}

var _ Cache = (*TTLCache)(nil)
