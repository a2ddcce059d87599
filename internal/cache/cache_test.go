// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestCacheBasicOperations(t *testing.T) {
	t.Parallel()

	c := New(Config{TTL: time.Minute}, newFakeClock())

	c.Set("key1", "value1", 0)
	value, exists := c.Get("key1")
	if !exists {
		t.Error("Expected key1 to exist")
	}
	if value != "value1" {
		t.Errorf("Expected value1, got %v", value)
	}

	if _, exists = c.Get("key2"); exists {
		t.Error("Expected key2 to not exist")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Sets != 1 {
		t.Errorf("Stats() = %+v, want 1 hit, 1 miss, 1 set", stats)
	}
	if stats.HitRate() != 50 {
		t.Errorf("HitRate() = %v, want 50", stats.HitRate())
	}
}

func TestCacheLazyExpiration(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(Config{TTL: 30 * time.Second}, clock)
	c.Set("key1", "value1", 0)
	c.Set("key2", "value2", 2*time.Minute)

	clock.Advance(29 * time.Second)
	if _, ok := c.Get("key1"); !ok {
		t.Error("key1 should still be live before its TTL")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("key1"); ok {
		t.Error("key1 should be expired exactly at its TTL")
	}
	if _, ok := c.Get("key2"); !ok {
		t.Error("key2 has a custom TTL and should still be live")
	}

	// Expired entries stay readable as stale until replaced
	if v, ok := c.GetStale("key1"); !ok || v != "value1" {
		t.Errorf("GetStale(key1) = %v, %v; want value1, true", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (no sweeper)", c.Len())
	}
}

func TestCacheInvalidateAndClear(t *testing.T) {
	t.Parallel()

	c := New(Config{TTL: time.Minute}, newFakeClock())
	c.Set("key1", "value1", 0)
	c.Set("key2", "value2", 0)
	c.Set("key3", "value3", 0)

	c.Invalidate("key1")
	if _, ok := c.Get("key1"); ok {
		t.Error("Expected key1 to be invalidated")
	}
	if _, ok := c.GetStale("key1"); ok {
		t.Error("invalidated entries must not be served stale")
	}
	c.Invalidate("missing")

	c.Clear()
	for _, key := range []string{"key2", "key3"} {
		if _, ok := c.Get(key); ok {
			t.Errorf("Expected %s to be cleared", key)
		}
	}
	if got := c.Stats().Invalidations; got != 3 {
		t.Errorf("Invalidations = %d, want 3", got)
	}
}

func TestCacheOverwrite(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(Config{TTL: time.Minute}, clock)
	c.Set("key", "old", 0)
	clock.Advance(50 * time.Second)
	c.Set("key", "new", 0)
	clock.Advance(50 * time.Second)

	if v, ok := c.Get("key"); !ok || v != "new" {
		t.Errorf("Get(key) = %v, %v; overwrite should refresh TTL", v, ok)
	}
}

func TestCacheCapacityEviction(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	c := New(Config{TTL: time.Minute, MaxEntries: 3}, clock)

	c.Set("a", 1, 10*time.Second)
	c.Set("b", 2, 30*time.Second)
	c.Set("c", 3, 20*time.Second)

	// Full: the entry closest to expiry (a) goes
	c.Set("d", 4, 0)
	if _, ok := c.GetStale("a"); ok {
		t.Error("expected a to be evicted first")
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}

	// Once c and b have expired, both are swept to make room
	clock.Advance(35 * time.Second)
	c.Set("e", 5, 0)
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2 after sweeping expired entries", c.Len())
	}
	if got := c.Stats().Evictions; got != 3 {
		t.Errorf("Evictions = %d, want 3", got)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := New(Config{TTL: time.Minute, MaxEntries: 64}, nil)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("k%d", (g*31+i)%100)
				c.Set(key, i, 0)
				c.Get(key)
				if i%50 == 0 {
					c.Invalidate(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 64 {
		t.Errorf("Len() = %d exceeds MaxEntries", c.Len())
	}
}
