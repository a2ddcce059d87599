// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultComputeTimeout bounds a coalesced computation once it has been
// detached from its callers.
const DefaultComputeTimeout = 5 * time.Second

// ComputeFunc produces the value for a missing key.
type ComputeFunc func(ctx context.Context) (interface{}, error)

// Loader fronts a Cache and collapses concurrent misses for the same key into
// a single ComputeFunc call.
//
// Every Invalidate or Clear starts a new generation. A flight begun in an
// earlier generation still answers the callers that joined it, but never
// writes to the cache, and later callers start a flight of their own.
type Loader struct {
	cache          Cache
	group          singleflight.Group
	computeTimeout time.Duration
	computations   atomic.Int64

	// mu orders generation bumps against cache writes from flights.
	mu         sync.RWMutex
	generation uint64
}

// NewLoader creates a Loader over c. A computeTimeout <= 0 uses
// DefaultComputeTimeout.
func NewLoader(c Cache, computeTimeout time.Duration) *Loader {
	if computeTimeout <= 0 {
		computeTimeout = DefaultComputeTimeout
	}
	return &Loader{cache: c, computeTimeout: computeTimeout}
}

// loaded carries a value out of the singleflight group along with whether it
// was found in the cache by the double-check.
type loaded struct {
	value     interface{}
	fromCache bool
}

// GetOrCompute returns the cached value for key or computes and stores it.
// hit is true only when the value came from the cache with no computation.
//
// Concurrent callers missing on the same key share one computation. That
// computation runs on a context detached from the callers' cancellation and
// bounded by the loader's compute timeout, so it finishes and fills the cache
// even if the caller that started it gives up. Each caller still returns as
// soon as its own ctx is done.
func (l *Loader) GetOrCompute(ctx context.Context, key string, ttl time.Duration, fn ComputeFunc) (value interface{}, hit bool, err error) {
	if v, ok := l.cache.Get(key); ok {
		return v, true, nil
	}

	gen := l.currentGeneration()
	flightKey := strconv.FormatUint(gen, 10) + "|" + key

	ch := l.group.DoChan(flightKey, func() (interface{}, error) {
		// Double-check: another flight may have filled the key since our miss
		if v, ok := l.cache.Get(key); ok {
			return loaded{value: v, fromCache: true}, nil
		}

		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.computeTimeout)
		defer cancel()

		v, err := l.compute(cctx, fn)
		if err != nil {
			return nil, err
		}
		l.store(gen, key, v, ttl)
		return loaded{value: v}, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		ld, ok := res.Val.(loaded)
		if !ok {
			return nil, false, fmt.Errorf("unexpected type from singleflight group: got %T", res.Val)
		}
		return ld.value, ld.fromCache, nil
	}
}

// compute runs fn and converts a panic into an error for every waiter.
func (l *Loader) compute(ctx context.Context, fn ComputeFunc) (v interface{}, err error) {
	l.computations.Add(1)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cache computation panicked: %v", r)
		}
	}()
	return fn(ctx)
}

func (l *Loader) currentGeneration() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.generation
}

// store writes v unless an invalidation happened after gen was read.
func (l *Loader) store(gen uint64, key string, v interface{}, ttl time.Duration) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.generation != gen {
		return
	}
	l.cache.Set(key, v, ttl)
}

// Invalidate drops key from the cache. Computations already in flight no
// longer fill it, and the next miss starts a fresh one.
func (l *Loader) Invalidate(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	l.cache.Invalidate(key)
}

// Clear drops every entry and retires all in-flight computations.
func (l *Loader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	l.cache.Clear()
}

// Computations returns how many ComputeFunc calls the loader has made.
func (l *Loader) Computations() int64 {
	return l.computations.Load()
}

// Cache returns the underlying cache.
func (l *Loader) Cache() Cache {
	return l.cache
}
