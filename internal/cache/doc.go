// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

/*
Package cache memoizes viewport cluster results.

# Overview

The package provides:
  - Cache, an interface over a TTL map so callers can inject fakes
  - TTLCache, a thread-safe implementation with lazy expiry and a size bound
  - Loader, which coalesces concurrent misses for a key into one computation
  - ClusterKey, which rounds the viewport before hashing so near-identical
    viewports share an entry

# Expiry

Entries are checked on read. There is no background sweeper: an expired entry
stays in the map, invisible to Get, until it is overwritten, invalidated or
evicted to make room. GetStale can still read it, which the gateway uses to
serve a degraded answer when a recomputation overruns its budget.

# Usage Example

	c := cache.New(cache.Config{TTL: time.Minute, MaxEntries: 10000}, nil)
	loader := cache.NewLoader(c, 2*time.Second)

	key := cache.ClusterKey(bbox, zoom, f, 3)
	v, hit, err := loader.GetOrCompute(ctx, key, 0, func(ctx context.Context) (interface{}, error) {
	    return compute(ctx)
	})

# Thread Safety

TTLCache guards its map with a sync.RWMutex; statistics are atomic counters.
Loader is safe for concurrent use.
*/
package cache
