// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package perfmon

import (
	"sync"
	"time"
)

// throughputCounter counts events over a sliding window split into
// fixed-size time buckets.
//
// Example usage:
//
//	tc := newThroughputCounter(time.Minute, 12, time.Now)
//	tc.add(1)
//	perMinute := tc.count()
type throughputCounter struct {
	mu         sync.Mutex
	buckets    []int64
	bucketSize time.Duration
	current    int
	lastUpdate time.Time
	now        func() time.Time
}

func newThroughputCounter(window time.Duration, numBuckets int, now func() time.Time) *throughputCounter {
	if numBuckets <= 0 {
		numBuckets = 1
	}
	return &throughputCounter{
		buckets:    make([]int64, numBuckets),
		bucketSize: window / time.Duration(numBuckets),
		lastUpdate: now(),
		now:        now,
	}
}

func (tc *throughputCounter) add(delta int64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.advance()
	tc.buckets[tc.current] += delta
}

// count returns the sum of all buckets in the window.
func (tc *throughputCounter) count() int64 {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.advance()

	var total int64
	for _, c := range tc.buckets {
		total += c
	}
	return total
}

// advance clears buckets that fell out of the window. Caller holds mu.
func (tc *throughputCounter) advance() {
	now := tc.now()
	elapsed := int(now.Sub(tc.lastUpdate) / tc.bucketSize)
	if elapsed <= 0 {
		return
	}

	n := len(tc.buckets)
	if elapsed >= n {
		for i := range tc.buckets {
			tc.buckets[i] = 0
		}
		tc.current = 0
	} else {
		for i := 0; i < elapsed; i++ {
			tc.current = (tc.current + 1) % n
			tc.buckets[tc.current] = 0
		}
	}
	// Keep bucket boundaries aligned to the original start.
	tc.lastUpdate = tc.lastUpdate.Add(time.Duration(elapsed) * tc.bucketSize)
}
