// Geodiscovery - Geospatial Business Discovery Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geodiscovery

package cache

import "time"

// heapEntry is a key positioned in the expiry heap.
type heapEntry struct {
	key       string
	expiresAt time.Time
	index     int // position in the heap array for O(log n) updates
}

// expiryHeap is a min-heap of keys ordered by expiry time with a parallel map
// for O(1) key lookup. It is not safe for concurrent use; TTLCache guards it.
type expiryHeap struct {
	heap  []*heapEntry
	byKey map[string]*heapEntry
}

func newExpiryHeap() *expiryHeap {
	return &expiryHeap{byKey: make(map[string]*heapEntry)}
}

// push inserts key or moves it to its new expiry.
func (h *expiryHeap) push(key string, expiresAt time.Time) {
	if existing, ok := h.byKey[key]; ok {
		existing.expiresAt = expiresAt
		h.fix(existing.index)
		return
	}
	e := &heapEntry{key: key, expiresAt: expiresAt, index: len(h.heap)}
	h.heap = append(h.heap, e)
	h.byKey[key] = e
	h.bubbleUp(e.index)
}

// pop removes the key closest to expiry.
func (h *expiryHeap) pop() (string, bool) {
	if len(h.heap) == 0 {
		return "", false
	}
	return h.removeAt(0).key, true
}

// popBefore removes every key expiring at or before t.
func (h *expiryHeap) popBefore(t time.Time) []string {
	var keys []string
	for len(h.heap) > 0 && !h.heap[0].expiresAt.After(t) {
		keys = append(keys, h.removeAt(0).key)
	}
	return keys
}

func (h *expiryHeap) remove(key string) {
	if e, ok := h.byKey[key]; ok {
		h.removeAt(e.index)
	}
}

func (h *expiryHeap) len() int { return len(h.heap) }

func (h *expiryHeap) removeAt(i int) *heapEntry {
	n := len(h.heap) - 1
	e := h.heap[i]
	delete(h.byKey, e.key)

	if i == n {
		h.heap = h.heap[:n]
		return e
	}

	h.heap[i] = h.heap[n]
	h.heap[i].index = i
	h.heap = h.heap[:n]
	h.fix(i)
	return e
}

func (h *expiryHeap) fix(i int) {
	if h.bubbleUp(i) {
		return
	}
	h.bubbleDown(i)
}

func (h *expiryHeap) bubbleUp(i int) bool {
	moved := false
	for i > 0 {
		parent := (i - 1) / 2
		if !h.heap[i].expiresAt.Before(h.heap[parent].expiresAt) {
			break
		}
		h.swap(i, parent)
		i = parent
		moved = true
	}
	return moved
}

func (h *expiryHeap) bubbleDown(i int) {
	n := len(h.heap)
	for {
		smallest := i
		left, right := 2*i+1, 2*i+2
		if left < n && h.heap[left].expiresAt.Before(h.heap[smallest].expiresAt) {
			smallest = left
		}
		if right < n && h.heap[right].expiresAt.Before(h.heap[smallest].expiresAt) {
			smallest = right
		}
		if smallest == i {
			return
		}
		h.swap(i, smallest)
		i = smallest
	}
}

func (h *expiryHeap) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.heap[i].index = i
	h.heap[j].index = j
}
