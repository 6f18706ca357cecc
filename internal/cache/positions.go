// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

// Package cache provides the bounded playback-position store backing the
// resume table. A doubly-linked list plus hashmap gives O(1) save, lookup
// and eviction, so a long browsing session cannot grow the table without
// bound: once the capacity is reached the least recently touched position is
// dropped.
package cache

import "sync"

type posEntry struct {
	key      string
	position float64
	prev     *posEntry
	next     *posEntry
}

// PositionCache is a thread-safe LRU mapping media identifiers to their last
// known playback position in seconds. Process-lifetime only; nothing is
// persisted.
type PositionCache struct {
	mu sync.Mutex

	capacity int
	items    map[string]*posEntry

	// head.next is most recently used, tail.prev least recently used.
	head *posEntry
	tail *posEntry
}

// DefaultCapacity bounds the resume table. Sized well above any plausible
// single-session viewing history.
const DefaultCapacity = 4096

// NewPositionCache creates a position cache holding at most capacity
// entries.
func NewPositionCache(capacity int) *PositionCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &PositionCache{
		capacity: capacity,
		items:    make(map[string]*posEntry, capacity),
		head:     &posEntry{},
		tail:     &posEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Save records or overwrites the position for a media item and marks it most
// recently used.
func (c *PositionCache) Save(mediaID string, position float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[mediaID]; ok {
		e.position = position
		c.moveToFront(e)
		return
	}

	e := &posEntry{key: mediaID, position: position}
	c.addToFront(e)
	c.items[mediaID] = e

	for len(c.items) > c.capacity {
		c.evictOldest()
	}
}

// Lookup returns the saved position and whether one exists. A hit marks the
// entry most recently used.
func (c *PositionCache) Lookup(mediaID string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[mediaID]
	if !ok {
		return 0, false
	}
	c.moveToFront(e)
	return e.position, true
}

// Len returns the number of stored positions.
func (c *PositionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear drops all positions. Test lifecycle only.
func (c *PositionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*posEntry, c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
}

// list operations, called with the lock held

func (c *PositionCache) addToFront(e *posEntry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *PositionCache) moveToFront(e *posEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.addToFront(e)
}

func (c *PositionCache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	oldest.prev.next = oldest.next
	oldest.next.prev = oldest.prev
	delete(c.items, oldest.key)
}
