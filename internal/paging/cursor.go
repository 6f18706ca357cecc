// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

// Package paging manages page cursors for the browsing contexts (performer
// catalog, a performer's videos or photos, favorites, discover, new items)
// and the single-flight guard that keeps infinite scroll from double-loading.
package paging

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/HeartBtz/Xflix-sub001/internal/media"
)

// Fetcher loads one page of a browsing context's collection. Implementations
// wrap the typed api.Client endpoints with the context's filter baked in.
type Fetcher func(ctx context.Context, page, limit int) (media.Listing[media.Item], error)

// Sink receives collection updates. Implemented by the UI adapter. Replace
// re-renders the whole grid; Append adds elements without touching existing
// ones, preserving scroll position and in-flight media.
type Sink interface {
	Replace(items []media.Item, controls []PageControl)
	Append(items []media.Item)
	LoadFailed(err error)
}

// Cursor is the pagination state for one browsing context. Each cursor
// carries a unique token; the Controller only honors infinite-scroll
// triggers whose cursor is still the active context.
type Cursor struct {
	token uuid.UUID
	fetch Fetcher
	sink  Sink
	limit int

	mu          sync.Mutex
	page        int
	total       int
	items       []media.Item
	appendGuard bool
}

// NewCursor creates a cursor for one browsing context.
func NewCursor(fetch Fetcher, sink Sink, limit int) *Cursor {
	if limit <= 0 {
		limit = 24
	}
	return &Cursor{
		token: uuid.New(),
		fetch: fetch,
		sink:  sink,
		limit: limit,
	}
}

// Token identifies this browsing context.
func (c *Cursor) Token() uuid.UUID { return c.token }

// Items returns a snapshot of the loaded collection. Callers that need to
// stay consistent with navigation (the playback session) must re-read this
// on every access rather than hold the returned slice.
func (c *Cursor) Items() []media.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]media.Item, len(c.items))
	copy(out, c.items)
	return out
}

// Page returns the last loaded page number, zero before any load.
func (c *Cursor) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Total returns the backend-reported collection size.
func (c *Cursor) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// TotalPages returns the page count implied by the last listing.
func (c *Cursor) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPagesLocked()
}

func (c *Cursor) totalPagesLocked() int {
	if c.total <= 0 {
		return 0
	}
	return (c.total + c.limit - 1) / c.limit
}
