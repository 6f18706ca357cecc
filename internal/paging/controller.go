// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

package paging

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/HeartBtz/Xflix-sub001/internal/logging"
	"github.com/HeartBtz/Xflix-sub001/internal/media"
	"github.com/HeartBtz/Xflix-sub001/internal/metrics"
)

// Controller tracks the active browsing context and runs page loads against
// cursors. Loads for a cursor that is no longer active are either rejected
// up front (append triggers) or have their results discarded (in-flight
// responses), so navigating away never corrupts the new view.
type Controller struct {
	mu     sync.Mutex
	active uuid.UUID
}

// NewController creates a pagination controller with no active context.
func NewController() *Controller {
	return &Controller{}
}

// Activate makes the cursor the active browsing context. Prior contexts'
// sentinel triggers are ignored from this point on.
func (ctl *Controller) Activate(c *Cursor) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	ctl.active = c.token
}

// Deactivate clears the active context (e.g. a modal took over the screen).
func (ctl *Controller) Deactivate() {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	ctl.active = uuid.Nil
}

// IsActive reports whether the cursor is the active browsing context.
func (ctl *Controller) IsActive(c *Cursor) bool {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	return ctl.active == c.token
}

// LoadPage is replace-mode loading driven by explicit page controls: the
// loaded items become the new content and the pagination controls are
// recomputed. Errors surface to the cursor's sink and the previous content
// is left untouched.
func (ctl *Controller) LoadPage(ctx context.Context, c *Cursor, page int) error {
	if page < 1 {
		page = 1
	}

	listing, err := c.fetch(ctx, page, c.limit)
	if err != nil {
		logging.Err(err).Int("page", page).Msg("Page load failed")
		c.sink.LoadFailed(err)
		return err
	}

	c.mu.Lock()
	c.items = append(c.items[:0:0], listing.Data...)
	c.page = page
	c.total = listing.Total
	controls := PageControls(c.totalPagesLocked(), page)
	items := make([]media.Item, len(c.items))
	copy(items, c.items)
	c.mu.Unlock()

	metrics.PagesLoaded.WithLabelValues("replace").Inc()
	c.sink.Replace(items, controls)
	return nil
}

// LoadNext is append-mode loading driven by the infinite-scroll sentinel.
//
// The trigger is ignored without any network call when an append for this
// cursor is already in flight, when the collection is exhausted, or when the
// cursor is no longer the active context. Otherwise the guard is held for
// the duration of the fetch and released regardless of outcome; results
// arriving after the context changed are discarded.
func (ctl *Controller) LoadNext(ctx context.Context, c *Cursor) error {
	if !ctl.IsActive(c) {
		metrics.AppendRejected.WithLabelValues("inactive").Inc()
		return nil
	}

	c.mu.Lock()
	if c.appendGuard {
		c.mu.Unlock()
		metrics.AppendRejected.WithLabelValues("guard").Inc()
		return nil
	}
	next := c.page + 1
	if totalPages := c.totalPagesLocked(); next > totalPages {
		c.mu.Unlock()
		metrics.AppendRejected.WithLabelValues("exhausted").Inc()
		return nil
	}
	c.appendGuard = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.appendGuard = false
		c.mu.Unlock()
	}()

	listing, err := c.fetch(ctx, next, c.limit)
	if err != nil {
		logging.Err(err).Int("page", next).Msg("Append load failed")
		// Same staleness rule as results: an abandoned view never renders
		// a late error either.
		if ctl.IsActive(c) {
			c.sink.LoadFailed(err)
		}
		return err
	}

	// The user may have navigated away while the fetch was in flight; the
	// request is not cancelled but its result must not land in a stale view.
	if !ctl.IsActive(c) {
		return nil
	}

	c.mu.Lock()
	c.items = append(c.items, listing.Data...)
	c.page = next
	c.total = listing.Total
	c.mu.Unlock()

	metrics.PagesLoaded.WithLabelValues("append").Inc()
	c.sink.Append(listing.Data)
	return nil
}
