// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

/*
controller.go - Thumbnail Degradation Controller

Preview images fail routinely while the backend is busy generating them. The
controller retries each failed thumbnail a bounded number of times with a
growing delay and a cache-defeating parameter, then degrades the element
permanently to a short looping stream preview. Degradation is strictly
one-way: no code path reverts a degraded item to the still image.

Retry state lives in a small value per element, keyed by the element's
identity, so concurrent failures across hundreds of grid items never
interfere with each other's counters. A scheduled reload self-checks that the
element is still attached before acting; the race between scheduling and
firing is expected, not an error.
*/
package thumbs

import (
	"sync"
	"time"

	"github.com/HeartBtz/Xflix-sub001/internal/logging"
	"github.com/HeartBtz/Xflix-sub001/internal/metrics"
	"github.com/HeartBtz/Xflix-sub001/internal/viewport"
)

// Target is the visual element showing one item's thumbnail. Load (from the
// embedded viewport.Target) applies an image source; Preview swaps the
// element to a looping video preview and returns the target that should
// receive the stream source once scrolled into view.
type Target interface {
	viewport.Target
	MediaID() string
	Preview() viewport.Target
}

// SourceBuilder supplies the media endpoint URLs. Satisfied by *api.Client.
type SourceBuilder interface {
	ThumbURL(id string, attempt int) string
	StreamURL(id string, offsetSeconds float64) string
}

// Registrar is the shared deferred loader's registration surface.
type Registrar interface {
	Register(t viewport.Target, src string)
	Unregister(key string)
}

// Config bounds the retry-then-degrade policy.
type Config struct {
	// MaxRetries is the number of scheduled reloads before degrading.
	MaxRetries int
	// RetryStep scales the reload delay: attempt n fires after n×RetryStep.
	RetryStep time.Duration
	// PreviewOffset skips the first seconds of the stream preview to avoid
	// black leader frames.
	PreviewOffset float64
}

// DefaultConfig matches the backend's thumbnail generation cadence:
// four retries at 2s, 4s, 6s, 8s, previews offset four seconds in.
func DefaultConfig() Config {
	return Config{MaxRetries: 4, RetryStep: 2 * time.Second, PreviewOffset: 4}
}

type itemState struct {
	mediaID    string
	retryCount int
	degraded   bool
	// previewKey is the watcher key of the degraded preview element, which
	// a UI adapter may key separately from the thumbnail itself.
	previewKey string
}

// Controller owns the per-item retry state.
type Controller struct {
	urls    SourceBuilder
	watcher Registrar
	cfg     Config

	mu     sync.Mutex
	states map[string]*itemState

	// afterFunc schedules delayed work; injectable for tests.
	afterFunc func(d time.Duration, f func())
}

// NewController creates a thumbnail controller using the shared watcher for
// degraded previews.
func NewController(urls SourceBuilder, watcher Registrar, cfg Config) *Controller {
	if cfg.MaxRetries <= 0 {
		cfg = DefaultConfig()
	}
	return &Controller{
		urls:    urls,
		watcher: watcher,
		cfg:     cfg,
		states:  make(map[string]*itemState),
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// OnError handles one failed thumbnail load for the given element.
//
// Attempts 1..MaxRetries schedule a reload of the same endpoint after
// attempt×RetryStep, with the attempt number appended so a cached failure is
// not replayed. The failure after the last retry degrades the element to a
// deferred stream preview, permanently.
func (c *Controller) OnError(t Target) {
	c.mu.Lock()
	st, ok := c.states[t.Key()]
	if !ok {
		st = &itemState{mediaID: t.MediaID()}
		c.states[t.Key()] = st
	}
	if st.degraded {
		c.mu.Unlock()
		return
	}
	st.retryCount++
	attempt := st.retryCount

	if attempt <= c.cfg.MaxRetries {
		mediaID := st.mediaID
		c.mu.Unlock()

		metrics.ThumbRetries.Inc()
		delay := time.Duration(attempt) * c.cfg.RetryStep
		c.afterFunc(delay, func() {
			// The element may have scrolled out and been discarded in the
			// meantime; a reload then is a no-op.
			if !t.Attached() {
				return
			}
			t.Load(c.urls.ThumbURL(mediaID, attempt))
		})
		return
	}

	st.degraded = true
	mediaID := st.mediaID
	preview := t.Preview()
	st.previewKey = preview.Key()
	c.mu.Unlock()

	metrics.ThumbDegradations.Inc()
	logging.Debug().Str("media_id", mediaID).Msg("Thumbnail degraded to stream preview")

	c.watcher.Register(preview, c.urls.StreamURL(mediaID, c.cfg.PreviewOffset))
}

// Degraded reports whether the element's item has been permanently degraded.
func (c *Controller) Degraded(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[key]
	return ok && st.degraded
}

// DegradedCount returns how many items have degraded to stream previews.
func (c *Controller) DegradedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, st := range c.states {
		if st.degraded {
			n++
		}
	}
	return n
}

// Forget drops the retry state for a discarded element and cancels any
// pending deferred registration for it, including a degraded preview
// registered under its own key.
func (c *Controller) Forget(key string) {
	c.mu.Lock()
	var previewKey string
	if st, ok := c.states[key]; ok {
		previewKey = st.previewKey
	}
	delete(c.states, key)
	c.mu.Unlock()

	c.watcher.Unregister(key)
	if previewKey != "" && previewKey != key {
		c.watcher.Unregister(previewKey)
	}
}
