// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

// Package viewport implements the visibility-deferred loader: media sources
// are not applied to their display elements until the element nears the
// viewport. One Watcher is shared by the whole application; a watcher per
// element would be resource-prohibitive at grid scale.
package viewport

import (
	"sync"

	"github.com/HeartBtz/Xflix-sub001/internal/logging"
)

// Target is implemented by UI adapters for elements whose media source is
// deferred. The runtime never touches rendering; it only decides when the
// source may be applied.
type Target interface {
	// Key is the stable identity of the element.
	Key() string
	// Top is the element's current offset from the top of the document.
	Top() float64
	// Attached reports whether the element is still part of the visible
	// document. Detached targets are dropped without loading.
	Attached() bool
	// Load applies the real media source. Called at most once per
	// registration.
	Load(src string)
}

// Watcher defers source application until targets are within margin of the
// viewport. Created once per application instance; Reset exists for tests.
type Watcher struct {
	mu     sync.Mutex
	margin float64

	regs map[string]registration

	// last reported viewport
	top    float64
	height float64
	seen   bool // at least one Update received
}

type registration struct {
	target Target
	src    string
}

// NewWatcher creates the shared watcher. margin extends the viewport on both
// ends so sources start loading slightly before they scroll into view.
func NewWatcher(margin float64) *Watcher {
	return &Watcher{
		margin: margin,
		regs:   make(map[string]registration),
	}
}

// Register defers loading of src into target. Idempotent: registering the
// same key again is a no-op, so a re-rendered element cannot trigger two
// loads. If the target is already within range of the last known viewport it
// is loaded immediately.
func (w *Watcher) Register(target Target, src string) {
	w.mu.Lock()
	if _, dup := w.regs[target.Key()]; dup {
		w.mu.Unlock()
		return
	}
	w.regs[target.Key()] = registration{target: target, src: src}
	due := w.seen && w.inRangeLocked(target)
	if due {
		delete(w.regs, target.Key())
	}
	w.mu.Unlock()

	if due {
		w.apply(target, src)
	}
}

// Unregister removes a pending registration, e.g. when the element is
// discarded before ever becoming visible.
func (w *Watcher) Unregister(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.regs, key)
}

// Update reports the current viewport and fires every due registration.
// Each fired target is unregistered before its source is applied, so no
// further visibility-driven work occurs for it.
func (w *Watcher) Update(top, height float64) {
	w.mu.Lock()
	w.top, w.height, w.seen = top, height, true

	var due []registration
	for key, reg := range w.regs {
		if !reg.target.Attached() {
			delete(w.regs, key)
			continue
		}
		if w.inRangeLocked(reg.target) {
			due = append(due, reg)
			delete(w.regs, key)
		}
	}
	w.mu.Unlock()

	for _, reg := range due {
		w.apply(reg.target, reg.src)
	}
}

// Pending returns the number of registrations still waiting for visibility.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.regs)
}

// Reset clears all registrations and viewport state. Test lifecycle only.
func (w *Watcher) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.regs = make(map[string]registration)
	w.top, w.height, w.seen = 0, 0, false
}

func (w *Watcher) inRangeLocked(t Target) bool {
	top := t.Top()
	return top >= w.top-w.margin && top <= w.top+w.height+w.margin
}

func (w *Watcher) apply(t Target, src string) {
	if !t.Attached() {
		return
	}
	logging.Debug().Str("key", t.Key()).Msg("Applying deferred source")
	t.Load(src)
}
