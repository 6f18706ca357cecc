// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

// Package player implements the cinema-mode playback session: a state
// machine over an injected media transport with collection-relative
// navigation, resume-position persistence, and auto-advance.
package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/HeartBtz/Xflix-sub001/internal/cache"
	"github.com/HeartBtz/Xflix-sub001/internal/logging"
	"github.com/HeartBtz/Xflix-sub001/internal/media"
	"github.com/HeartBtz/Xflix-sub001/internal/metrics"
)

// State is the playback session lifecycle state.
type State int

const (
	Closed State = iota
	Loading
	Playing
	Paused
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

var (
	// ErrOutOfRange is returned by Open for an index outside the
	// active collection.
	ErrOutOfRange = errors.New("player: index out of range")

	// ErrNoCollection is returned by Open when the browsing context
	// has been discarded.
	ErrNoCollection = errors.New("player: no active collection")

	// ErrInvalidRate is returned by SetRate for a rate outside the
	// supported set.
	ErrInvalidRate = errors.New("player: unsupported playback rate")
)

// Rates is the full set of selectable playback rates.
var Rates = []float64{0.25, 0.5, 0.75, 1.0, 1.25, 1.5, 1.75, 2.0}

// Config holds the session tunables.
type Config struct {
	// AutoAdvanceDelay is the pause between a video finishing and the
	// next item opening.
	AutoAdvanceDelay time.Duration

	// SeekStep and SeekStepLarge are the relative seek distances in
	// seconds.
	SeekStep      float64
	SeekStepLarge float64

	// VolumeStep is the relative volume adjustment on the 0..1 scale.
	VolumeStep float64

	// FrameDuration is the seek distance of a single frame step.
	FrameDuration float64

	// ResumeMinPosition and ResumeEndMargin bound the window in which
	// a saved position is worth resuming: strictly more than
	// ResumeMinPosition seconds in, strictly more than ResumeEndMargin
	// seconds before the end.
	ResumeMinPosition float64
	ResumeEndMargin   float64
}

// DefaultConfig returns the stock session tuning.
func DefaultConfig() Config {
	return Config{
		AutoAdvanceDelay:  1500 * time.Millisecond,
		SeekStep:          10,
		SeekStepLarge:     30,
		VolumeStep:        0.1,
		FrameDuration:     1.0 / 30.0,
		ResumeMinPosition: 2,
		ResumeEndMargin:   5,
	}
}

// Session is the cinema-mode playback session. All methods are safe for
// concurrent use. The session never renders anything itself; it drives
// the Transport and notifies Panels.
type Session struct {
	provider  CollectionProvider
	transport Transport
	resume    *cache.PositionCache
	views     ViewRecorder
	sources   Sources
	panels    Panels
	cfg       Config

	mu            sync.Mutex
	state         State
	index         int
	mediaID       string
	pendingResume bool
	cancelAdvance func() bool

	// afterFunc schedules the auto-advance callback. Injectable so
	// tests run without wall-clock delays.
	afterFunc func(d time.Duration, f func()) func() bool
}

// NewSession builds a session over the given collaborators. cfg fields
// left zero fall back to DefaultConfig values.
func NewSession(provider CollectionProvider, transport Transport, resume *cache.PositionCache, views ViewRecorder, sources Sources, panels Panels, cfg Config) *Session {
	def := DefaultConfig()
	if cfg.AutoAdvanceDelay <= 0 {
		cfg.AutoAdvanceDelay = def.AutoAdvanceDelay
	}
	if cfg.SeekStep <= 0 {
		cfg.SeekStep = def.SeekStep
	}
	if cfg.SeekStepLarge <= 0 {
		cfg.SeekStepLarge = def.SeekStepLarge
	}
	if cfg.VolumeStep <= 0 {
		cfg.VolumeStep = def.VolumeStep
	}
	if cfg.FrameDuration <= 0 {
		cfg.FrameDuration = def.FrameDuration
	}
	if cfg.ResumeMinPosition <= 0 {
		cfg.ResumeMinPosition = def.ResumeMinPosition
	}
	if cfg.ResumeEndMargin <= 0 {
		cfg.ResumeEndMargin = def.ResumeEndMargin
	}
	return &Session{
		provider:  provider,
		transport: transport,
		resume:    resume,
		views:     views,
		sources:   sources,
		panels:    panels,
		cfg:       cfg,
		state:     Closed,
		afterFunc: func(d time.Duration, f func()) func() bool {
			t := time.AfterFunc(d, f)
			return t.Stop
		},
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Index returns the position of the open item within its collection.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// MediaID returns the id of the open item, or "" when closed.
func (s *Session) MediaID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mediaID
}

func (s *Session) activeItems() ([]media.Item, bool) {
	coll := s.provider.Active()
	if coll == nil {
		return nil, false
	}
	return coll.Items(), true
}

// Open starts playback of the item at index in the active collection. If
// a session is already open, its resume position is saved first as if it
// had been closed. The view counter is incremented best-effort and never
// delays playback.
func (s *Session) Open(ctx context.Context, index int) error {
	items, ok := s.activeItems()
	if !ok {
		s.Close()
		return ErrNoCollection
	}
	if index < 0 || index >= len(items) {
		return ErrOutOfRange
	}
	item := items[index]

	s.mu.Lock()
	s.stopAdvanceLocked()
	if s.state != Closed && s.mediaID != "" {
		s.savePositionLocked()
	}
	s.state = Loading
	s.index = index
	s.mediaID = item.ID
	s.pendingResume = item.Kind == media.KindVideo
	s.mu.Unlock()

	// Fresh transport for every open: rate back to 1x, previous source
	// gone before the new one loads.
	s.transport.SetRate(1.0)
	if item.Kind == media.KindVideo {
		s.transport.Load(s.sources.StreamURL(item.ID, 0))
	} else {
		s.transport.Load(s.sources.PhotoURL(item.ID))
	}

	metrics.SessionsOpened.Inc()
	logging.Debug().Str("media_id", item.ID).Int("index", index).Msg("playback session opened")

	go func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.views.RecordView(rctx, item.ID); err != nil {
			logging.Debug().Err(err).Str("media_id", item.ID).Msg("view increment failed")
		}
	}()

	s.panels.Refresh(item.ID)
	return nil
}

// MediaReady is called by the UI adapter once the transport has loaded
// enough of the source to know its duration. It applies a saved resume
// position when one falls in the resume window and starts playback.
// Calls in any state other than Loading are ignored.
func (s *Session) MediaReady(duration float64) {
	s.mu.Lock()
	if s.state != Loading {
		s.mu.Unlock()
		return
	}
	seekTo, doSeek := 0.0, false
	if s.pendingResume {
		if pos, ok := s.resume.Lookup(s.mediaID); ok &&
			pos > s.cfg.ResumeMinPosition && pos < duration-s.cfg.ResumeEndMargin {
			seekTo, doSeek = pos, true
		}
	}
	s.pendingResume = false
	id := s.mediaID
	s.mu.Unlock()

	if doSeek {
		s.transport.Seek(seekTo)
		metrics.ResumesApplied.Inc()
		logging.Debug().Str("media_id", id).Float64("position", seekTo).Msg("resume position applied")
	}

	err := s.transport.Play()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Loading {
		return
	}
	if err != nil {
		// Autoplay refusal is an environment policy, not a failure.
		logging.Debug().Err(err).Str("media_id", id).Msg("autoplay blocked")
		s.state = Paused
		return
	}
	s.state = Playing
}

// MediaEnded is called by the UI adapter when playback reaches the end.
// After a short delay the session advances to the next item; at the last
// item it stays put.
func (s *Session) MediaEnded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Playing && s.state != Paused {
		return
	}
	s.state = Paused
	s.stopAdvanceLocked()
	s.cancelAdvance = s.afterFunc(s.cfg.AutoAdvanceDelay, func() {
		s.advance()
	})
}

func (s *Session) advance() {
	items, ok := s.activeItems()
	if !ok {
		s.Close()
		return
	}
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return
	}
	next := s.index + 1
	s.mu.Unlock()
	if next >= len(items) {
		return
	}
	if err := s.Open(context.Background(), next); err != nil {
		logging.Warn().Err(err).Int("index", next).Msg("auto-advance failed")
	}
}

// Close ends the session: the current position is saved when meaningful,
// the transport is unloaded, and the panels hidden. Closing a closed
// session is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return
	}
	s.stopAdvanceLocked()
	s.savePositionLocked()
	s.state = Closed
	id := s.mediaID
	s.mediaID = ""
	s.pendingResume = false
	s.mu.Unlock()

	s.transport.Unload()
	s.panels.Hide()
	logging.Debug().Str("media_id", id).Msg("playback session closed")
}

// savePositionLocked records the elapsed position for the open item.
// Positions at or under ResumeMinPosition are not worth keeping.
func (s *Session) savePositionLocked() {
	if s.mediaID == "" {
		return
	}
	if pos := s.transport.Position(); pos > s.cfg.ResumeMinPosition {
		s.resume.Save(s.mediaID, pos)
	}
}

func (s *Session) stopAdvanceLocked() {
	if s.cancelAdvance != nil {
		s.cancelAdvance()
		s.cancelAdvance = nil
	}
}

// Next opens the following item of the active collection. Past the last
// item it is a no-op. If the browsing context was discarded the session
// closes instead.
func (s *Session) Next(ctx context.Context) error {
	return s.navigate(ctx, +1)
}

// Prev opens the preceding item of the active collection. Before the
// first item it is a no-op. If the browsing context was discarded the
// session closes instead.
func (s *Session) Prev(ctx context.Context) error {
	return s.navigate(ctx, -1)
}

func (s *Session) navigate(ctx context.Context, dir int) error {
	items, ok := s.activeItems()
	if !ok {
		s.Close()
		return nil
	}
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return nil
	}
	// The collection may have shrunk under us; never step outside its
	// current bounds even from a now-invalid index.
	cur := s.index
	if cur > len(items) {
		cur = len(items)
	}
	target := cur + dir
	s.mu.Unlock()

	if target < 0 || target >= len(items) {
		return nil
	}
	return s.Open(ctx, target)
}

// CanNext reports whether a following item exists.
func (s *Session) CanNext() bool {
	items, ok := s.activeItems()
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != Closed && s.index+1 < len(items)
}

// CanPrev reports whether a preceding item exists.
func (s *Session) CanPrev() bool {
	items, ok := s.activeItems()
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != Closed && s.index > 0 && s.index-1 < len(items)
}
