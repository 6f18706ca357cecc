// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

package player

import "github.com/HeartBtz/Xflix-sub001/internal/logging"

// open reports whether the session currently owns the transport.
func (s *Session) open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != Closed
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TogglePlay flips between playing and paused. In any other state it
// does nothing.
func (s *Session) TogglePlay() {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()

	switch st {
	case Playing:
		s.transport.Pause()
		s.mu.Lock()
		if s.state == Playing {
			s.state = Paused
		}
		s.mu.Unlock()
	case Paused:
		err := s.transport.Play()
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state != Paused {
			return
		}
		if err != nil {
			logging.Debug().Err(err).Msg("play blocked")
			return
		}
		s.state = Playing
	}
}

// SeekBy moves the position by delta seconds, clamped to the media
// duration.
func (s *Session) SeekBy(delta float64) {
	if !s.open() {
		return
	}
	dur := s.transport.Duration()
	if dur <= 0 {
		return
	}
	s.transport.Seek(clamp(s.transport.Position()+delta, 0, dur))
}

// SeekForward and SeekBack step by the small configured distance;
// SeekForwardLarge and SeekBackLarge by the large one.
func (s *Session) SeekForward()      { s.SeekBy(s.cfg.SeekStep) }
func (s *Session) SeekBack()         { s.SeekBy(-s.cfg.SeekStep) }
func (s *Session) SeekForwardLarge() { s.SeekBy(s.cfg.SeekStepLarge) }
func (s *Session) SeekBackLarge()    { s.SeekBy(-s.cfg.SeekStepLarge) }

// SeekPercent jumps to a fraction of the media duration. percent is
// clamped to 0..100.
func (s *Session) SeekPercent(percent float64) {
	if !s.open() {
		return
	}
	dur := s.transport.Duration()
	if dur <= 0 {
		return
	}
	s.transport.Seek(dur * clamp(percent, 0, 100) / 100)
}

// AdjustVolume shifts the volume by delta on the 0..1 scale. Any
// explicit volume change also unmutes.
func (s *Session) AdjustVolume(delta float64) {
	if !s.open() {
		return
	}
	s.transport.SetVolume(clamp(s.transport.Volume()+delta, 0, 1))
	s.transport.SetMuted(false)
}

// VolumeUp and VolumeDown step by the configured volume increment.
func (s *Session) VolumeUp()   { s.AdjustVolume(s.cfg.VolumeStep) }
func (s *Session) VolumeDown() { s.AdjustVolume(-s.cfg.VolumeStep) }

// ToggleMute flips the mute flag without touching the volume level.
func (s *Session) ToggleMute() {
	if !s.open() {
		return
	}
	s.transport.SetMuted(!s.transport.Muted())
}

// SetRate selects a playback rate from the supported set.
func (s *Session) SetRate(rate float64) error {
	if !s.open() {
		return nil
	}
	for _, r := range Rates {
		if r == rate {
			s.transport.SetRate(rate)
			return nil
		}
	}
	return ErrInvalidRate
}

// ToggleFullscreen asks the transport to flip fullscreen. Environments
// may refuse; the refusal is logged and swallowed.
func (s *Session) ToggleFullscreen() {
	if !s.open() {
		return
	}
	if err := s.transport.ToggleFullscreen(); err != nil {
		logging.Debug().Err(err).Msg("fullscreen toggle refused")
	}
}

// TogglePiP asks the transport to flip picture-in-picture. Environments
// may refuse; the refusal is logged and swallowed.
func (s *Session) TogglePiP() {
	if !s.open() {
		return
	}
	if err := s.transport.TogglePiP(); err != nil {
		logging.Debug().Err(err).Msg("picture-in-picture toggle refused")
	}
}

// StepFrame nudges the position by n frame durations. Frame stepping
// only makes sense while paused; in any other state it does nothing.
func (s *Session) StepFrame(n int) {
	s.mu.Lock()
	paused := s.state == Paused
	s.mu.Unlock()
	if !paused {
		return
	}
	s.SeekBy(float64(n) * s.cfg.FrameDuration)
}
