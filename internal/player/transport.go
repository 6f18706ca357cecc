// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

package player

import (
	"context"

	"github.com/HeartBtz/Xflix-sub001/internal/media"
)

// Transport is the imperative surface of the UI's media element. The
// session drives it and never inspects rendering; the UI adapter in turn
// reports media lifecycle events back through Session.MediaReady and
// Session.MediaEnded.
type Transport interface {
	Load(src string)
	Unload()

	Play() error
	Pause()

	Position() float64
	Seek(position float64)
	Duration() float64

	SetRate(rate float64)
	Rate() float64

	SetVolume(v float64)
	Volume() float64
	SetMuted(muted bool)
	Muted() bool

	ToggleFullscreen() error
	TogglePiP() error
}

// Collection is an ordered browse collection. Satisfied by *paging.Cursor.
type Collection interface {
	Items() []media.Item
}

// CollectionProvider hands out the collection the session navigates
// within. It is consulted on every navigation, never snapshotted, so a
// session opened from one listing follows the listing as it grows or is
// replaced. A nil Collection means the browsing context was discarded.
type CollectionProvider interface {
	Active() Collection
}

// ViewRecorder fires the best-effort view increment. Satisfied by
// *api.Client.
type ViewRecorder interface {
	RecordView(ctx context.Context, id string) error
}

// Sources builds the media source URLs. Satisfied by *api.Client.
type Sources interface {
	StreamURL(id string, offsetSeconds float64) string
	PhotoURL(id string) string
}

// Panels groups the external collaborators attached to an open session
// (favorite, reactions, comments, related items). The session only
// guarantees it asks them to refresh at the right moments.
type Panels interface {
	Refresh(mediaID string)
	Hide()
}
