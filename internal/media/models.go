// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

// Package media defines the domain types shared by the client runtime:
// catalog entries served by the gallery backend and the status types mirrored
// from long-running backend jobs.
package media

// Performer is a catalog entry in the performer listing.
type Performer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	VideoCount int    `json:"videoCount"`
	PhotoCount int    `json:"photoCount"`
	Favorite   bool   `json:"favorite"`
	Thumb      string `json:"thumb,omitempty"`
}

// ItemKind discriminates media items in mixed listings.
type ItemKind string

const (
	KindVideo ItemKind = "video"
	KindPhoto ItemKind = "photo"
)

// Item is a single media entry (video or photo) as returned by the
// collection endpoints.
type Item struct {
	ID        string   `json:"id"`
	Kind      ItemKind `json:"kind"`
	Title     string   `json:"title"`
	Performer string   `json:"performer,omitempty"`
	Duration  float64  `json:"duration,omitempty"` // seconds, videos only
	Size      int64    `json:"size,omitempty"`
	Favorite  bool     `json:"favorite"`
	Views     int      `json:"views,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Listing is the backend's standard paginated response envelope.
type Listing[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// ScanStatus mirrors the backend's indexing-job state. The backend is
// authoritative; the client never persists or invents any of these fields.
type ScanStatus struct {
	Mode      string `json:"mode"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
	Errors    int    `json:"errors"`
	Running   bool   `json:"running"`
	Cancelled bool   `json:"cancelled"`
}

// Percent returns the job completion percentage, or -1 when the total is not
// yet known and only a processed count can be shown.
func (s ScanStatus) Percent() float64 {
	if s.Total <= 0 {
		return -1
	}
	return float64(s.Done) / float64(s.Total) * 100
}

// Stats are the aggregate counters shown on the dashboard, refreshed when an
// indexing job reaches a terminal state.
type Stats struct {
	Performers int   `json:"performers"`
	Videos     int   `json:"videos"`
	Photos     int   `json:"photos"`
	TotalSize  int64 `json:"totalSize"`
}
