// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/HeartBtz/Xflix-sub001/internal/media"
)

// PerformerFilter holds the query parameters of the performer catalog listing.
type PerformerFilter struct {
	Sort      string
	Order     string
	Query     string
	MinVideos int
	MinPhotos int
	Favorite  bool
}

func (f PerformerFilter) values() url.Values {
	q := url.Values{}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	if f.Order != "" {
		q.Set("order", f.Order)
	}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	if f.MinVideos > 0 {
		q.Set("minVideos", strconv.Itoa(f.MinVideos))
	}
	if f.MinPhotos > 0 {
		q.Set("minPhotos", strconv.Itoa(f.MinPhotos))
	}
	if f.Favorite {
		q.Set("favorite", "true")
	}
	return q
}

// CollectionFilter holds the query parameters of a performer's paginated
// video or photo collection.
type CollectionFilter struct {
	Sort        string
	Order       string
	Page        int
	Limit       int
	MinSize     int64
	MaxSize     int64
	MinDuration int
	MaxDuration int
	Favorite    bool
	Tag         string
}

func (f CollectionFilter) values() url.Values {
	q := url.Values{}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	if f.Order != "" {
		q.Set("order", f.Order)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.MinSize > 0 {
		q.Set("minSize", strconv.FormatInt(f.MinSize, 10))
	}
	if f.MaxSize > 0 {
		q.Set("maxSize", strconv.FormatInt(f.MaxSize, 10))
	}
	if f.MinDuration > 0 {
		q.Set("minDuration", strconv.Itoa(f.MinDuration))
	}
	if f.MaxDuration > 0 {
		q.Set("maxDuration", strconv.Itoa(f.MaxDuration))
	}
	if f.Favorite {
		q.Set("favorite", "true")
	}
	if f.Tag != "" {
		q.Set("tag", f.Tag)
	}
	return q
}

// ListPerformers fetches the performer catalog.
func (c *Client) ListPerformers(ctx context.Context, f PerformerFilter) (media.Listing[media.Performer], error) {
	var out media.Listing[media.Performer]
	err := c.GetJSON(ctx, "/api/performers", f.values(), &out)
	return out, err
}

// GetPerformer fetches a single performer's detail record.
func (c *Client) GetPerformer(ctx context.Context, name string) (media.Performer, error) {
	var out media.Performer
	err := c.GetJSON(ctx, "/api/performers/"+url.PathEscape(name), nil, &out)
	return out, err
}

// ListVideos fetches one page of a performer's video collection.
func (c *Client) ListVideos(ctx context.Context, performer string, f CollectionFilter) (media.Listing[media.Item], error) {
	var out media.Listing[media.Item]
	err := c.GetJSON(ctx, "/api/performers/"+url.PathEscape(performer)+"/videos", f.values(), &out)
	return out, err
}

// ListPhotos fetches one page of a performer's photo collection.
func (c *Client) ListPhotos(ctx context.Context, performer string, f CollectionFilter) (media.Listing[media.Item], error) {
	var out media.Listing[media.Item]
	err := c.GetJSON(ctx, "/api/performers/"+url.PathEscape(performer)+"/photos", f.values(), &out)
	return out, err
}

// ListFavorites fetches the favorites collection for the given media kind.
func (c *Client) ListFavorites(ctx context.Context, kind media.ItemKind, limit int) (media.Listing[media.Item], error) {
	q := url.Values{"type": {string(kind)}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out media.Listing[media.Item]
	err := c.GetJSON(ctx, "/api/favorites", q, &out)
	return out, err
}

// RandomVideos fetches the discover feed for videos.
func (c *Client) RandomVideos(ctx context.Context, limit int) (media.Listing[media.Item], error) {
	return c.randomItems(ctx, "/api/random/videos", limit)
}

// RandomPhotos fetches the discover feed for photos.
func (c *Client) RandomPhotos(ctx context.Context, limit int) (media.Listing[media.Item], error) {
	return c.randomItems(ctx, "/api/random/photos", limit)
}

func (c *Client) randomItems(ctx context.Context, path string, limit int) (media.Listing[media.Item], error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out media.Listing[media.Item]
	err := c.GetJSON(ctx, path, q, &out)
	return out, err
}

// NewItems fetches recently indexed items of the given kind.
func (c *Client) NewItems(ctx context.Context, kind media.ItemKind, limit int) (media.Listing[media.Item], error) {
	q := url.Values{"type": {string(kind)}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out media.Listing[media.Item]
	err := c.GetJSON(ctx, "/api/new", q, &out)
	return out, err
}

// ListTags fetches the tag vocabulary, optionally scoped to one performer.
func (c *Client) ListTags(ctx context.Context, performer string) ([]string, error) {
	q := url.Values{}
	if performer != "" {
		q.Set("performer", performer)
	}
	var out []string
	err := c.GetJSON(ctx, "/api/tags", q, &out)
	return out, err
}

// RelatedItems fetches the related-items panel content for a media item.
func (c *Client) RelatedItems(ctx context.Context, mediaID string, limit int) ([]media.Item, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out media.Listing[media.Item]
	if err := c.GetJSON(ctx, "/api/media/"+url.PathEscape(mediaID)+"/related", q, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetStats fetches the aggregate dashboard counters.
func (c *Client) GetStats(ctx context.Context) (media.Stats, error) {
	var out media.Stats
	err := c.GetJSON(ctx, "/api/stats", nil, &out)
	return out, err
}

// ScanProgress fetches the current indexing-job status.
func (c *Client) ScanProgress(ctx context.Context) (media.ScanStatus, error) {
	var out media.ScanStatus
	err := c.GetJSON(ctx, "/api/scan/progress", nil, &out)
	return out, err
}

// StartScan launches an indexing job. Non-retried mutation.
func (c *Client) StartScan(ctx context.Context, mode string) error {
	q := url.Values{}
	if mode != "" {
		q.Set("mode", mode)
	}
	if err := c.PostJSON(ctx, "/api/scan", q, nil); err != nil {
		return fmt.Errorf("start scan: %w", err)
	}
	return nil
}

// CancelScan requests cancellation of the running indexing job. Advisory:
// the job is only known cancelled once a progress poll reports it.
func (c *Client) CancelScan(ctx context.Context) error {
	if err := c.PostJSON(ctx, "/api/scan/cancel", nil, nil); err != nil {
		return fmt.Errorf("cancel scan: %w", err)
	}
	return nil
}

// TogglePerformerFavorite flips a performer's favorite flag. Non-retried.
func (c *Client) TogglePerformerFavorite(ctx context.Context, id string) error {
	return c.PostJSON(ctx, "/api/performers/"+url.PathEscape(id)+"/favorite", nil, nil)
}

// ToggleMediaFavorite flips a media item's favorite flag. Non-retried.
func (c *Client) ToggleMediaFavorite(ctx context.Context, id string) error {
	return c.PostJSON(ctx, "/api/media/"+url.PathEscape(id)+"/favorite", nil, nil)
}

// RecordView increments a media item's view counter. Best-effort, non-retried.
func (c *Client) RecordView(ctx context.Context, id string) error {
	return c.PostJSON(ctx, "/api/media/"+url.PathEscape(id)+"/view", nil, nil)
}
