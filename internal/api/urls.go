// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

package api

import (
	"fmt"
	"net/url"
)

// URL builders for the binary media endpoints consumed directly by display
// elements. These never go through GetJSON.

// ThumbURL returns the thumbnail endpoint for a media item. A positive
// attempt number is appended as a cache-defeating parameter so a previously
// failed response is not served from cache on a reload.
func (c *Client) ThumbURL(id string, attempt int) string {
	u := c.baseURL + "/thumb/" + url.PathEscape(id)
	if attempt > 0 {
		u += fmt.Sprintf("?retry=%d", attempt)
	}
	return u
}

// StreamURL returns the video stream endpoint. A positive offset is encoded
// as a media fragment so playback starts a few seconds in (degraded
// thumbnails use this to skip black leader frames).
func (c *Client) StreamURL(id string, offsetSeconds float64) string {
	u := c.baseURL + "/stream/" + url.PathEscape(id)
	if offsetSeconds > 0 {
		u += fmt.Sprintf("#t=%g", offsetSeconds)
	}
	return u
}

// PhotoURL returns the full-size photo endpoint.
func (c *Client) PhotoURL(id string) string {
	return c.baseURL + "/photo/" + url.PathEscape(id)
}

// DownloadURL returns the original-file download endpoint.
func (c *Client) DownloadURL(id string) string {
	return c.baseURL + "/download/" + url.PathEscape(id)
}
