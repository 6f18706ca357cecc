// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/HeartBtz/Xflix-sub001/internal/media"
)

func TestListVideosBuildsQuery(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":[{"id":"v1","kind":"video","title":"clip"}],"total":120}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")
	listing, err := c.ListVideos(context.Background(), "alice", CollectionFilter{
		Sort: "date", Order: "desc", Page: 3, Limit: 24, Tag: "outdoor",
	})
	if err != nil {
		t.Fatalf("ListVideos() error = %v", err)
	}

	if gotPath != "/api/performers/alice/videos" {
		t.Errorf("path = %q", gotPath)
	}
	for _, part := range []string{"sort=date", "order=desc", "page=3", "limit=24", "tag=outdoor"} {
		if !strings.Contains(gotQuery, part) {
			t.Errorf("query %q missing %q", gotQuery, part)
		}
	}
	if listing.Total != 120 || len(listing.Data) != 1 || listing.Data[0].ID != "v1" {
		t.Errorf("listing = %+v", listing)
	}
}

func TestListPerformersFilter(t *testing.T) {
	t.Parallel()

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":[],"total":0}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")
	_, err := c.ListPerformers(context.Background(), PerformerFilter{
		Query: "ali", MinVideos: 2, Favorite: true,
	})
	if err != nil {
		t.Fatalf("ListPerformers() error = %v", err)
	}
	for _, part := range []string{"q=ali", "minVideos=2", "favorite=true"} {
		if !strings.Contains(gotQuery, part) {
			t.Errorf("query %q missing %q", gotQuery, part)
		}
	}
}

func TestScanEndpoints(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		if r.URL.Path == "/api/scan/progress" {
			w.Write([]byte(`{"mode":"full","done":3,"total":10,"errors":1,"running":true}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")

	status, err := c.ScanProgress(context.Background())
	if err != nil {
		t.Fatalf("ScanProgress() error = %v", err)
	}
	if !status.Running || status.Done != 3 || status.Total != 10 {
		t.Errorf("status = %+v", status)
	}

	if err := c.StartScan(context.Background(), "quick"); err != nil {
		t.Fatalf("StartScan() error = %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/scan" || gotQuery != "mode=quick" {
		t.Errorf("start scan request = %s %s?%s", gotMethod, gotPath, gotQuery)
	}

	if err := c.CancelScan(context.Background()); err != nil {
		t.Fatalf("CancelScan() error = %v", err)
	}
	if gotPath != "/api/scan/cancel" {
		t.Errorf("cancel path = %q", gotPath)
	}
}

func TestScanStatusPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status media.ScanStatus
		want   float64
	}{
		{"half done", media.ScanStatus{Done: 5, Total: 10}, 50},
		{"complete", media.ScanStatus{Done: 10, Total: 10}, 100},
		{"unknown total", media.ScanStatus{Done: 7, Total: 0}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Percent(); got != tt.want {
				t.Errorf("Percent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMediaURLBuilders(t *testing.T) {
	t.Parallel()

	c := NewClient("http://gallery.local", "tok")

	if got := c.ThumbURL("v1", 0); got != "http://gallery.local/thumb/v1" {
		t.Errorf("ThumbURL first attempt = %q", got)
	}
	if got := c.ThumbURL("v1", 3); got != "http://gallery.local/thumb/v1?retry=3" {
		t.Errorf("ThumbURL cache-bust = %q", got)
	}
	if got := c.StreamURL("v1", 4); got != "http://gallery.local/stream/v1#t=4" {
		t.Errorf("StreamURL offset = %q", got)
	}
	if got := c.StreamURL("v1", 0); got != "http://gallery.local/stream/v1" {
		t.Errorf("StreamURL plain = %q", got)
	}
	if got := c.PhotoURL("p9"); got != "http://gallery.local/photo/p9" {
		t.Errorf("PhotoURL = %q", got)
	}
	if got := c.DownloadURL("v1"); got != "http://gallery.local/download/v1" {
		t.Errorf("DownloadURL = %q", got)
	}
}

func TestRelatedItemsUnwrapsListing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"r1","kind":"video","title":"related"}],"total":1}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "tok")
	items, err := c.RelatedItems(context.Background(), "v1", 8)
	if err != nil {
		t.Fatalf("RelatedItems() error = %v", err)
	}
	if len(items) != 1 || items[0].ID != "r1" {
		t.Errorf("items = %+v", items)
	}
}
