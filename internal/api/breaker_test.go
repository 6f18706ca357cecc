// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBreakerPassesThroughHealthyReads(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/stats":
			w.Write([]byte(`{"performers":4,"videos":100,"photos":50,"totalSize":1024}`))
		default:
			w.Write([]byte(`{"data":[{"id":"r1","kind":"video","title":"x"}],"total":1}`))
		}
	}))
	defer server.Close()

	b := NewBreakerClient(NewClient(server.URL, "tok"))

	stats, err := b.GetStats(context.Background())
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.Videos != 100 {
		t.Errorf("stats = %+v", stats)
	}

	items, err := b.RelatedItems(context.Background(), "v1", 4)
	if err != nil {
		t.Fatalf("RelatedItems() error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("items = %+v", items)
	}
}

func TestBreakerOpenSuppressesAncillaryErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	// Single attempt so each breaker-counted request is one network call.
	client := NewClient(server.URL, "tok",
		WithRetryPolicy(RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond}))
	b := NewBreakerClient(client)

	// Trip the breaker: 100% failure rate over the 10-request minimum.
	for i := 0; i < 10; i++ {
		if _, err := b.RelatedItems(context.Background(), "v1", 4); err == nil {
			t.Fatal("expected error while circuit closed")
		}
	}

	// Circuit is now open: ancillary reads degrade to empty results, no error.
	items, err := b.RelatedItems(context.Background(), "v1", 4)
	if err != nil {
		t.Fatalf("open-circuit RelatedItems() error = %v, want suppressed", err)
	}
	if items != nil {
		t.Errorf("open-circuit items = %+v, want none", items)
	}

	stats, err := b.GetStats(context.Background())
	if err != nil {
		t.Fatalf("open-circuit GetStats() error = %v, want suppressed", err)
	}
	if stats.Performers != 0 || stats.Videos != 0 || stats.Photos != 0 || stats.TotalSize != 0 {
		t.Errorf("open-circuit stats = %+v, want zero value", stats)
	}
}
