// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

// Package metrics provides Prometheus instrumentation for the client runtime.
// All collectors are registered on the default registry via promauto and
// exposed by the diagnostics server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Fetch engine

	FetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xflix_fetch_attempts_total",
			Help: "Total HTTP attempts made by the fetch engine",
		},
		[]string{"method"},
	)

	FetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xflix_fetch_retries_total",
			Help: "Retries performed after a retryable failure",
		},
		[]string{"reason"}, // "busy", "transient"
	)

	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xflix_fetch_errors_total",
			Help: "Requests that ultimately failed",
		},
		[]string{"kind"}, // "busy", "transient", "application"
	)

	// Thumbnail degradation

	ThumbRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xflix_thumbnail_retries_total",
			Help: "Scheduled thumbnail reload attempts",
		},
	)

	ThumbDegradations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xflix_thumbnail_degradations_total",
			Help: "Thumbnails permanently degraded to stream previews",
		},
	)

	// Pagination

	PagesLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xflix_pages_loaded_total",
			Help: "Collection pages fetched",
		},
		[]string{"mode"}, // "replace", "append"
	)

	AppendRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xflix_append_rejected_total",
			Help: "Infinite-scroll triggers ignored before any network call",
		},
		[]string{"reason"}, // "guard", "exhausted", "inactive"
	)

	// Job monitor

	JobPolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xflix_scan_polls_total",
			Help: "Status polls issued while a scan job is monitored",
		},
	)

	JobTerminal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xflix_scan_terminal_total",
			Help: "Terminal transitions of the scan job monitor",
		},
		[]string{"state"}, // "completed", "cancelled", "failed"
	)

	// Playback

	SessionsOpened = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xflix_playback_sessions_total",
			Help: "Playback sessions opened",
		},
	)

	ResumesApplied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xflix_playback_resumes_total",
			Help: "Sessions that resumed from a saved position",
		},
	)

	// Circuit breaker

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "xflix_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
