// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

// Package diag exposes a small local HTTP endpoint with health, metrics,
// and a live snapshot of the client runtime for debugging.
package diag

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HeartBtz/Xflix-sub001/internal/logging"
	"github.com/HeartBtz/Xflix-sub001/internal/scanjob"
)

// Snapshot is the runtime state served at /api/state.
type Snapshot struct {
	Uptime        string      `json:"uptime"`
	ScanState     string      `json:"scan_state"`
	ScanStatus    interface{} `json:"scan_status,omitempty"`
	PagingActive  bool        `json:"paging_active"`
	PagingPage    int         `json:"paging_page"`
	PagingTotal   int         `json:"paging_total"`
	PlayerState   string      `json:"player_state"`
	PlayerMediaID string      `json:"player_media_id,omitempty"`
	ResumeEntries int         `json:"resume_entries"`
	ThumbsPending int         `json:"thumbs_pending"`
	ThumbsDegrade int         `json:"thumbs_degraded"`
	Timestamp     time.Time   `json:"timestamp"`
}

// StateFunc produces the current Snapshot. Wired up in main from the
// live controllers.
type StateFunc func() Snapshot

// Router builds the diagnostics handler.
func Router(state StateFunc, monitor *scanjob.Monitor) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))
	// The endpoint binds to loopback; rate limiting still keeps a
	// misbehaving local poller from hammering the snapshot path.
	r.Use(httprate.LimitByIP(300, time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/state", func(w http.ResponseWriter, _ *http.Request) {
		snap := state()
		snap.Timestamp = time.Now().UTC()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			logging.Debug().Err(err).Msg("state snapshot encode failed")
		}
	})

	// Advisory scan controls mirror the in-app buttons for headless use.
	r.Post("/api/scan/{mode}", func(w http.ResponseWriter, req *http.Request) {
		mode := chi.URLParam(req, "mode")
		if err := monitor.Start(req.Context(), mode); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	r.Post("/api/scan/cancel", func(w http.ResponseWriter, req *http.Request) {
		if err := monitor.Cancel(req.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	return r
}
