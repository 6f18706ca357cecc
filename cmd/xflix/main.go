// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

// Command xflix assembles the gallery client runtime headless: backend
// client, scan monitor, thumbnail controller, preference store, and the
// local diagnostics endpoint. UI frontends embed the same packages and
// attach their rendering on top.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/HeartBtz/Xflix-sub001/internal/api"
	"github.com/HeartBtz/Xflix-sub001/internal/cache"
	"github.com/HeartBtz/Xflix-sub001/internal/config"
	"github.com/HeartBtz/Xflix-sub001/internal/diag"
	"github.com/HeartBtz/Xflix-sub001/internal/logging"
	"github.com/HeartBtz/Xflix-sub001/internal/media"
	"github.com/HeartBtz/Xflix-sub001/internal/prefs"
	"github.com/HeartBtz/Xflix-sub001/internal/scanjob"
	"github.com/HeartBtz/Xflix-sub001/internal/thumbs"
	"github.com/HeartBtz/Xflix-sub001/internal/viewport"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().Str("base_url", cfg.Server.BaseURL).Msg("starting xflix client runtime")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()

	clientOpts := []api.Option{
		api.WithRetryPolicy(api.RetryPolicy{
			MaxAttempts: cfg.Fetch.RetryAttempts,
			BaseDelay:   cfg.Fetch.RetryBaseDelay,
		}),
		api.WithHTTPClient(&http.Client{Timeout: cfg.Server.Timeout}),
	}
	if cfg.Fetch.RatePerSecond > 0 {
		clientOpts = append(clientOpts, api.WithRateLimit(cfg.Fetch.RatePerSecond, 1))
	}
	client := api.NewClient(cfg.Server.BaseURL, cfg.Server.Token, clientOpts...)

	store, err := prefs.Open(cfg.Prefs.Path)
	if err != nil {
		return fmt.Errorf("opening preference store: %w", err)
	}
	defer store.Close()

	resume := cache.NewPositionCache(cfg.Player.ResumeCapacity)

	watcher := viewport.NewWatcher(cfg.Viewport.Margin)
	thumbCtl := thumbs.NewController(client, watcher, thumbs.Config{
		MaxRetries:    cfg.Thumbs.MaxRetries,
		RetryStep:     cfg.Thumbs.RetryStep,
		PreviewOffset: cfg.Thumbs.PreviewOffset,
	})

	monitor := scanjob.NewMonitor(client, cfg.Scan.PollInterval, scanjob.Hooks{
		OnProgress: func(st media.ScanStatus) {
			logging.Debug().Int("done", st.Done).Int("total", st.Total).Msg("scan progress")
		},
		OnTerminal: func(state scanjob.State, st media.ScanStatus) {
			logging.Info().Str("state", state.String()).Int("done", st.Done).Msg("scan finished")
		},
		OnError: func(err error) {
			logging.Error().Err(err).Msg("scan poll failed")
		},
	})
	defer monitor.Stop()

	// A scan may already be running server-side from a previous session
	// or another client; adopt it instead of starting blind.
	if err := monitor.Reconcile(ctx); err != nil {
		logging.Warn().Err(err).Msg("scan reconcile failed")
	}

	if !cfg.Diag.Enabled {
		logging.Info().Msg("diagnostics endpoint disabled, running until signal")
		<-ctx.Done()
		return nil
	}

	snapshot := func() diag.Snapshot {
		status := monitor.Status()
		return diag.Snapshot{
			Uptime:        time.Since(start).Round(time.Second).String(),
			ScanState:     monitor.State().String(),
			ScanStatus:    status,
			ResumeEntries: resume.Len(),
			ThumbsPending: watcher.Pending(),
			ThumbsDegrade: thumbCtl.DegradedCount(),
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Diag.Host, cfg.Diag.Port),
		Handler:           diag.Router(snapshot, monitor),
		ReadHeaderTimeout: 5 * time.Second,
	}

	handler := &sutureslog.Handler{Logger: slog.New(logging.NewSlogHandler())}
	root := suture.New("xflix", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
	root.Add(diag.NewService(server, 10*time.Second))

	logging.Info().Str("addr", server.Addr).Msg("diagnostics endpoint listening")
	err = root.Serve(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor exited: %w", err)
	}
	logging.Info().Msg("shutdown complete")
	return nil
}
