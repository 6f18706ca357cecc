// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

// Package config loads the gallery client configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables, in increasing priority.
package config

import "time"

// Config holds all runtime configuration. Immutable after Load and safe
// for concurrent reads.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Fetch    FetchConfig    `koanf:"fetch"`
	Thumbs   ThumbsConfig   `koanf:"thumbs"`
	Paging   PagingConfig   `koanf:"paging"`
	Scan     ScanConfig     `koanf:"scan"`
	Player   PlayerConfig   `koanf:"player"`
	Viewport ViewportConfig `koanf:"viewport"`
	Prefs    PrefsConfig    `koanf:"prefs"`
	Diag     DiagConfig     `koanf:"diag"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig points the client at its gallery backend.
type ServerConfig struct {
	// BaseURL is the root of the backend API, e.g. http://127.0.0.1:8080.
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// Token is the optional bearer token sent with every request.
	Token string `koanf:"token"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// FetchConfig tunes the retrying fetch engine.
type FetchConfig struct {
	// RetryAttempts is the total number of calls for a retryable GET.
	RetryAttempts int `koanf:"retry_attempts" validate:"min=1,max=10"`

	// RetryBaseDelay is multiplied by the attempt number for the
	// linear backoff between calls.
	RetryBaseDelay time.Duration `koanf:"retry_base_delay" validate:"gt=0"`

	// RatePerSecond caps outbound request rate. 0 disables pacing.
	RatePerSecond float64 `koanf:"rate_per_second" validate:"min=0"`
}

// ThumbsConfig tunes thumbnail retry and degradation.
type ThumbsConfig struct {
	// MaxRetries is the number of cache-busted reload attempts before
	// an element degrades to its preview source.
	MaxRetries int `koanf:"max_retries" validate:"min=1,max=10"`

	// RetryStep is multiplied by the attempt number for the reload
	// delay.
	RetryStep time.Duration `koanf:"retry_step" validate:"gt=0"`

	// PreviewOffset is the stream timestamp, in seconds, a degraded
	// element frames as its still.
	PreviewOffset float64 `koanf:"preview_offset" validate:"min=0"`
}

// PagingConfig tunes the pagination controller.
type PagingConfig struct {
	// Limit is the page size requested from the backend.
	Limit int `koanf:"limit" validate:"min=1,max=500"`
}

// ScanConfig tunes the library scan monitor.
type ScanConfig struct {
	// PollInterval is the spacing between scan progress polls.
	PollInterval time.Duration `koanf:"poll_interval" validate:"gt=0"`
}

// PlayerConfig tunes the playback session.
type PlayerConfig struct {
	// AutoAdvanceDelay is the pause before the next item opens after
	// a video finishes.
	AutoAdvanceDelay time.Duration `koanf:"auto_advance_delay" validate:"gt=0"`

	// ResumeCapacity bounds the in-memory resume position table.
	ResumeCapacity int `koanf:"resume_capacity" validate:"min=1"`
}

// ViewportConfig tunes the shared viewport watcher.
type ViewportConfig struct {
	// Margin extends the visibility band above and below the viewport,
	// in pixels, so sources start loading slightly before they scroll
	// into view.
	Margin float64 `koanf:"margin" validate:"min=0"`
}

// PrefsConfig locates the local preference store.
type PrefsConfig struct {
	// Path is the SQLite database file. ":memory:" keeps preferences
	// for the process lifetime only.
	Path string `koanf:"path" validate:"required"`
}

// DiagConfig controls the local diagnostics HTTP endpoint.
type DiagConfig struct {
	Enabled bool   `koanf:"enabled"`
	Host    string `koanf:"host"`
	Port    int    `koanf:"port" validate:"min=1,max=65535"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// defaultConfig returns a Config with every optional setting at its
// stock value. Defaults are applied first, then overridden by config
// file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://127.0.0.1:8080",
			Token:   "",
			Timeout: 30 * time.Second,
		},
		Fetch: FetchConfig{
			RetryAttempts:  3,
			RetryBaseDelay: 400 * time.Millisecond,
			RatePerSecond:  0, // unpaced
		},
		Thumbs: ThumbsConfig{
			MaxRetries:    4,
			RetryStep:     2 * time.Second,
			PreviewOffset: 4,
		},
		Paging: PagingConfig{
			Limit: 24,
		},
		Scan: ScanConfig{
			PollInterval: 800 * time.Millisecond,
		},
		Player: PlayerConfig{
			AutoAdvanceDelay: 1500 * time.Millisecond,
			ResumeCapacity:   4096,
		},
		Viewport: ViewportConfig{
			Margin: 200,
		},
		Prefs: PrefsConfig{
			Path: "xflix.db",
		},
		Diag: DiagConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    3917,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
