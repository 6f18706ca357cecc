// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/xflix/config.yaml",
	"/etc/xflix/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources:
//  1. Defaults: built-in values for every setting
//  2. Config file: optional YAML file, if one exists
//  3. Environment variables: highest priority
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first readable config path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps environment variable names to koanf config
// paths. Unmapped variables are skipped so stray environment does not
// pollute the config.
//
// Examples:
//   - XFLIX_BASE_URL -> server.base_url
//   - FETCH_RETRY_ATTEMPTS -> fetch.retry_attempts
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		"xflix_base_url": "server.base_url",
		"xflix_token":    "server.token",
		"http_timeout":   "server.timeout",

		"fetch_retry_attempts":   "fetch.retry_attempts",
		"fetch_retry_base_delay": "fetch.retry_base_delay",
		"fetch_rate_per_second":  "fetch.rate_per_second",

		"thumbs_max_retries":    "thumbs.max_retries",
		"thumbs_retry_step":     "thumbs.retry_step",
		"thumbs_preview_offset": "thumbs.preview_offset",

		"page_limit": "paging.limit",

		"scan_poll_interval": "scan.poll_interval",

		"player_auto_advance_delay": "player.auto_advance_delay",
		"player_resume_capacity":    "player.resume_capacity",

		"viewport_margin": "viewport.margin",

		"prefs_path": "prefs.path",

		"diag_enabled": "diag.enabled",
		"diag_host":    "diag.host",
		"diag_port":    "diag.port",

		"log_level":  "logging.level",
		"log_format": "logging.format",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
