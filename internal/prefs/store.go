// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

// Package prefs persists local user preferences (theme, per-listing sort
// order) in a small SQLite database so they survive restarts.
package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a preference has never been set.
var ErrNotFound = errors.New("prefs: not found")

// Known theme values.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// DefaultTheme applies until the user picks one.
const DefaultTheme = ThemeDark

// DefaultSortOrder applies to listings without a saved order.
const DefaultSortOrder = "date_desc"

// Store wraps the SQLite preference database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the preference database at path. Pass
// ":memory:" for an ephemeral store (used by tests).
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("creating preferences table: %w", err)
	}
	return nil
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM preferences WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// Theme returns the saved theme, or DefaultTheme when none is set.
func (s *Store) Theme() (string, error) {
	v, err := s.get("theme")
	if errors.Is(err, ErrNotFound) {
		return DefaultTheme, nil
	}
	return v, err
}

// SetTheme saves the theme choice.
func (s *Store) SetTheme(theme string) error {
	if theme != ThemeDark && theme != ThemeLight {
		return fmt.Errorf("prefs: unknown theme %q", theme)
	}
	return s.set("theme", theme)
}

// SortOrder returns the saved sort order for a listing context ("videos",
// "photos", a performer id), or DefaultSortOrder when none is set.
func (s *Store) SortOrder(listing string) (string, error) {
	v, err := s.get("sort:" + listing)
	if errors.Is(err, ErrNotFound) {
		return DefaultSortOrder, nil
	}
	return v, err
}

// SetSortOrder saves the sort order for a listing context.
func (s *Store) SetSortOrder(listing, order string) error {
	if listing == "" {
		return errors.New("prefs: empty listing context")
	}
	return s.set("sort:"+listing, order)
}
