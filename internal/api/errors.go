// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

package api

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned when the backend answered with a non-2xx status.
// A 503 is the backend's busy signal and is the only retryable status; every
// other code is an application error and fails immediately.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Status)
}

// TransientError is returned when no HTTP response was obtained at all
// (connection refused, reset, timeout). Always retryable.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient network error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsBusy reports whether err is the backend's busy signal (HTTP 503).
func IsBusy(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusServiceUnavailable
}

// IsTransient reports whether err is a connection-level failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsRetryable reports whether the fetch engine may retry after err.
func IsRetryable(err error) bool {
	return IsBusy(err) || IsTransient(err)
}
