// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

/*
client.go - Gallery Backend HTTP Client

This file provides the core Client struct for communicating with the Xflix
backend's REST API.

Request behavior:
  - Authentication: Bearer token on all requests
  - Reads (GetJSON): bounded retry with linear backoff on the busy signal
    (HTTP 503) and on connection-level failures; any other non-2xx status
    fails immediately
  - Mutations (PostJSON): exactly one attempt, never retried, so a slow but
    succeeding server cannot double-apply a side effect
  - Optional client-side pacing via rate.Limiter

Related files:
  - endpoints.go: typed API methods
  - urls.go: binary media URL builders
  - breaker.go: circuit breaker decorator for ancillary reads
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/HeartBtz/Xflix-sub001/internal/logging"
	"github.com/HeartBtz/Xflix-sub001/internal/metrics"
)

// RetryPolicy bounds the fetch engine's retry behavior for read calls.
// The delay before retry k is BaseDelay×k, so the worst-case added latency is
// BaseDelay×(1+2+…+(MaxAttempts-1)).
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy matches the backend's expected client behavior:
// three calls at most, 400ms base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 400 * time.Millisecond}
}

// Client handles communication with the gallery backend API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retry      RetryPolicy
	limiter    *rate.Limiter

	// sleep waits between retry attempts; injectable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryPolicy overrides the default read-retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) {
		if p.MaxAttempts > 0 {
			c.retry.MaxAttempts = p.MaxAttempts
		}
		if p.BaseDelay > 0 {
			c.retry.BaseDelay = p.BaseDelay
		}
	}
}

// WithRateLimit paces outgoing requests so a backend busy generating
// thumbnails is not hammered by a fast scroll session. Zero disables pacing.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// NewClient creates an authenticated backend client.
//
// Token acquisition and renewal are owned by the auth layer; the client only
// carries the credential. If the token is a JWT with an exp claim that has
// already passed, a warning is logged at construction.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: DefaultRetryPolicy(),
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	warnIfExpired(token)
	return c
}

// warnIfExpired inspects a JWT bearer token's exp claim without verifying the
// signature. Opaque tokens are ignored.
func warnIfExpired(token string) {
	if strings.Count(token, ".") != 2 {
		return
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	if exp.Before(time.Now()) {
		logging.Warn().Time("expired_at", exp.Time).Msg("Bearer token is expired; requests will fail until renewed")
	}
}

// GetJSON performs a read call with bounded retry.
//
// Retry applies only to the busy signal (503) and to connection-level
// failures; any other non-2xx status is an application error and is returned
// immediately. At most retry.MaxAttempts network calls are made; exhausting
// attempts returns the last retryable error.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		metrics.FetchAttempts.WithLabelValues(http.MethodGet).Inc()
		err := c.do(ctx, http.MethodGet, path, query, out)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			metrics.FetchErrors.WithLabelValues("application").Inc()
			return err
		}

		lastErr = err
		if attempt == c.retry.MaxAttempts {
			break
		}

		reason := "transient"
		if IsBusy(err) {
			reason = "busy"
		}
		metrics.FetchRetries.WithLabelValues(reason).Inc()

		delay := c.retry.BaseDelay * time.Duration(attempt)
		logging.Warn().Err(err).Str("path", path).Dur("retry_delay", delay).Int("attempt", attempt).Msg("Read failed, retrying")

		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}

	kind := "transient"
	if IsBusy(lastErr) {
		kind = "busy"
	}
	metrics.FetchErrors.WithLabelValues(kind).Inc()
	return lastErr
}

// PostJSON performs a state-mutating call. Mutations are deliberately never
// retried: retrying a mutation against a slow-but-succeeding server could
// apply the side effect twice. All non-2xx statuses surface as *StatusError.
func (c *Client) PostJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	metrics.FetchAttempts.WithLabelValues(http.MethodPost).Inc()
	return c.do(ctx, http.MethodPost, path, query, out)
}

// do executes a single request and classifies the outcome per the error
// taxonomy: TransientError (no response), StatusError (non-2xx), or nil with
// the body decoded into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, out interface{}) error {
	reqURL := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// sleepContext waits for d or until ctx is canceled.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
