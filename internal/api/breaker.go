// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

package api

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/HeartBtz/Xflix-sub001/internal/logging"
	"github.com/HeartBtz/Xflix-sub001/internal/media"
	"github.com/HeartBtz/Xflix-sub001/internal/metrics"
)

// BreakerClient guards the ancillary read paths (related-items panel,
// aggregate stats) with a circuit breaker. These panels are decoration: when
// the backend is struggling it is better to show nothing than to queue up
// retries behind the core browsing traffic.
//
// The core paths (collections, scan progress) are never routed through the
// breaker; their retry and call-count behavior is owned by Client itself.
//
// DETERMINISM NOTE: the breaker uses real time (via sony/gobreaker) for its
// interval and timeout windows. Unit tests should exercise the wrapped
// client directly and only test the breaker's open/fallback behavior.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewBreakerClient wraps a client with a circuit breaker.
// Opens after a 60% failure rate over at least 10 requests; waits 30 seconds
// before probing half-open.
func NewBreakerClient(client *Client) *BreakerClient {
	const cbName = "gallery-ancillary"

	metrics.BreakerState.WithLabelValues(cbName).Set(0) // closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", stateToString(from)).Str("to", stateToString(to)).Msg("Circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BreakerClient{client: client, cb: cb, name: cbName}
}

// RelatedItems fetches the related-items panel through the breaker.
// While the circuit is open it returns an empty slice and no error.
func (b *BreakerClient) RelatedItems(ctx context.Context, mediaID string, limit int) ([]media.Item, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.client.RelatedItems(ctx, mediaID, limit)
	})
	if err != nil {
		if gobreakerOpen(err) {
			return nil, nil
		}
		return nil, err
	}
	items, _ := result.([]media.Item)
	return items, nil
}

// GetStats fetches the aggregate counters through the breaker.
// While the circuit is open the zero value is returned with ErrUnavailable
// from gobreaker suppressed.
func (b *BreakerClient) GetStats(ctx context.Context) (media.Stats, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.client.GetStats(ctx)
	})
	if err != nil {
		if gobreakerOpen(err) {
			return media.Stats{}, nil
		}
		return media.Stats{}, err
	}
	stats, _ := result.(media.Stats)
	return stats, nil
}

func gobreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
