// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

/*
monitor.go - Indexing Job Progress Monitor

The monitor mirrors the backend's indexing-job state by fixed-interval
polling. The backend is authoritative for every field; the client only holds
a read-only mirror plus the advisory cancelRequested flag.

State machine: Idle → Running → {Completed, Cancelled, Failed}.

A failed poll stops the monitor outright rather than retrying at this layer:
masking a dead job behind retries is worse than a visible failure. (The
individual poll call still gets the fetch engine's transient retry; that is a
different layer.)
*/
package scanjob

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/HeartBtz/Xflix-sub001/internal/logging"
	"github.com/HeartBtz/Xflix-sub001/internal/media"
	"github.com/HeartBtz/Xflix-sub001/internal/metrics"
)

// State is the monitor's lifecycle state.
type State int

const (
	Idle State = iota
	Running
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrAlreadyRunning is returned by Start while a job is being monitored.
var ErrAlreadyRunning = errors.New("scan job already running")

// ErrNotRunning is returned by Cancel when no job is being monitored.
var ErrNotRunning = errors.New("no scan job running")

// API is the slice of the backend client the monitor needs.
type API interface {
	ScanProgress(ctx context.Context) (media.ScanStatus, error)
	StartScan(ctx context.Context, mode string) error
	CancelScan(ctx context.Context) error
}

// Hooks are the monitor's outbound notifications. All hooks are invoked from
// the polling goroutine; nil hooks are skipped.
type Hooks struct {
	// OnProgress fires once per successful poll with the fresh mirror.
	OnProgress func(media.ScanStatus)
	// OnTerminal fires exactly once when the job reaches a terminal state.
	OnTerminal func(State, media.ScanStatus)
	// OnError fires when a poll fails and the monitor stops.
	OnError func(error)
	// Refresh re-derives the views aggregating over the job's data domain
	// (catalog listing, summary counters). Fires exactly once per
	// Completed or Cancelled transition.
	Refresh func()
}

// DefaultInterval is the poll cadence.
const DefaultInterval = 800 * time.Millisecond

// Monitor polls a long-running backend indexing job to completion or
// cancellation.
type Monitor struct {
	client   API
	interval time.Duration
	hooks    Hooks

	mu              sync.Mutex
	state           State
	status          media.ScanStatus
	cancelRequested bool
	// stopChan is non-nil exactly while a poll goroutine exists. The
	// goroutine's own cleanup clears it, compared by identity so it never
	// clobbers a successor's channel.
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewMonitor creates an idle monitor.
func NewMonitor(client API, interval time.Duration, hooks Hooks) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		client:   client,
		interval: interval,
		hooks:    hooks,
		state:    Idle,
	}
}

// State returns the current lifecycle state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns the latest mirrored job status.
func (m *Monitor) Status() media.ScanStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// CancelRequested reports whether a cancel has been sent but not yet
// confirmed by a poll. UI uses this to disable the cancel control.
func (m *Monitor) CancelRequested() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelRequested
}

// Start launches an indexing job and begins polling on acceptance. The
// launch is a non-retried mutation; a rejected launch leaves the monitor
// Idle.
func (m *Monitor) Start(ctx context.Context, mode string) error {
	m.mu.Lock()
	if m.state == Running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	m.mu.Unlock()

	if err := m.client.StartScan(ctx, mode); err != nil {
		return err
	}

	logging.Info().Str("mode", mode).Msg("Scan job launched")
	m.begin(ctx, media.ScanStatus{Mode: mode, Running: true})
	return nil
}

// Reconcile queries the job status once at startup and resumes polling if a
// job is already running (e.g. it survived a page reload). Nothing is
// persisted client-side; the state is always re-derived from the backend.
func (m *Monitor) Reconcile(ctx context.Context) error {
	status, err := m.client.ScanProgress(ctx)
	if err != nil {
		return err
	}
	if !status.Running {
		return nil
	}

	logging.Info().Str("mode", status.Mode).Int("done", status.Done).Msg("Adopting scan job found running at startup")
	m.begin(ctx, status)
	return nil
}

// Cancel requests cancellation. Advisory: the local flag flips so the UI can
// disable the control, but the job is only treated as cancelled once a poll
// reports the authoritative flag.
func (m *Monitor) Cancel(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Running {
		m.mu.Unlock()
		return ErrNotRunning
	}
	if m.cancelRequested {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if err := m.client.CancelScan(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	m.cancelRequested = true
	m.mu.Unlock()
	return nil
}

// Stop tears down polling without a terminal transition (process shutdown).
// Safe to call concurrently and repeatedly; only the caller that finds the
// channel still set closes it.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopChan != nil {
		close(m.stopChan)
		m.stopChan = nil
	}
	m.mu.Unlock()

	m.wg.Wait()
}

func (m *Monitor) begin(ctx context.Context, initial media.ScanStatus) {
	m.mu.Lock()
	if m.stopChan != nil && m.state != Running {
		// The previous loop saw a terminal poll and is still draining.
		// Wait it out so the freshly launched job is actually monitored.
		m.mu.Unlock()
		m.wg.Wait()
		m.mu.Lock()
	}
	if m.stopChan != nil {
		m.mu.Unlock()
		return
	}
	m.state = Running
	m.status = initial
	m.cancelRequested = false
	m.stopChan = make(chan struct{})
	stop := m.stopChan
	m.mu.Unlock()

	m.wg.Add(1)
	go m.pollLoop(ctx, stop)
}

func (m *Monitor) pollLoop(ctx context.Context, stop chan struct{}) {
	defer func() {
		m.mu.Lock()
		if m.stopChan == stop {
			m.stopChan = nil
		}
		m.mu.Unlock()
		m.wg.Done()
	}()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if m.poll(ctx) {
				return
			}
		}
	}
}

// poll performs one status fetch. Returns true when polling must stop.
func (m *Monitor) poll(ctx context.Context) bool {
	status, err := m.client.ScanProgress(ctx)
	if err != nil {
		m.mu.Lock()
		m.state = Failed
		m.mu.Unlock()

		metrics.JobTerminal.WithLabelValues("failed").Inc()
		logging.Err(err).Msg("Scan poll failed, monitor stopped")
		if m.hooks.OnError != nil {
			m.hooks.OnError(err)
		}
		return true
	}

	metrics.JobPolls.Inc()

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()

	if m.hooks.OnProgress != nil {
		m.hooks.OnProgress(status)
	}

	if status.Running {
		return false
	}

	terminal := Completed
	if status.Cancelled {
		terminal = Cancelled
	}

	m.mu.Lock()
	m.state = terminal
	m.mu.Unlock()

	metrics.JobTerminal.WithLabelValues(terminal.String()).Inc()
	logging.Info().Str("state", terminal.String()).Int("done", status.Done).Int("errors", status.Errors).Msg("Scan job finished")

	if m.hooks.OnTerminal != nil {
		m.hooks.OnTerminal(terminal, status)
	}
	if m.hooks.Refresh != nil {
		m.hooks.Refresh()
	}
	return true
}
