// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

package scanjob

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HeartBtz/Xflix-sub001/internal/media"
)

// fakeAPI replays a scripted sequence of poll responses.
type fakeAPI struct {
	mu        sync.Mutex
	sequence  []pollResult
	polls     int
	starts    int
	cancels   int
	startErr  error
	cancelErr error
}

type pollResult struct {
	status media.ScanStatus
	err    error
}

func (f *fakeAPI) ScanProgress(context.Context) (media.ScanStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.polls
	f.polls++
	if idx >= len(f.sequence) {
		// Repeat the last scripted response if polled past the script.
		idx = len(f.sequence) - 1
	}
	r := f.sequence[idx]
	return r.status, r.err
}

func (f *fakeAPI) StartScan(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return f.startErr
}

func (f *fakeAPI) CancelScan(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	return f.cancelErr
}

func (f *fakeAPI) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func running(done, total int) pollResult {
	return pollResult{status: media.ScanStatus{Mode: "full", Done: done, Total: total, Running: true}}
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for monitor")
	}
}

func TestCancelledJobStopsAfterAuthoritativePoll(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{sequence: []pollResult{
		running(3, 10),
		running(3, 10),
		{status: media.ScanStatus{Mode: "full", Done: 5, Running: false, Cancelled: true}},
	}}

	var refreshes, terminals int32
	terminal := make(chan struct{})
	m := NewMonitor(api, 2*time.Millisecond, Hooks{
		OnTerminal: func(State, media.ScanStatus) {
			if atomic.AddInt32(&terminals, 1) == 1 {
				close(terminal)
			}
		},
		Refresh: func() { atomic.AddInt32(&refreshes, 1) },
	})

	if err := m.Start(context.Background(), "full"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, terminal)

	if got := m.State(); got != Cancelled {
		t.Errorf("state = %v, want Cancelled", got)
	}
	if got := m.Status().Done; got != 5 {
		t.Errorf("final done = %d, want 5", got)
	}

	// Polling stopped after the third (terminal) poll.
	settled := api.pollCount()
	if settled != 3 {
		t.Errorf("polls at terminal = %d, want 3", settled)
	}
	time.Sleep(20 * time.Millisecond)
	if got := api.pollCount(); got != settled {
		t.Errorf("polls continued after terminal: %d -> %d", settled, got)
	}

	if got := atomic.LoadInt32(&refreshes); got != 1 {
		t.Errorf("aggregate refreshes = %d, want exactly 1", got)
	}
	if got := atomic.LoadInt32(&terminals); got != 1 {
		t.Errorf("terminal notifications = %d, want exactly 1", got)
	}
}

func TestCompletedJob(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{sequence: []pollResult{
		running(9, 10),
		{status: media.ScanStatus{Mode: "full", Done: 10, Total: 10, Running: false}},
	}}

	terminal := make(chan struct{})
	var gotState State
	m := NewMonitor(api, 2*time.Millisecond, Hooks{
		OnTerminal: func(s State, _ media.ScanStatus) {
			gotState = s
			close(terminal)
		},
	})

	if err := m.Start(context.Background(), "full"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, terminal)

	if gotState != Completed {
		t.Errorf("terminal state = %v, want Completed", gotState)
	}
}

func TestPollFailureStopsMonitorWithoutRetry(t *testing.T) {
	t.Parallel()

	pollErr := errors.New("progress endpoint down")
	api := &fakeAPI{sequence: []pollResult{
		running(1, 10),
		{err: pollErr},
	}}

	failed := make(chan struct{})
	var refreshes int32
	m := NewMonitor(api, 2*time.Millisecond, Hooks{
		OnError: func(err error) {
			if !errors.Is(err, pollErr) {
				t.Errorf("surfaced error = %v, want %v", err, pollErr)
			}
			close(failed)
		},
		Refresh: func() { atomic.AddInt32(&refreshes, 1) },
	})

	if err := m.Start(context.Background(), "full"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, failed)

	if got := m.State(); got != Failed {
		t.Errorf("state = %v, want Failed", got)
	}
	settled := api.pollCount()
	time.Sleep(20 * time.Millisecond)
	if got := api.pollCount(); got != settled {
		t.Error("monitor kept polling after a failed poll")
	}
	if atomic.LoadInt32(&refreshes) != 0 {
		t.Error("failed monitor must not trigger an aggregate refresh")
	}
}

func TestCancelIsAdvisory(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{sequence: []pollResult{running(1, 10)}}
	m := NewMonitor(api, time.Hour, Hooks{}) // interval long so no poll interferes

	if err := m.Start(context.Background(), "full"); err != nil {
		t.Fatal(err)
	}
	defer m.Stop()

	if err := m.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	// The cancel request flips only the local flag; the monitor stays
	// Running until a poll reports the authoritative cancelled flag.
	if !m.CancelRequested() {
		t.Error("cancelRequested not set")
	}
	if got := m.State(); got != Running {
		t.Errorf("state = %v, want Running until confirmed by poll", got)
	}

	// A second cancel is a no-op, not a second request.
	if err := m.Cancel(context.Background()); err != nil {
		t.Fatal(err)
	}
	api.mu.Lock()
	cancels := api.cancels
	api.mu.Unlock()
	if cancels != 1 {
		t.Errorf("cancel requests = %d, want 1", cancels)
	}
}

func TestStartRejectedWhileRunning(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{sequence: []pollResult{running(1, 10)}}
	m := NewMonitor(api, time.Hour, Hooks{})

	if err := m.Start(context.Background(), "full"); err != nil {
		t.Fatal(err)
	}
	defer m.Stop()

	if err := m.Start(context.Background(), "full"); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() error = %v, want ErrAlreadyRunning", err)
	}
}

func TestStartFailurePropagatesWithoutPolling(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{startErr: errors.New("busy"), sequence: []pollResult{running(0, 0)}}
	m := NewMonitor(api, 2*time.Millisecond, Hooks{})

	if err := m.Start(context.Background(), "full"); err == nil {
		t.Fatal("Start() succeeded, want launch error")
	}
	if got := m.State(); got != Idle {
		t.Errorf("state = %v, want Idle after rejected launch", got)
	}
	time.Sleep(10 * time.Millisecond)
	if api.pollCount() != 0 {
		t.Error("monitor polled after a rejected launch")
	}
}

func TestReconcileAdoptsRunningJob(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{sequence: []pollResult{
		running(4, 10), // reconcile query
		{status: media.ScanStatus{Done: 10, Total: 10, Running: false}},
	}}

	terminal := make(chan struct{})
	m := NewMonitor(api, 2*time.Millisecond, Hooks{
		OnTerminal: func(State, media.ScanStatus) { close(terminal) },
	})

	if err := m.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if got := m.Status().Done; got != 4 {
		t.Errorf("adopted done = %d, want 4", got)
	}
	waitFor(t, terminal)

	if got := m.State(); got != Completed {
		t.Errorf("state = %v, want Completed", got)
	}
}

func TestStopIsConcurrencySafe(t *testing.T) {
	t.Parallel()

	// Shutdown paths overlap in practice: a signal handler and a deferred
	// teardown can both reach Stop. Repeated rounds widen the race window.
	for i := 0; i < 5; i++ {
		api := &fakeAPI{sequence: []pollResult{running(1, 10)}}
		m := NewMonitor(api, time.Hour, Hooks{})
		if err := m.Start(context.Background(), "full"); err != nil {
			t.Fatal(err)
		}

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				m.Stop()
			}()
		}
		wg.Wait()
		m.Stop() // still a no-op after teardown
	}
}

func TestStartDuringTerminalDrainMonitorsNewJob(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{sequence: []pollResult{
		{status: media.ScanStatus{Mode: "full", Done: 10, Total: 10, Running: false}},
		running(5, 10),
		{status: media.ScanStatus{Mode: "full", Done: 10, Total: 10, Running: false}},
	}}

	var terminals int32
	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	m := NewMonitor(api, 2*time.Millisecond, Hooks{
		OnTerminal: func(State, media.ScanStatus) {
			switch atomic.AddInt32(&terminals, 1) {
			case 1:
				close(entered)
				<-release
			case 2:
				close(done)
			}
		},
	})

	if err := m.Start(context.Background(), "full"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, entered)

	// First job is terminal but its poll goroutine has not drained yet. A
	// Start landing in this window must still end up monitored.
	startErr := make(chan error, 1)
	go func() { startErr <- m.Start(context.Background(), "full") }()
	time.Sleep(5 * time.Millisecond)
	close(release)

	if err := <-startErr; err != nil {
		t.Fatalf("Start() during drain error = %v", err)
	}
	waitFor(t, done)

	api.mu.Lock()
	starts := api.starts
	api.mu.Unlock()
	if starts != 2 {
		t.Errorf("scan launches = %d, want 2", starts)
	}
	if got := m.State(); got != Completed {
		t.Errorf("state = %v, want Completed after second job", got)
	}
}

func TestReconcileIgnoresIdleBackend(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{sequence: []pollResult{
		{status: media.ScanStatus{Running: false}},
	}}
	m := NewMonitor(api, 2*time.Millisecond, Hooks{})

	if err := m.Reconcile(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := m.State(); got != Idle {
		t.Errorf("state = %v, want Idle when no job is running", got)
	}
	time.Sleep(10 * time.Millisecond)
	if got := api.pollCount(); got != 1 {
		t.Errorf("polls = %d, want only the reconcile query", got)
	}
}
