// Xflix - Self-Hosted Media Gallery
// Copyright 2026 HeartBtz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/HeartBtz/Xflix-sub001

package thumbs

import (
	"fmt"
	"testing"
	"time"

	"github.com/HeartBtz/Xflix-sub001/internal/viewport"
)

// fakeURLs builds recognizable URLs without a real client.
type fakeURLs struct{}

func (fakeURLs) ThumbURL(id string, attempt int) string {
	if attempt > 0 {
		return fmt.Sprintf("/thumb/%s?retry=%d", id, attempt)
	}
	return "/thumb/" + id
}

func (fakeURLs) StreamURL(id string, offset float64) string {
	return fmt.Sprintf("/stream/%s#t=%g", id, offset)
}

// fakeRegistrar records deferred registrations.
type fakeRegistrar struct {
	registered   []string // sources
	unregistered []string
}

func (f *fakeRegistrar) Register(_ viewport.Target, src string) {
	f.registered = append(f.registered, src)
}

func (f *fakeRegistrar) Unregister(key string) {
	f.unregistered = append(f.unregistered, key)
}

// fakeThumb is a grid element under test. Preview returns the element itself
// unless a separately keyed preview element is set.
type fakeThumb struct {
	key      string
	mediaID  string
	attached bool
	loads    []string
	previews int
	preview  viewport.Target
}

func (f *fakeThumb) Key() string     { return f.key }
func (f *fakeThumb) Top() float64    { return 0 }
func (f *fakeThumb) Attached() bool  { return f.attached }
func (f *fakeThumb) Load(src string) { f.loads = append(f.loads, src) }
func (f *fakeThumb) MediaID() string { return f.mediaID }
func (f *fakeThumb) Preview() viewport.Target {
	f.previews++
	if f.preview != nil {
		return f.preview
	}
	return f
}

// scheduled captures afterFunc calls so tests control time.
type scheduled struct {
	delay time.Duration
	fire  func()
}

func newTestController(reg *fakeRegistrar) (*Controller, *[]scheduled) {
	c := NewController(fakeURLs{}, reg, DefaultConfig())
	pending := &[]scheduled{}
	c.afterFunc = func(d time.Duration, f func()) {
		*pending = append(*pending, scheduled{delay: d, fire: f})
	}
	return c, pending
}

func TestRetryScheduleAndDelays(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistrar{}
	c, pending := newTestController(reg)
	thumb := &fakeThumb{key: "el1", mediaID: "v1", attached: true}

	wantDelays := []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second, 8 * time.Second}
	for i := range wantDelays {
		c.OnError(thumb)
		if len(*pending) != i+1 {
			t.Fatalf("after failure %d: %d scheduled reloads, want %d", i+1, len(*pending), i+1)
		}
		got := (*pending)[i]
		if got.delay != wantDelays[i] {
			t.Errorf("reload %d delay = %v, want %v", i+1, got.delay, wantDelays[i])
		}
		got.fire()
	}

	// Each fired reload applied a cache-busted source.
	wantLoads := []string{"/thumb/v1?retry=1", "/thumb/v1?retry=2", "/thumb/v1?retry=3", "/thumb/v1?retry=4"}
	if len(thumb.loads) != len(wantLoads) {
		t.Fatalf("loads = %v, want %v", thumb.loads, wantLoads)
	}
	for i, want := range wantLoads {
		if thumb.loads[i] != want {
			t.Errorf("load[%d] = %q, want %q", i, thumb.loads[i], want)
		}
	}
	if len(reg.registered) != 0 {
		t.Errorf("degraded early: %v", reg.registered)
	}
}

func TestFifthFailureDegradesPermanently(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistrar{}
	c, pending := newTestController(reg)
	thumb := &fakeThumb{key: "el1", mediaID: "v1", attached: true}

	for i := 0; i < 5; i++ {
		c.OnError(thumb)
	}

	if len(*pending) != 4 {
		t.Errorf("scheduled reloads = %d, want exactly 4", len(*pending))
	}
	if !c.Degraded("el1") {
		t.Error("item not marked degraded after fifth failure")
	}
	if thumb.previews != 1 {
		t.Errorf("preview swaps = %d, want 1", thumb.previews)
	}
	if len(reg.registered) != 1 || reg.registered[0] != "/stream/v1#t=4" {
		t.Errorf("deferred preview registrations = %v", reg.registered)
	}

	// One-way: further errors schedule nothing and register nothing.
	c.OnError(thumb)
	c.OnError(thumb)
	if len(*pending) != 4 || len(reg.registered) != 1 {
		t.Error("degraded item was retried again")
	}
}

func TestReloadSkippedWhenDetached(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistrar{}
	c, pending := newTestController(reg)
	thumb := &fakeThumb{key: "el1", mediaID: "v1", attached: true}

	c.OnError(thumb)
	thumb.attached = false // discarded between scheduling and firing
	(*pending)[0].fire()

	if len(thumb.loads) != 0 {
		t.Errorf("detached element was reloaded: %v", thumb.loads)
	}
}

func TestCountersAreIndependentPerElement(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistrar{}
	c, pending := newTestController(reg)
	a := &fakeThumb{key: "a", mediaID: "v1", attached: true}
	b := &fakeThumb{key: "b", mediaID: "v2", attached: true}

	for i := 0; i < 3; i++ {
		c.OnError(a)
	}
	c.OnError(b)

	if len(*pending) != 4 {
		t.Fatalf("scheduled = %d, want 4", len(*pending))
	}
	// b's single failure is attempt 1 regardless of a's count.
	if got := (*pending)[3].delay; got != 2*time.Second {
		t.Errorf("b's first retry delay = %v, want 2s", got)
	}
	if c.Degraded("a") || c.Degraded("b") {
		t.Error("neither element should be degraded yet")
	}
}

func TestForgetClearsStateAndRegistration(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistrar{}
	c, _ := newTestController(reg)
	thumb := &fakeThumb{key: "el1", mediaID: "v1", attached: true}

	for i := 0; i < 5; i++ {
		c.OnError(thumb)
	}
	c.Forget("el1")

	if c.Degraded("el1") {
		t.Error("state survived Forget")
	}
	if len(reg.unregistered) != 1 || reg.unregistered[0] != "el1" {
		t.Errorf("unregistered = %v, want [el1]", reg.unregistered)
	}

	// A fresh element for the same media starts from attempt 1.
	fresh := &fakeThumb{key: "el1", mediaID: "v1", attached: true}
	c.OnError(fresh)
	if c.Degraded("el1") {
		t.Error("fresh element inherited degraded state")
	}
}

func TestForgetUnregistersSeparatelyKeyedPreview(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistrar{}
	c, _ := newTestController(reg)
	thumb := &fakeThumb{
		key:      "el1",
		mediaID:  "v1",
		attached: true,
		preview:  &fakeThumb{key: "el1-preview", attached: true},
	}

	for i := 0; i < 5; i++ {
		c.OnError(thumb)
	}
	c.Forget("el1")

	// The pending registration lives under the preview's key, not the
	// thumbnail's; both must be cancelled.
	want := map[string]bool{"el1": false, "el1-preview": false}
	for _, key := range reg.unregistered {
		if _, ok := want[key]; !ok {
			t.Errorf("unexpected unregister key %q", key)
			continue
		}
		want[key] = true
	}
	for key, seen := range want {
		if !seen {
			t.Errorf("key %q was never unregistered", key)
		}
	}
}
