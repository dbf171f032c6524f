// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/spectatus/internal/models"
)

// fakeTransport records sink calls.
type fakeTransport struct {
	mu         sync.Mutex
	activities []*models.Activity
	clears     int
	closed     bool
	failSend   bool
}

func (f *fakeTransport) SetActivity(_ context.Context, a *models.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return errors.New("sink rejected activity")
	}
	f.activities = append(f.activities, a)
	return nil
}

func (f *fakeTransport) ClearActivity(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) sent() []*models.Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Activity, len(f.activities))
	copy(out, f.activities)
	return out
}

// fakeDialer hands out fake transports and exposes the lifecycle callbacks
// so tests can drive ready/close events.
type fakeDialer struct {
	mu        sync.Mutex
	failDials int
	dials     int
	transport *fakeTransport
	onReady   func()
	onClosed  func(err error)
}

func (d *fakeDialer) Dial(_ context.Context, _ string, onReady func(), onClosed func(err error)) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.failDials > 0 {
		d.failDials--
		return nil, errors.New("bridge unreachable")
	}
	d.transport = &fakeTransport{}
	d.onReady = onReady
	d.onClosed = onClosed
	return d.transport, nil
}

func (d *fakeDialer) ready() {
	d.mu.Lock()
	fn := d.onReady
	d.mu.Unlock()
	fn()
}

func (d *fakeDialer) drop(err error) {
	d.mu.Lock()
	fn := d.onClosed
	d.mu.Unlock()
	fn(err)
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) current() *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transport
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func episodeSample() *models.NormalizedSample {
	return &models.NormalizedSample{
		Title:       "Stranger Things: S04E09 - The Piggyback",
		PositionSec: 0,
		DurationSec: 3000,
		Playing:     true,
	}
}

func TestConnectionLifecycle(t *testing.T) {
	d := &fakeDialer{}
	c := NewConnection(testPresenceConfig(), d, nil)
	defer c.Destroy()

	if got := c.Status().State; got != "disconnected" {
		t.Fatalf("initial state = %q, want disconnected", got)
	}

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if got := c.Status().State; got != "connected" {
		t.Fatalf("state after dial = %q, want connected", got)
	}

	d.ready()
	if got := c.Status().State; got != "ready" {
		t.Fatalf("state after ack = %q, want ready", got)
	}

	// Connecting again is a no-op.
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}
	if got := d.dialCount(); got != 1 {
		t.Errorf("dials = %d, want 1", got)
	}
}

func TestSetNowPlayingDelivers(t *testing.T) {
	d := &fakeDialer{}
	c := NewConnection(testPresenceConfig(), d, nil)
	defer c.Destroy()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	d.ready()

	if err := c.SetNowPlaying(episodeSample()); err != nil {
		t.Fatalf("SetNowPlaying() error = %v", err)
	}

	sent := d.current().sent()
	if len(sent) != 1 {
		t.Fatalf("sink received %d activities, want 1", len(sent))
	}
	if sent[0].Details != "Stranger Things" || sent[0].State != "S04E09 - The Piggyback" {
		t.Errorf("sink received %+v, want rendered episode", sent[0])
	}
}

func TestSetNowPlayingDeferredUntilReady(t *testing.T) {
	d := &fakeDialer{}
	c := NewConnection(testPresenceConfig(), d, nil)
	defer c.Destroy()

	err := c.SetNowPlaying(episodeSample())
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("SetNowPlaying() while down = %v, want ErrNotReady", err)
	}

	// The payload was cached and replays once ready.
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	d.ready()

	sent := d.current().sent()
	if len(sent) != 1 {
		t.Fatalf("sink received %d activities after ready, want replay of 1", len(sent))
	}
	if sent[0].Details != "Stranger Things" {
		t.Errorf("replayed %+v, want cached episode", sent[0])
	}
}

func TestReconnectBoundedAndManualReset(t *testing.T) {
	cfg := testPresenceConfig()
	cfg.ReconnectDelay = 5 * time.Millisecond

	d := &fakeDialer{failDials: 100}
	c := NewConnection(cfg, d, nil)
	defer c.Destroy()

	if err := c.Connect(context.Background()); err == nil {
		t.Fatal("Connect() = nil, want dial error")
	}

	// One manual dial plus three automatic attempts, then the connection
	// stays down.
	waitFor(t, func() bool { return d.dialCount() == 4 }, "reconnect attempts never ran")
	time.Sleep(30 * time.Millisecond)
	if got := d.dialCount(); got != 4 {
		t.Fatalf("dials = %d, want exactly 4 (attempts exhausted)", got)
	}
	status := c.Status()
	if status.State != "disconnected" || status.Attempts != 3 {
		t.Fatalf("status = %+v, want disconnected with 3 attempts", status)
	}

	// A manual connect resets the counter and succeeds.
	d.mu.Lock()
	d.failDials = 0
	d.mu.Unlock()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("manual Connect() error = %v", err)
	}
	d.ready()
	status = c.Status()
	if status.State != "ready" || status.Attempts != 0 {
		t.Fatalf("status = %+v, want ready with reset attempts", status)
	}
}

func TestReplayOnReconnect(t *testing.T) {
	cfg := testPresenceConfig()
	cfg.ReconnectDelay = 5 * time.Millisecond

	d := &fakeDialer{}
	c := NewConnection(cfg, d, nil)
	defer c.Destroy()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	d.ready()
	if err := c.SetNowPlaying(episodeSample()); err != nil {
		t.Fatalf("SetNowPlaying() error = %v", err)
	}
	first := d.current()

	d.drop(errors.New("socket reset"))
	waitFor(t, func() bool { return d.dialCount() == 2 }, "automatic reconnect never dialed")
	d.ready()

	second := d.current()
	if second == first {
		t.Fatal("reconnect reused the dropped transport")
	}
	sent := second.sent()
	if len(sent) != 1 {
		t.Fatalf("new transport received %d activities, want replayed 1", len(sent))
	}
	if sent[0].Details != "Stranger Things" {
		t.Errorf("replayed %+v, want cached episode", sent[0])
	}
	if !first.closed {
		t.Error("dropped transport was never closed")
	}
}

func TestClearActivity(t *testing.T) {
	cfg := testPresenceConfig()
	cfg.ReconnectDelay = 5 * time.Millisecond

	d := &fakeDialer{}
	c := NewConnection(cfg, d, nil)
	defer c.Destroy()

	// Clearing while down only wipes the cache.
	if err := c.ClearActivity(); err != nil {
		t.Fatalf("ClearActivity() while down = %v, want nil", err)
	}

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	d.ready()
	if err := c.SetNowPlaying(episodeSample()); err != nil {
		t.Fatalf("SetNowPlaying() error = %v", err)
	}
	if err := c.ClearActivity(); err != nil {
		t.Fatalf("ClearActivity() error = %v", err)
	}
	if d.current().clears != 1 {
		t.Errorf("sink clears = %d, want 1", d.current().clears)
	}

	// Nothing cached anymore, so a drop and reconnect replays nothing.
	d.drop(errors.New("socket reset"))
	waitFor(t, func() bool { return d.dialCount() == 2 }, "automatic reconnect never dialed")
	d.ready()
	if sent := d.current().sent(); len(sent) != 0 {
		t.Errorf("cleared activity was replayed: %+v", sent)
	}
}

func TestTickerAdvancesCountdown(t *testing.T) {
	cfg := testPresenceConfig()
	cfg.TickInterval = 5 * time.Millisecond

	d := &fakeDialer{}
	c := NewConnection(cfg, d, nil)
	defer c.Destroy()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	d.ready()
	if err := c.SetNowPlaying(episodeSample()); err != nil {
		t.Fatalf("SetNowPlaying() error = %v", err)
	}

	waitFor(t, func() bool { return len(d.current().sent()) >= 3 }, "ticker never re-rendered")

	// Pausing stops the ticker.
	paused := episodeSample()
	paused.Playing = false
	if err := c.SetNowPlaying(paused); err != nil {
		t.Fatalf("SetNowPlaying(paused) error = %v", err)
	}
	n := len(d.current().sent())
	time.Sleep(25 * time.Millisecond)
	if got := len(d.current().sent()); got != n {
		t.Errorf("ticker kept running while paused: %d -> %d sends", n, got)
	}
}

func TestDestroyCancelsTimers(t *testing.T) {
	cfg := testPresenceConfig()
	cfg.ReconnectDelay = 5 * time.Millisecond

	d := &fakeDialer{failDials: 100}
	c := NewConnection(cfg, d, nil)

	_ = c.Connect(context.Background())
	c.Destroy()

	n := d.dialCount()
	time.Sleep(30 * time.Millisecond)
	if got := d.dialCount(); got != n {
		t.Errorf("reconnect timer survived Destroy: %d -> %d dials", n, got)
	}
	if got := c.Status(); got.State != "disconnected" || got.Attempts != 0 {
		t.Errorf("status after Destroy = %+v, want pristine disconnected", got)
	}
}

func TestStateListener(t *testing.T) {
	var mu sync.Mutex
	var states []string

	d := &fakeDialer{}
	c := NewConnection(testPresenceConfig(), d, func(state string) {
		mu.Lock()
		states = append(states, state)
		mu.Unlock()
	})
	defer c.Destroy()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	d.ready()

	mu.Lock()
	got := append([]string(nil), states...)
	mu.Unlock()

	want := []string{"connecting", "connected", "ready"}
	if len(got) != len(want) {
		t.Fatalf("listener saw %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("listener saw %v, want %v", got, want)
		}
	}
}
