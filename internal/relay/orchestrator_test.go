// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package relay

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/spectatus/internal/config"
	"github.com/tomtom215/spectatus/internal/models"
)

// fakePresence records orchestrator calls and can simulate sink failures.
type fakePresence struct {
	mu       sync.Mutex
	sets     []*models.NormalizedSample
	clears   int
	failNext error
}

func (f *fakePresence) SetNowPlaying(s *models.NormalizedSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.sets = append(f.sets, s)
	return nil
}

func (f *fakePresence) ClearActivity() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakePresence) Status() models.PresenceStatus {
	return models.PresenceStatus{State: "ready"}
}

func (f *fakePresence) lastSet() *models.NormalizedSample {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sets) == 0 {
		return nil
	}
	return f.sets[len(f.sets)-1]
}

func (f *fakePresence) counts() (sets, clears int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sets), f.clears
}

// fakeBus records published lifecycle events.
type fakeBus struct {
	mu      sync.Mutex
	started []*models.Session
	ended   []*models.SessionSummary
	updates int
}

func (f *fakeBus) PlaybackUpdated(*models.NormalizedSample, *models.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
}

func (f *fakeBus) SessionStarted(s *models.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, s)
}

func (f *fakeBus) SessionEnded(s *models.SessionSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ended = append(f.ended, s)
}

func (f *fakeBus) endedReasons() []models.EndReason {
	f.mu.Lock()
	defer f.mu.Unlock()
	reasons := make([]models.EndReason, len(f.ended))
	for i, e := range f.ended {
		reasons[i] = e.Reason
	}
	return reasons
}

type fakeRecorder struct {
	mu    sync.Mutex
	saves []*models.NormalizedSample
	err   error
}

func (f *fakeRecorder) SaveLastSample(s *models.NormalizedSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saves = append(f.saves, s)
	return nil
}

func newTestOrchestrator(cfg config.RelayConfig) (*Orchestrator, *fakePresence, *fakeBus, *func(time.Duration)) {
	presence := &fakePresence{}
	bus := &fakeBus{}
	o := NewOrchestrator(cfg, presence, bus, nil)

	var mu sync.Mutex
	now := time.UnixMilli(1_700_000_000_000)
	o.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}
	return o, presence, bus, &advance
}

func rawSample(title string, pos, dur float64, playing bool) *models.RawSample {
	return &models.RawSample{Title: title, Current: pos, Duration: dur, Playing: playing}
}

func TestProcessPropagates(t *testing.T) {
	o, presence, bus, _ := newTestOrchestrator(testRelayConfig())

	res := o.Process(rawSample("Dune", 30, 9000, true))
	if !res.Success || res.Cached {
		t.Fatalf("Result = %+v, want propagated success", res)
	}
	if res.Data == nil || res.Data.Title != "Dune" {
		t.Fatalf("Data = %+v, want normalized Dune sample", res.Data)
	}
	if res.Session == nil || res.Session.ID == "" {
		t.Fatalf("Session = %+v, want active session", res.Session)
	}

	got := presence.lastSet()
	if got == nil || got.Title != "Dune" || !got.Playing {
		t.Errorf("presence received %+v, want playing Dune", got)
	}
	if len(bus.started) != 1 {
		t.Errorf("SessionStarted events = %d, want 1", len(bus.started))
	}
	if bus.updates != 1 {
		t.Errorf("PlaybackUpdated events = %d, want 1", bus.updates)
	}
}

func TestProcessRejectsInvalid(t *testing.T) {
	o, presence, _, _ := newTestOrchestrator(testRelayConfig())

	res := o.Process(rawSample("", 0, 9000, true))
	if res.Success {
		t.Error("Success = true for invalid sample")
	}
	if !errors.Is(res.Err, ErrInvalidInput) {
		t.Errorf("Err = %v, want ErrInvalidInput", res.Err)
	}
	if sets, _ := presence.counts(); sets != 0 {
		t.Error("invalid sample reached the presence sink")
	}
}

func TestProcessSuppressesUnchanged(t *testing.T) {
	o, presence, _, advance := newTestOrchestrator(testRelayConfig())

	o.Process(rawSample("Dune", 30, 9000, true))
	(*advance)(2 * time.Second)

	res := o.Process(rawSample("Dune", 32, 9000, true))
	if !res.Success || !res.Cached {
		t.Fatalf("Result = %+v, want cached success", res)
	}
	if sets, _ := presence.counts(); sets != 1 {
		t.Errorf("presence sets = %d, want 1 (duplicate suppressed)", sets)
	}

	status := o.Status()
	if status.Cache.Hits != 1 || status.Cache.Misses != 1 {
		t.Errorf("cache = %+v, want 1 hit / 1 miss", status.Cache)
	}
	if status.Cache.Ratio != 0.5 {
		t.Errorf("Ratio = %v, want 0.5", status.Cache.Ratio)
	}
}

func TestProcessThrottlesRapidChanges(t *testing.T) {
	o, presence, _, advance := newTestOrchestrator(testRelayConfig())

	o.Process(rawSample("Dune", 30, 9000, true))
	(*advance)(300 * time.Millisecond)

	// A real change inside the throttle window is suppressed.
	res := o.Process(rawSample("Dune", 30, 9000, false))
	if !res.Cached {
		t.Fatalf("Result = %+v, want cached (throttled)", res)
	}

	(*advance)(time.Second)
	res = o.Process(rawSample("Dune", 30, 9000, false))
	if res.Cached {
		t.Fatalf("Result = %+v, want propagated after interval", res)
	}
	if got := presence.lastSet(); got == nil || got.Playing {
		t.Errorf("presence received %+v, want paused Dune", got)
	}
}

func TestProcessTitleChangeRollsSession(t *testing.T) {
	o, _, bus, advance := newTestOrchestrator(testRelayConfig())

	first := o.Process(rawSample("Dune", 30, 9000, true))
	(*advance)(2 * time.Second)
	second := o.Process(rawSample("Arrival", 0, 7000, true))

	if first.Session.ID == second.Session.ID {
		t.Error("session ID survived a title change")
	}
	if got := bus.endedReasons(); len(got) != 1 || got[0] != models.EndReasonTitleChange {
		t.Errorf("ended reasons = %v, want [title_change]", got)
	}
	if len(bus.started) != 2 {
		t.Errorf("SessionStarted events = %d, want 2", len(bus.started))
	}
}

func TestProcessRetainsStateOnSinkFailure(t *testing.T) {
	o, presence, _, advance := newTestOrchestrator(testRelayConfig())

	presence.failNext = errors.New("bridge gone")
	res := o.Process(rawSample("Dune", 30, 9000, true))
	if res.Success {
		t.Error("Success = true despite sink failure")
	}
	if !errors.Is(res.Err, ErrSinkUnavailable) {
		t.Errorf("Err = %v, want ErrSinkUnavailable", res.Err)
	}
	if res.Session == nil {
		t.Error("Session = nil, want session committed despite sink failure")
	}

	status := o.Status()
	if !status.Active || status.Current == nil {
		t.Error("telemetry state was rolled back on sink failure")
	}

	// Next accepted sample self-heals.
	(*advance)(2 * time.Second)
	res = o.Process(rawSample("Dune", 32, 9000, false))
	if !res.Success {
		t.Fatalf("Result = %+v, want success after sink recovery", res)
	}
	if got := presence.lastSet(); got == nil {
		t.Error("presence never recovered")
	}
}

func TestPauseResume(t *testing.T) {
	o, presence, _, _ := newTestOrchestrator(testRelayConfig())

	if err := o.Pause(); !errors.Is(err, ErrNotActive) {
		t.Errorf("Pause() with no sample = %v, want ErrNotActive", err)
	}
	if err := o.Resume(); !errors.Is(err, ErrNotActive) {
		t.Errorf("Resume() with no sample = %v, want ErrNotActive", err)
	}

	o.Process(rawSample("Dune", 30, 9000, true))

	if err := o.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if got := presence.lastSet(); got == nil || got.Playing {
		t.Errorf("presence received %+v after Pause, want paused", got)
	}
	if !o.Status().Paused {
		t.Error("Status().Paused = false after Pause")
	}

	if err := o.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if got := presence.lastSet(); got == nil || !got.Playing {
		t.Errorf("presence received %+v after Resume, want playing", got)
	}
	if o.Status().Paused {
		t.Error("Status().Paused = true after Resume")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	o, presence, bus, _ := newTestOrchestrator(testRelayConfig())

	o.Process(rawSample("Dune", 30, 9000, true))

	if err := o.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	status := o.Status()
	if status.Active || status.Current != nil || status.Session != nil {
		t.Errorf("Status after Stop = %+v, want inactive", status)
	}
	if got := bus.endedReasons(); len(got) != 1 || got[0] != models.EndReasonStop {
		t.Errorf("ended reasons = %v, want [stop]", got)
	}

	// Second Stop clears presence again but ends nothing.
	if err := o.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
	if got := bus.endedReasons(); len(got) != 1 {
		t.Errorf("ended events after second Stop = %d, want still 1", len(got))
	}
	if _, clears := presence.counts(); clears < 1 {
		t.Error("presence never cleared")
	}
}

func TestResetZeroesCacheCounters(t *testing.T) {
	o, _, _, advance := newTestOrchestrator(testRelayConfig())

	o.Process(rawSample("Dune", 30, 9000, true))
	(*advance)(2 * time.Second)
	o.Process(rawSample("Dune", 32, 9000, true)) // cached

	if err := o.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	status := o.Status()
	if status.Cache.Hits != 0 || status.Cache.Misses != 0 || status.Cache.Ratio != 0 {
		t.Errorf("cache after Reset = %+v, want zeroed", status.Cache)
	}
	if status.Active {
		t.Error("Active = true after Reset")
	}
}

func TestWatchdogTimeoutEndsSession(t *testing.T) {
	cfg := testRelayConfig()
	cfg.ThrottleInterval = time.Millisecond
	cfg.InactivityTimeout = 30 * time.Millisecond

	presence := &fakePresence{}
	bus := &fakeBus{}
	o := NewOrchestrator(cfg, presence, bus, nil)

	o.Process(rawSample("Dune", 30, 9000, true))

	deadline := time.After(time.Second)
	for {
		status := o.Status()
		if !status.Active {
			break
		}
		select {
		case <-deadline:
			t.Fatal("watchdog never tore the session down")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if got := bus.endedReasons(); len(got) != 1 || got[0] != models.EndReasonTimeout {
		t.Errorf("ended reasons = %v, want [timeout]", got)
	}
	if _, clears := presence.counts(); clears != 1 {
		t.Errorf("presence clears = %d, want 1", clears)
	}
	status := o.Status()
	if status.Current != nil || status.Paused {
		t.Errorf("Status after timeout = %+v, want cleared", status)
	}
}

func TestRecorderReceivesPropagatedSamples(t *testing.T) {
	cfg := testRelayConfig()
	presence := &fakePresence{}
	rec := &fakeRecorder{}
	o := NewOrchestrator(cfg, presence, nil, rec)

	o.Process(rawSample("Dune", 30, 9000, true))
	if len(rec.saves) != 1 || rec.saves[0].Title != "Dune" {
		t.Fatalf("recorder saves = %+v, want one Dune sample", rec.saves)
	}

	// Recorder failure is logged but does not fail the pipeline.
	rec.err = errors.New("disk full")
	o.Stop()
	res := o.Process(rawSample("Arrival", 0, 7000, true))
	if !res.Success {
		t.Errorf("Result = %+v, want success despite recorder failure", res)
	}
}

func TestSeedWarmStart(t *testing.T) {
	o, _, bus, advance := newTestOrchestrator(testRelayConfig())

	o.Seed(&models.NormalizedSample{
		Title: "Dune", PositionSec: 30, DurationSec: 9000,
		Playing: true, ObservedAtMs: 1_699_999_000_000,
	})

	status := o.Status()
	if status.Current == nil || status.Current.Title != "Dune" {
		t.Fatalf("Current = %+v, want seeded sample", status.Current)
	}
	if status.Active {
		t.Error("Active = true after Seed, want no session until a live sample")
	}

	// The first live sample reconciles against the seed: a position well
	// past the seed propagates and starts the session.
	(*advance)(2 * time.Second)
	res := o.Process(rawSample("Dune", 45, 9000, true))
	if !res.Success || res.Cached {
		t.Fatalf("Result = %+v, want propagated", res)
	}
	if len(bus.started) != 1 {
		t.Errorf("SessionStarted events = %d, want 1", len(bus.started))
	}
}
