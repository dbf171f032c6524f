// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package relay

import (
	"testing"

	"github.com/tomtom215/spectatus/internal/models"
)

func sampleAt(title string, pos int64, playing bool, atMs int64) *models.NormalizedSample {
	return &models.NormalizedSample{
		Title:        title,
		PositionSec:  pos,
		DurationSec:  3600,
		Playing:      playing,
		ObservedAtMs: atMs,
	}
}

func TestTrackerStartsSession(t *testing.T) {
	tr := NewSessionTracker(testRelayConfig())

	s, ended := tr.Update(sampleAt("Dune", 0, true, 1000))
	if ended != nil {
		t.Errorf("ended = %+v, want nil on first sample", ended)
	}
	if s == nil {
		t.Fatal("session = nil")
	}
	if s.ID == "" {
		t.Error("session ID is empty")
	}
	if s.Title != "Dune" {
		t.Errorf("Title = %q, want %q", s.Title, "Dune")
	}
	if s.StartedAtMs != 1000 {
		t.Errorf("StartedAtMs = %d, want 1000", s.StartedAtMs)
	}
	if tr.Current() != s {
		t.Error("Current() does not return the active session")
	}
}

func TestTrackerAccruesWatchTimeWhilePlaying(t *testing.T) {
	tr := NewSessionTracker(testRelayConfig())

	tr.Update(sampleAt("Dune", 0, true, 0))
	s, _ := tr.Update(sampleAt("Dune", 2, true, 2000))
	if s.WatchedSec != 2 {
		t.Errorf("WatchedSec = %d, want 2", s.WatchedSec)
	}

	// Paused ticks accrue nothing.
	s, _ = tr.Update(sampleAt("Dune", 2, false, 4000))
	if s.WatchedSec != 2 {
		t.Errorf("WatchedSec after paused tick = %d, want 2", s.WatchedSec)
	}
}

func TestTrackerCapsGapAccrual(t *testing.T) {
	tr := NewSessionTracker(testRelayConfig())

	tr.Update(sampleAt("Dune", 0, true, 0))
	// A 30s wall-clock gap contributes at most the seek threshold (5s).
	s, _ := tr.Update(sampleAt("Dune", 3, true, 30_000))
	if s.WatchedSec != 5 {
		t.Errorf("WatchedSec = %d, want capped at 5", s.WatchedSec)
	}
}

func TestTrackerCountsPauseCycles(t *testing.T) {
	tr := NewSessionTracker(testRelayConfig())

	tr.Update(sampleAt("Dune", 0, true, 0))
	tr.Update(sampleAt("Dune", 10, false, 10_000))
	s, _ := tr.Update(sampleAt("Dune", 10, true, 15_000))
	if s.PauseCount != 1 {
		t.Errorf("PauseCount = %d, want 1", s.PauseCount)
	}

	// Repeated paused samples do not add cycles.
	tr.Update(sampleAt("Dune", 12, false, 17_000))
	tr.Update(sampleAt("Dune", 12, false, 18_000))
	s, _ = tr.Update(sampleAt("Dune", 12, true, 19_000))
	if s.PauseCount != 2 {
		t.Errorf("PauseCount = %d, want 2", s.PauseCount)
	}
}

func TestTrackerCountsSeeks(t *testing.T) {
	tr := NewSessionTracker(testRelayConfig())

	tr.Update(sampleAt("Dune", 0, true, 0))
	s, _ := tr.Update(sampleAt("Dune", 300, true, 1000))
	if s.SeekCount != 1 {
		t.Errorf("SeekCount = %d, want 1", s.SeekCount)
	}

	// Natural progression is not a seek.
	s, _ = tr.Update(sampleAt("Dune", 302, true, 3000))
	if s.SeekCount != 1 {
		t.Errorf("SeekCount = %d, want still 1", s.SeekCount)
	}
}

func TestTrackerTitleChangeRollsSession(t *testing.T) {
	tr := NewSessionTracker(testRelayConfig())

	first, _ := tr.Update(sampleAt("Dune", 0, true, 0))
	tr.Update(sampleAt("Dune", 5, true, 5000))

	next, ended := tr.Update(sampleAt("Arrival", 0, true, 10_000))
	if ended == nil {
		t.Fatal("ended = nil, want summary for the rolled session")
	}
	if ended.ID != first.ID {
		t.Errorf("ended.ID = %q, want %q", ended.ID, first.ID)
	}
	if ended.Reason != models.EndReasonTitleChange {
		t.Errorf("Reason = %q, want %q", ended.Reason, models.EndReasonTitleChange)
	}
	if ended.EndedAtMs != 10_000 {
		t.Errorf("EndedAtMs = %d, want 10000", ended.EndedAtMs)
	}
	if next.ID == first.ID {
		t.Error("new session reused the old ID")
	}
	if next.Title != "Arrival" {
		t.Errorf("new Title = %q, want %q", next.Title, "Arrival")
	}
	if next.WatchedSec != 0 || next.PauseCount != 0 || next.SeekCount != 0 {
		t.Errorf("new session counters not zeroed: %+v", next)
	}
}

func TestTrackerEnd(t *testing.T) {
	tr := NewSessionTracker(testRelayConfig())

	if got := tr.End(models.EndReasonStop, 0); got != nil {
		t.Errorf("End() with no session = %+v, want nil", got)
	}

	tr.Update(sampleAt("Dune", 0, true, 0))
	tr.Update(sampleAt("Dune", 4, true, 4000))

	summary := tr.End(models.EndReasonTimeout, 64_000)
	if summary == nil {
		t.Fatal("End() = nil, want summary")
	}
	if summary.Reason != models.EndReasonTimeout {
		t.Errorf("Reason = %q, want %q", summary.Reason, models.EndReasonTimeout)
	}
	if summary.WatchedSec != 4 {
		t.Errorf("WatchedSec = %d, want 4", summary.WatchedSec)
	}
	if summary.WallClockMs() != 64_000 {
		t.Errorf("WallClockMs() = %d, want 64000", summary.WallClockMs())
	}
	if tr.Current() != nil {
		t.Error("Current() != nil after End")
	}
}
