// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package relay

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/spectatus/internal/config"
	"github.com/tomtom215/spectatus/internal/logging"
	"github.com/tomtom215/spectatus/internal/metrics"
	"github.com/tomtom215/spectatus/internal/models"
)

// SessionTracker owns the lifecycle of the single active viewing session.
// Session identity is title-stable: a sample for a different title always
// ends the current session and starts a fresh one. Not safe for concurrent
// use; the orchestrator serializes access.
type SessionTracker struct {
	seekThresholdSec int64

	current *models.Session

	// lastPlaying/lastPositionSec mirror the previous accepted sample so
	// pause edges and seeks can be counted without re-reading the sample.
	lastPlaying     bool
	lastPositionSec int64
}

// NewSessionTracker creates a tracker from relay configuration.
func NewSessionTracker(cfg config.RelayConfig) *SessionTracker {
	return &SessionTracker{
		seekThresholdSec: int64(cfg.SeekThreshold / time.Second),
	}
}

// Current returns the active session, or nil.
func (t *SessionTracker) Current() *models.Session {
	return t.current
}

// Update applies an accepted sample to the session state. If the title
// changed, the old session is ended and its summary returned alongside the
// newly created session.
func (t *SessionTracker) Update(sample *models.NormalizedSample) (*models.Session, *models.SessionSummary) {
	nowMs := sample.ObservedAtMs

	var ended *models.SessionSummary
	if t.current != nil && t.current.Title != sample.Title {
		ended = t.End(models.EndReasonTitleChange, nowMs)
	}

	if t.current == nil {
		t.current = t.start(sample, nowMs)
		t.lastPlaying = sample.Playing
		t.lastPositionSec = sample.PositionSec
		return t.current, ended
	}

	s := t.current

	// Watch time accrues only while playing, and any single gap contributes
	// at most the seek threshold so a resumed tab or clock jump cannot
	// inflate totals.
	if sample.Playing {
		elapsedSec := (nowMs - s.UpdatedAtMs) / 1000
		if elapsedSec < 0 {
			elapsedSec = 0
		}
		if elapsedSec > t.seekThresholdSec {
			elapsedSec = t.seekThresholdSec
		}
		s.WatchedSec += elapsedSec
		metrics.WatchSecondsAccrued.Add(float64(elapsedSec))
	}

	// A play edge coming out of pause counts one pause/resume cycle.
	if sample.Playing && !t.lastPlaying {
		s.PauseCount++
	}

	if abs64(sample.PositionSec-t.lastPositionSec) > t.seekThresholdSec {
		s.SeekCount++
	}

	s.UpdatedAtMs = nowMs
	t.lastPlaying = sample.Playing
	t.lastPositionSec = sample.PositionSec
	return s, ended
}

// End terminates the active session and returns its immutable summary, or
// nil when no session is active. Ending is terminal for the instance; the
// tracker holds no session afterwards.
func (t *SessionTracker) End(reason models.EndReason, nowMs int64) *models.SessionSummary {
	if t.current == nil {
		return nil
	}
	s := t.current
	t.current = nil

	summary := &models.SessionSummary{
		ID:          s.ID,
		Title:       s.Title,
		StartedAtMs: s.StartedAtMs,
		EndedAtMs:   nowMs,
		WatchedSec:  s.WatchedSec,
		PauseCount:  s.PauseCount,
		SeekCount:   s.SeekCount,
		Reason:      reason,
	}

	metrics.SessionsEnded.WithLabelValues(string(reason)).Inc()
	logging.Info().
		Str("session_id", summary.ID).
		Str("title", summary.Title).
		Int64("watched_sec", summary.WatchedSec).
		Int64("pause_count", summary.PauseCount).
		Int64("seek_count", summary.SeekCount).
		Int64("wall_clock_ms", summary.WallClockMs()).
		Str("reason", string(reason)).
		Msg("session ended")

	return summary
}

// start creates a fresh session for the sample's title.
func (t *SessionTracker) start(sample *models.NormalizedSample, nowMs int64) *models.Session {
	s := &models.Session{
		ID:          uuid.NewString(),
		Title:       sample.Title,
		StartedAtMs: nowMs,
		UpdatedAtMs: nowMs,
	}
	metrics.SessionsStarted.Inc()
	logging.Info().
		Str("session_id", s.ID).
		Str("title", s.Title).
		Msg("session started")
	return s
}
