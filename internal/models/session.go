// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package models

// EndReason identifies why a viewing session ended.
type EndReason string

const (
	// EndReasonTitleChange means a sample for a different title arrived.
	EndReasonTitleChange EndReason = "title_change"

	// EndReasonStop means the session was ended by an explicit stop/reset.
	EndReasonStop EndReason = "stop"

	// EndReasonTimeout means the inactivity watchdog fired.
	EndReasonTimeout EndReason = "timeout"
)

// Session is a contiguous viewing period for one title. Exactly one session
// is active at a time; the relay mutates it in place on every accepted
// sample and discards it once ended.
type Session struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	StartedAtMs int64  `json:"started_at_ms"`
	UpdatedAtMs int64  `json:"updated_at_ms"`
	WatchedSec  int64  `json:"watched_sec"`
	PauseCount  int64  `json:"pause_count"`
	SeekCount   int64  `json:"seek_count"`
}

// Clone returns a copy of the session, used when handing session state to
// callers that must not observe later mutation.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// SessionSummary is the immutable record emitted when a session ends.
// It exists for observability only; nothing is persisted.
type SessionSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	StartedAtMs int64     `json:"started_at_ms"`
	EndedAtMs   int64     `json:"ended_at_ms"`
	WatchedSec  int64     `json:"watched_sec"`
	PauseCount  int64     `json:"pause_count"`
	SeekCount   int64     `json:"seek_count"`
	Reason      EndReason `json:"reason"`
}

// WallClockMs returns the wall-clock span of the session in milliseconds.
func (s *SessionSummary) WallClockMs() int64 {
	return s.EndedAtMs - s.StartedAtMs
}
