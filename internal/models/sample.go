// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package models

// RawSample is a playback telemetry sample as reported by the browser
// extension. Position and duration arrive as floating-point seconds because
// HTML media elements report fractional times; timestamp is optional and
// defaults to the server clock during normalization.
type RawSample struct {
	Title     string  `json:"title" validate:"required"`
	Current   float64 `json:"current" validate:"gte=0"`
	Duration  float64 `json:"duration" validate:"gte=0"`
	Playing   bool    `json:"playing"`
	Timestamp int64   `json:"timestamp,omitempty" validate:"gte=0"`
}

// NormalizedSample is the canonical, bounded form of a playback sample.
// Position and duration are whole non-negative seconds, the title is
// truncated to the configured maximum, and ObservedAtMs is always set.
type NormalizedSample struct {
	Title        string `json:"title"`
	PositionSec  int64  `json:"position_sec"`
	DurationSec  int64  `json:"duration_sec"`
	Playing      bool   `json:"playing"`
	ObservedAtMs int64  `json:"observed_at_ms"`
}

// Percent returns the playback position as a whole percentage of duration.
func (s *NormalizedSample) Percent() int64 {
	if s.DurationSec <= 0 {
		return 0
	}
	return s.PositionSec * 100 / s.DurationSec
}

// RemainingSec returns the seconds of playback left, never negative.
func (s *NormalizedSample) RemainingSec() int64 {
	if s.PositionSec >= s.DurationSec {
		return 0
	}
	return s.DurationSec - s.PositionSec
}
