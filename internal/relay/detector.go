// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package relay

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/spectatus/internal/config"
	"github.com/tomtom215/spectatus/internal/models"
)

// ChangeDetector decides whether a normalized sample is worth propagating.
// Semantic change rules come first; a token-bucket limiter then caps the
// propagation rate at one update per throttle interval. Suppressed samples
// never consume a token, so the throttle only counts propagated updates.
type ChangeDetector struct {
	seekThresholdSec int64
	limiter          *rate.Limiter
}

// NewChangeDetector creates a detector from relay configuration.
func NewChangeDetector(cfg config.RelayConfig) *ChangeDetector {
	return &ChangeDetector{
		seekThresholdSec: int64(cfg.SeekThreshold / time.Second),
		limiter:          rate.NewLimiter(rate.Every(cfg.ThrottleInterval), 1),
	}
}

// Changed reports whether next differs from previous in a way the presence
// sink should see. Pure; evaluates the rules in order:
//
//  1. no previous sample always counts as changed
//  2. title differs
//  3. playing flag differs
//  4. position moved more than the seek threshold
func (d *ChangeDetector) Changed(previous, next *models.NormalizedSample) bool {
	if previous == nil {
		return true
	}
	if previous.Title != next.Title {
		return true
	}
	if previous.Playing != next.Playing {
		return true
	}
	if abs64(next.PositionSec-previous.PositionSec) > d.seekThresholdSec {
		return true
	}
	return false
}

// ShouldPropagate combines the change rules with the throttle. The limiter
// is consulted (and its token consumed) only for changed samples, evaluated
// at the supplied instant so tests can drive it deterministically.
func (d *ChangeDetector) ShouldPropagate(previous, next *models.NormalizedSample, now time.Time) bool {
	if !d.Changed(previous, next) {
		return false
	}
	return d.limiter.AllowN(now, 1)
}

// IsSeek reports whether the position delta between two samples of the same
// title exceeds the seek threshold. Used by the session tracker for seek
// counting; the same threshold bounds per-tick watch-time accrual.
func (d *ChangeDetector) IsSeek(previous, next *models.NormalizedSample) bool {
	if previous == nil || previous.Title != next.Title {
		return false
	}
	return abs64(next.PositionSec-previous.PositionSec) > d.seekThresholdSec
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
