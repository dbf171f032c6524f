// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package relay

import (
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/spectatus/internal/config"
	"github.com/tomtom215/spectatus/internal/models"
	"github.com/tomtom215/spectatus/internal/validation"
)

// Normalizer validates and canonicalizes raw playback samples. It is a pure
// function over (sample, now); it holds configuration but no state.
type Normalizer struct {
	minDurationSec int64
	maxTitleLen    int
}

// NewNormalizer creates a Normalizer from relay configuration.
func NewNormalizer(cfg config.RelayConfig) *Normalizer {
	return &Normalizer{
		minDurationSec: int64(cfg.MinDuration / time.Second),
		maxTitleLen:    cfg.MaxTitleLength,
	}
}

// Normalize validates raw against the sample contract and returns its
// canonical form. All failures wrap ErrInvalidInput; no partial results
// are returned.
func (n *Normalizer) Normalize(raw *models.RawSample, now time.Time) (*models.NormalizedSample, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil sample", ErrInvalidInput)
	}
	if err := validation.ValidateStruct(raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	if math.IsNaN(raw.Current) || math.IsInf(raw.Current, 0) ||
		math.IsNaN(raw.Duration) || math.IsInf(raw.Duration, 0) {
		return nil, fmt.Errorf("%w: non-finite position or duration", ErrInvalidInput)
	}

	durationSec := clampSeconds(raw.Duration)
	if durationSec < n.minDurationSec {
		return nil, fmt.Errorf("%w: duration %ds below minimum %ds",
			ErrInvalidInput, durationSec, n.minDurationSec)
	}

	title := raw.Title
	if runes := []rune(title); len(runes) > n.maxTitleLen {
		// Truncate on rune boundaries; titles may carry multi-byte scripts.
		title = string(runes[:n.maxTitleLen])
	}

	observedAt := raw.Timestamp
	if observedAt == 0 {
		observedAt = now.UnixMilli()
	}

	return &models.NormalizedSample{
		Title:        title,
		PositionSec:  clampSeconds(raw.Current),
		DurationSec:  durationSec,
		Playing:      raw.Playing,
		ObservedAtMs: observedAt,
	}, nil
}

// clampSeconds floors a fractional second count to a non-negative integer.
func clampSeconds(v float64) int64 {
	if v <= 0 {
		return 0
	}
	return int64(math.Floor(v))
}
