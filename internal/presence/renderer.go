// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package presence

import (
	"time"

	"github.com/tomtom215/spectatus/internal/config"
	"github.com/tomtom215/spectatus/internal/models"
)

// Renderer maps normalized samples to sink activity payloads. Title parsing
// happens once per render, not per tick; the ticker path reuses the sample
// with an advanced position.
type Renderer struct {
	largeImageKey  string
	largeImageText string
}

// NewRenderer creates a renderer with the configured static art.
func NewRenderer(cfg config.PresenceConfig) *Renderer {
	return &Renderer{
		largeImageKey:  cfg.LargeImageKey,
		largeImageText: cfg.LargeImageText,
	}
}

// Render builds the activity payload for a sample at the given instant.
// Timestamps anchor the sink's elapsed/remaining countdown: start is the
// wall-clock moment playback would have begun at position zero, end is when
// it will finish. Both are omitted when paused or when duration is unknown
// so the sink shows no countdown.
func (r *Renderer) Render(sample *models.NormalizedSample, now time.Time) *models.Activity {
	parsed := ParseTitle(sample.Title)

	a := &models.Activity{
		Details:        parsed.PrimaryLine(),
		State:          parsed.DisplayLine(),
		LargeImageKey:  r.largeImageKey,
		LargeImageText: r.largeImageText,
		Type:           models.ActivityTypeWatching,
		Instance:       true,
	}

	if sample.Playing && sample.DurationSec > 0 {
		start := now.Unix() - sample.PositionSec
		a.StartTimestamp = start
		a.EndTimestamp = start + sample.DurationSec
	}

	return a
}

// Advance returns a copy of the sample with its position moved forward by
// the wall-clock time elapsed since the sample was rendered, capped at the
// duration. Used by the re-render ticker to keep the countdown honest
// between telemetry samples without re-polling the source.
func Advance(sample *models.NormalizedSample, elapsed time.Duration) *models.NormalizedSample {
	c := *sample
	c.PositionSec += int64(elapsed / time.Second)
	if c.PositionSec > c.DurationSec {
		c.PositionSec = c.DurationSec
	}
	return &c
}
