// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package models

// ActivityType is the presence sink's activity category.
type ActivityType int

// The sink models a handful of activity categories; the relay only ever
// publishes "watching".
const (
	ActivityTypePlaying   ActivityType = 0
	ActivityTypeListening ActivityType = 2
	ActivityTypeWatching  ActivityType = 3
)

// Activity is the rendered payload sent to the presence sink. Timestamps
// are epoch seconds and are omitted entirely for paused or zero-duration
// items so the sink shows no countdown.
type Activity struct {
	Details        string       `json:"details"`
	State          string       `json:"state,omitempty"`
	LargeImageKey  string       `json:"largeImageKey"`
	LargeImageText string       `json:"largeImageText"`
	Type           ActivityType `json:"type"`
	Instance       bool         `json:"instance"`
	StartTimestamp int64        `json:"startTimestamp,omitempty"`
	EndTimestamp   int64        `json:"endTimestamp,omitempty"`
}

// HasCountdown reports whether the activity carries elapsed/remaining
// timestamps.
func (a *Activity) HasCountdown() bool {
	return a.StartTimestamp != 0 && a.EndTimestamp != 0
}

// Clone returns a copy so a cached activity can be mutated (ticker
// re-render) without racing readers.
func (a *Activity) Clone() *Activity {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
