// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

// Package store persists the last propagated playback sample across
// restarts so the relay can warm-start instead of waiting for the next
// telemetry tick.
package store
