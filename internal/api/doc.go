// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

// Package api exposes the relay over HTTP using chi: telemetry ingest,
// playback control operations, status, the websocket upgrade, and the
// health and metrics endpoints.
package api
