// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

// Package presence drives the link to the presence sink. A pure state
// machine (fsm.go) models the connection lifecycle, Connection executes it
// against a pluggable Transport, and the renderer/parser pair turns
// normalized samples into the sink's activity payloads. The production
// transport speaks websocket to a local RPC bridge behind a circuit
// breaker.
package presence
