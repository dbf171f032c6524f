// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package models

// CacheStats reports how many process calls were suppressed (hits) versus
// propagated (misses). The ratio is observability-only and never drives
// control flow.
type CacheStats struct {
	Hits   int64   `json:"hits"`
	Misses int64   `json:"misses"`
	Ratio  float64 `json:"ratio"`
}

// PresenceStatus summarizes the presence connection for status queries.
type PresenceStatus struct {
	State     string `json:"state"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error,omitempty"`
}

// StatusReport is the control-plane view of the relay returned by the
// status operation.
type StatusReport struct {
	Active       bool              `json:"active"`
	Paused       bool              `json:"paused"`
	Current      *NormalizedSample `json:"current"`
	Session      *Session          `json:"session"`
	LastUpdateMs int64             `json:"last_update_ms"`
	Cache        CacheStats        `json:"cache"`
	Presence     PresenceStatus    `json:"presence"`
}
