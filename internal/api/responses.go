// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package api

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/spectatus/internal/logging"
)

// Response is the envelope returned by every relay endpoint.
type Response struct {
	Success bool   `json:"success"`
	Cached  bool   `json:"cached,omitempty"`
	Data    any    `json:"data,omitempty"`
	Session any    `json:"session,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug().Err(err).Msg("write response body")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: false, Error: message})
}
