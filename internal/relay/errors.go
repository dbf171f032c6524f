// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package relay

import "errors"

// Error taxonomy for the reconciliation core. Validation errors are terminal
// for the call and mutate nothing; sink errors are returned after telemetry
// state has already committed, so the caller may retry by simply sending the
// next sample.
var (
	// ErrInvalidInput marks a malformed sample rejected before any state
	// mutation.
	ErrInvalidInput = errors.New("invalid sample")

	// ErrNotActive marks a pause/resume call with no current sample.
	ErrNotActive = errors.New("no active playback")

	// ErrSinkUnavailable marks a render that could not be delivered because
	// the presence connection is not ready. Session state still committed.
	ErrSinkUnavailable = errors.New("presence sink unavailable")
)
