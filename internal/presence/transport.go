// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package presence

import (
	"context"
	"errors"

	"github.com/tomtom215/spectatus/internal/models"
)

// ErrNotReady is returned by Transport calls made before the sink
// acknowledged the handshake.
var ErrNotReady = errors.New("presence transport not ready")

// Transport is one open session to the presence sink. Implementations must
// be safe for concurrent use; the connection calls in from its own lock,
// the ticker goroutine, and the read loop's close path.
type Transport interface {
	// SetActivity delivers an activity payload to the sink.
	SetActivity(ctx context.Context, activity *models.Activity) error

	// ClearActivity wipes the sink's displayed activity.
	ClearActivity(ctx context.Context) error

	// Close tears the session down. Closing suppresses the onClosed
	// callback; only unexpected drops report through it.
	Close() error
}

// Dialer opens transport sessions. Dial returns once the underlying
// session is open; onReady fires when the sink acknowledges the handshake
// and onClosed fires exactly once if the session later drops. Injecting a
// fake Dialer is how connection behavior is tested without a sink.
type Dialer interface {
	Dial(ctx context.Context, clientID string, onReady func(), onClosed func(err error)) (Transport, error)
}
