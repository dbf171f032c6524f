// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package presence

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/spectatus/internal/config"
	"github.com/tomtom215/spectatus/internal/logging"
	"github.com/tomtom215/spectatus/internal/models"
)

const (
	bridgeHandshakeTimeout = 5 * time.Second
	bridgeWriteTimeout     = 10 * time.Second
	bridgeReadLimit        = 64 * 1024

	cmdSetActivity = "SET_ACTIVITY"
	evtReady       = "READY"
	evtError       = "ERROR"
)

// frame is the wire envelope of the local RPC bridge. Commands carry a
// nonce for correlation; events carry an evt tag.
type frame struct {
	Cmd   string          `json:"cmd,omitempty"`
	Args  json.RawMessage `json:"args,omitempty"`
	Evt   string          `json:"evt,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Nonce string          `json:"nonce,omitempty"`
}

// setActivityArgs is the SET_ACTIVITY argument payload. A nil activity
// clears the displayed state.
type setActivityArgs struct {
	PID      int              `json:"pid"`
	Activity *models.Activity `json:"activity"`
}

// BridgeDialer dials the local presence RPC bridge over websocket.
type BridgeDialer struct {
	cfg config.PresenceConfig
}

// NewBridgeDialer creates a Dialer for the configured bridge endpoint.
func NewBridgeDialer(cfg config.PresenceConfig) *BridgeDialer {
	return &BridgeDialer{cfg: cfg}
}

// Dial opens a websocket session to the bridge and starts its read loop.
// The bridge announces READY once it has registered the client id; until
// then SetActivity calls fail with ErrNotReady.
func (d *BridgeDialer) Dial(ctx context.Context, clientID string, onReady func(), onClosed func(err error)) (Transport, error) {
	u, err := url.Parse(d.cfg.BridgeURL)
	if err != nil {
		return nil, fmt.Errorf("parse bridge url: %w", err)
	}
	q := u.Query()
	q.Set("v", "1")
	q.Set("client_id", clientID)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: bridgeHandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial bridge: %w", err)
	}
	conn.SetReadLimit(bridgeReadLimit)

	t := &bridgeTransport{
		conn:     conn,
		onReady:  onReady,
		onClosed: onClosed,
	}
	go t.readLoop()

	return t, nil
}

// bridgeTransport is one live websocket session to the bridge. Writes are
// serialized by writeMu; gorilla connections allow one concurrent writer.
type bridgeTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	onReady  func()
	onClosed func(err error)

	closeMu sync.Mutex
	closed  bool
}

// readLoop consumes bridge events until the session drops. Command acks
// are fire-and-forget; errors are logged but only a dead socket ends the
// session.
func (t *bridgeTransport) readLoop() {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.reportClosed(err)
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			logging.Warn().Err(err).Msg("bridge sent undecodable frame")
			continue
		}

		switch f.Evt {
		case evtReady:
			logging.Debug().Msg("bridge handshake acknowledged")
			t.onReady()
		case evtError:
			logging.Warn().
				Str("cmd", f.Cmd).
				Str("nonce", f.Nonce).
				RawJSON("data", f.Data).
				Msg("bridge rejected command")
		}
	}
}

// SetActivity sends a SET_ACTIVITY command with the payload.
func (t *bridgeTransport) SetActivity(ctx context.Context, activity *models.Activity) error {
	return t.send(ctx, activity)
}

// ClearActivity sends a SET_ACTIVITY command with a nil activity, which
// the bridge treats as a wipe.
func (t *bridgeTransport) ClearActivity(ctx context.Context) error {
	return t.send(ctx, nil)
}

func (t *bridgeTransport) send(ctx context.Context, activity *models.Activity) error {
	args, err := json.Marshal(setActivityArgs{PID: os.Getpid(), Activity: activity})
	if err != nil {
		return fmt.Errorf("marshal activity args: %w", err)
	}
	payload, err := json.Marshal(frame{
		Cmd:   cmdSetActivity,
		Args:  args,
		Nonce: uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	deadline := time.Now().Add(bridgeWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Close tears the session down without signaling onClosed.
func (t *bridgeTransport) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	t.writeMu.Lock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	t.writeMu.Unlock()

	return t.conn.Close()
}

// reportClosed invokes onClosed unless the teardown was deliberate.
func (t *bridgeTransport) reportClosed(err error) {
	t.closeMu.Lock()
	closed := t.closed
	t.closeMu.Unlock()
	if closed {
		return
	}
	t.onClosed(err)
}
