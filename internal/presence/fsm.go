// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package presence

// State is a presence connection lifecycle state.
type State int

const (
	// StateDisconnected means no transport session exists.
	StateDisconnected State = iota

	// StateConnecting means a dial is in flight.
	StateConnecting

	// StateConnected means the transport session is open but the sink has
	// not acknowledged the handshake yet.
	StateConnected

	// StateReady means the sink accepted the handshake and activity sends
	// are applied immediately.
	StateReady
)

// String implements fmt.Stringer for logs and status reports.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Event is a connection lifecycle input.
type Event int

const (
	// EventDial is a connect request, manual or scheduled.
	EventDial Event = iota

	// EventOpened means the transport session opened.
	EventOpened

	// EventReady means the sink acknowledged the handshake.
	EventReady

	// EventClosed means the transport dropped or errored.
	EventClosed
)

// Action is a side effect the connection must perform after a transition.
type Action int

const (
	// ActionResetAttempts zeroes the reconnect attempt counter.
	ActionResetAttempts Action = iota

	// ActionReplay re-sends the cached activity, if any.
	ActionReplay

	// ActionScheduleReconnect arms the reconnect timer if attempts remain.
	ActionScheduleReconnect

	// ActionStopTicker cancels the elapsed-time re-render ticker.
	ActionStopTicker
)

// Transition is the pure connection state machine: given the current state
// and an event it returns the next state and the side effects to perform.
// Side effects are described, never executed, so the machine is testable
// without a transport. Unlisted combinations are no-ops that keep the
// current state, which makes duplicate events (a dial while already
// connecting, a stray close while down) safe by construction.
func Transition(s State, e Event) (State, []Action) {
	switch {
	case s == StateDisconnected && e == EventDial:
		return StateConnecting, nil

	case s == StateConnecting && e == EventOpened:
		return StateConnected, nil

	case s == StateConnected && e == EventReady:
		return StateReady, []Action{ActionResetAttempts, ActionReplay}

	case e == EventClosed && s != StateDisconnected:
		return StateDisconnected, []Action{ActionStopTicker, ActionScheduleReconnect}
	}
	return s, nil
}
