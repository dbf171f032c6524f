// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package services

import (
	"context"
)

// ContextForwarder interface matches *websocket.Forwarder's RunWithContext
// method. Satisfied by the event-bus to WebSocket forwarder.
type ContextForwarder interface {
	RunWithContext(ctx context.Context) error
}

// ForwarderService wraps the event-bus forwarder as a supervised service.
//
// The forwarder subscribes to the in-process event bus and relays
// envelopes to the WebSocket hub. If the initial subscriptions fail,
// Serve returns an error and suture restarts the service, which
// re-subscribes from scratch.
type ForwarderService struct {
	forwarder ContextForwarder
	name      string
}

// NewForwarderService creates a new forwarder service wrapper.
func NewForwarderService(forwarder ContextForwarder) *ForwarderService {
	return &ForwarderService{
		forwarder: forwarder,
		name:      "eventbus-forwarder",
	}
}

// Serve implements suture.Service.
func (f *ForwarderService) Serve(ctx context.Context) error {
	return f.forwarder.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
func (f *ForwarderService) String() string {
	return f.name
}
