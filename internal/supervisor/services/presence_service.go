// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package services

import (
	"context"

	"github.com/tomtom215/spectatus/internal/logging"
)

// PresenceConnection interface matches *presence.Connection's lifecycle
// methods. The connection owns its own reconnection logic, so the wrapper
// only brackets its lifetime.
type PresenceConnection interface {
	Connect(ctx context.Context) error
	Destroy()
}

// PresenceService manages the presence sink connection as a supervised
// service.
//
// An initial dial failure is not fatal here: the connection schedules its
// own bounded reconnect attempts, and once those are exhausted it stays
// down until a manual connect request arrives through the API. Returning
// the dial error would make suture restart the service and reset the
// attempt counter, which would turn the bounded retry into an unbounded
// one.
type PresenceService struct {
	conn PresenceConnection
	name string
}

// NewPresenceService creates a new presence connection service wrapper.
func NewPresenceService(conn PresenceConnection) *PresenceService {
	return &PresenceService{
		conn: conn,
		name: "presence-connection",
	}
}

// Serve implements suture.Service. It dials the sink, blocks until the
// context is canceled, then tears the connection down.
func (p *PresenceService) Serve(ctx context.Context) error {
	if err := p.conn.Connect(ctx); err != nil {
		logging.Warn().Err(err).Msg("Initial presence sink dial failed, retrying in background")
	}

	<-ctx.Done()
	p.conn.Destroy()
	return ctx.Err()
}

// String implements fmt.Stringer for logging.
func (p *PresenceService) String() string {
	return p.name
}
