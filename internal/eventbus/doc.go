// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

// Package eventbus fans relay lifecycle events out to in-process
// observers over watermill go-channels. The relay publishes fire-and-forget;
// the websocket layer subscribes and broadcasts to clients.
package eventbus
