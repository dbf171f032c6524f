// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

// Package websocket pushes relay events to dashboard clients. The hub owns
// the client set and broadcast loop, clients pump frames over gorilla
// websocket connections, and the forwarder feeds the hub from the event
// bus. The HTTP upgrade endpoint lives in the api package.
package websocket
