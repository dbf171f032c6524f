// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

/*
Package supervisor builds the suture v4 supervision tree for Spectatus.

The tree has a root supervisor with three child layers:

	spectatus
	├── presence-layer   (presence sink connection)
	├── messaging-layer  (WebSocket hub, event-bus forwarder)
	└── api-layer        (HTTP server)

Failures restart only the affected layer. Supervision events are logged
through sutureslog into the shared zerolog logger.
*/
package supervisor
