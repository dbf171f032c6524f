// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

// Package relay implements the reconciliation core: sample normalization,
// semantic change detection with send throttling, session tracking, the
// inactivity watchdog, and the orchestrator that binds them to the presence
// sink. The orchestrator is the only stateful entry point; everything else
// in the package is a small single-purpose component it composes.
package relay
