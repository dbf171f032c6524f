// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

// Package models defines the shared data types that cross package
// boundaries: raw and normalized playback samples, viewing sessions and
// their end-of-life summaries, rendered presence activities, and the
// status/cache reports exposed by the control plane.
//
// Types here are plain data with at most trivial derived-field methods;
// all behavior lives in the packages that own the state (internal/relay,
// internal/presence).
package models
