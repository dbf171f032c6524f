// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

// Package config loads and validates Spectatus configuration via Koanf v2
// with layered sources: built-in defaults, an optional YAML file, and
// environment variables (highest priority). See LoadWithKoanf.
package config
