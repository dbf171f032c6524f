// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Spectatus server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Relay    RelayConfig    `koanf:"relay"`
	Presence PresenceConfig `koanf:"presence"`
	Store    StoreConfig    `koanf:"store"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP ingest server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed origins for the browser extension.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs/RateLimitWindow bound the ingest endpoint per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// RelayConfig tunes the presence reconciliation core.
type RelayConfig struct {
	// MinDuration rejects samples for items shorter than this; trailers
	// and ad bumpers never reach the session tracker.
	MinDuration time.Duration `koanf:"min_duration"`

	// SeekThreshold is the position delta treated as a seek. It also caps
	// per-tick watch-time accrual so clock gaps cannot inflate totals.
	SeekThreshold time.Duration `koanf:"seek_threshold"`

	// ThrottleInterval is the minimum spacing between propagated updates.
	// Deliberately a separate knob from SeekThreshold.
	ThrottleInterval time.Duration `koanf:"throttle_interval"`

	// InactivityTimeout is the watchdog window; with no accepted sample
	// for this long the session ends and presence clears.
	InactivityTimeout time.Duration `koanf:"inactivity_timeout"`

	// MaxTitleLength bounds normalized titles.
	MaxTitleLength int `koanf:"max_title_length"`
}

// PresenceConfig holds presence sink connection settings.
type PresenceConfig struct {
	// ClientID identifies this application to the presence sink.
	ClientID string `koanf:"client_id"`

	// BridgeURL is the websocket endpoint of the local presence RPC bridge.
	BridgeURL string `koanf:"bridge_url"`

	MaxReconnectAttempts int           `koanf:"max_reconnect_attempts"`
	ReconnectDelay       time.Duration `koanf:"reconnect_delay"`

	// TickInterval is the cadence of elapsed-time re-renders while playing.
	TickInterval time.Duration `koanf:"tick_interval"`

	// LargeImageKey/LargeImageText are the static art shown on the activity.
	LargeImageKey  string `koanf:"large_image_key"`
	LargeImageText string `koanf:"large_image_text"`
}

// StoreConfig holds warm-start store settings.
type StoreConfig struct {
	// Enabled toggles the badger-backed last-sample cache.
	Enabled bool `koanf:"enabled"`

	// Path is the badger data directory. Ignored when InMemory is true.
	Path string `koanf:"path"`

	// InMemory runs badger without disk persistence (tests, ephemeral runs).
	InMemory bool `koanf:"in_memory"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would misbehave at
// runtime. It is called by LoadWithKoanf after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Relay.MinDuration < 0 {
		return fmt.Errorf("relay.min_duration must not be negative, got %s", c.Relay.MinDuration)
	}
	if c.Relay.SeekThreshold <= 0 {
		return fmt.Errorf("relay.seek_threshold must be positive, got %s", c.Relay.SeekThreshold)
	}
	if c.Relay.ThrottleInterval <= 0 {
		return fmt.Errorf("relay.throttle_interval must be positive, got %s", c.Relay.ThrottleInterval)
	}
	if c.Relay.InactivityTimeout <= c.Relay.ThrottleInterval {
		return fmt.Errorf("relay.inactivity_timeout (%s) must exceed relay.throttle_interval (%s)",
			c.Relay.InactivityTimeout, c.Relay.ThrottleInterval)
	}
	if c.Relay.MaxTitleLength <= 0 {
		return fmt.Errorf("relay.max_title_length must be positive, got %d", c.Relay.MaxTitleLength)
	}
	if c.Presence.MaxReconnectAttempts < 0 {
		return fmt.Errorf("presence.max_reconnect_attempts must not be negative, got %d",
			c.Presence.MaxReconnectAttempts)
	}
	if c.Presence.ReconnectDelay <= 0 {
		return fmt.Errorf("presence.reconnect_delay must be positive, got %s", c.Presence.ReconnectDelay)
	}
	if c.Presence.TickInterval <= 0 {
		return fmt.Errorf("presence.tick_interval must be positive, got %s", c.Presence.TickInterval)
	}
	if c.Store.Enabled && !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required when the store is enabled on disk")
	}
	return nil
}
