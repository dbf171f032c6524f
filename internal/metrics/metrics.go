// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the relay pipeline:
// - Sample ingestion outcomes and dedup cache efficiency
// - Session lifecycle and watch-time accrual
// - Presence connection state, reconnects, and sink failures
// - WebSocket fan-out and API surface

var (
	// Relay Metrics
	SamplesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_samples_processed_total",
			Help: "Total playback samples handled by the relay, by outcome",
		},
		[]string{"outcome"}, // "propagated", "cached", "invalid", "sink_error"
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_cache_hits_total",
			Help: "Total process calls suppressed as duplicates",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_cache_misses_total",
			Help: "Total process calls that propagated an update",
		},
	)

	WatchdogFires = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_watchdog_fires_total",
			Help: "Total inactivity watchdog expirations",
		},
	)

	// Session Metrics
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_sessions_started_total",
			Help: "Total viewing sessions created",
		},
	)

	SessionsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_sessions_ended_total",
			Help: "Total viewing sessions ended, by reason",
		},
		[]string{"reason"}, // "title_change", "stop", "timeout"
	)

	WatchSecondsAccrued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_watch_seconds_total",
			Help: "Total watch-time seconds accrued across all sessions",
		},
	)

	// Presence Connection Metrics
	PresenceState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_connection_state",
			Help: "Presence connection state (0=disconnected, 1=connecting, 2=connected, 3=ready)",
		},
	)

	PresenceReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_reconnect_attempts_total",
			Help: "Total automatic reconnect attempts to the presence sink",
		},
	)

	PresenceSendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_send_errors_total",
			Help: "Total failed activity sends to the presence sink",
		},
	)

	PresenceActivitiesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_activities_sent_total",
			Help: "Total activity updates delivered to the presence sink, by kind",
		},
		[]string{"kind"}, // "update", "tick", "replay", "clear"
	)

	// Circuit Breaker Metrics
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	BreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total requests through circuit breakers, by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Event Bus Metrics
	BusEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_events_published_total",
			Help: "Total events published to the in-process bus, by topic",
		},
		[]string{"topic"},
	)

	// WebSocket Metrics
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connected_clients",
			Help: "Current number of connected WebSocket clients",
		},
	)

	WebSocketBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_broadcasts_total",
			Help: "Total messages broadcast to WebSocket clients, by type",
		},
		[]string{"type"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	// Warm-start Store Metrics
	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_writes_total",
			Help: "Total warm-start store writes, by result",
		},
		[]string{"result"}, // "success", "failure"
	)
)

// ObserveCacheRatio mirrors the orchestrator's cache counters into the
// prometheus counters. The orchestrator remains the source of truth for
// the status() ratio; these exist for dashboards only.
func ObserveCacheRatio(hit bool) {
	if hit {
		CacheHits.Inc()
		SamplesProcessed.WithLabelValues("cached").Inc()
		return
	}
	CacheMisses.Inc()
	SamplesProcessed.WithLabelValues("propagated").Inc()
}
