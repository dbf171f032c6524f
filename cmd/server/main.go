// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

// Package main is the entry point for the Spectatus server.
//
// Spectatus relays "now playing" media telemetry from a browser extension
// to a local presence-display sink. A small HTTP API ingests playback
// samples, a reconciliation core decides which updates are worth showing,
// and a websocket bridge keeps the rendered activity on the sink in sync
// with what the viewer is actually watching.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Store: Open the BadgerDB last-sample cache and warm-start the relay
//  3. Event bus: In-process Watermill pub/sub for playback and session events
//  4. Presence: Dial the local presence sink over its websocket RPC bridge
//  5. Relay: Wire the reconciliation core to presence, bus, and store
//  6. WebSocket Hub: Real-time event feed for dashboard clients
//  7. HTTP Server: Ingest, control, and status endpoints under /api/v1
//
// All long-running components run under a suture supervision tree with
// presence, messaging, and API layers restarted independently.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): mapped environment variables, an optional YAML config
// file (CONFIG_PATH or config.yaml), then built-in defaults. Example:
//
//	export PRESENCE_CLIENT_ID=1234567890
//	export HTTP_PORT=3945
//	./spectatus
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the HTTP
// server drains in-flight requests, the presence connection clears its
// activity transport, and the store is flushed and closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/spectatus/internal/api"
	"github.com/tomtom215/spectatus/internal/config"
	"github.com/tomtom215/spectatus/internal/eventbus"
	"github.com/tomtom215/spectatus/internal/logging"
	"github.com/tomtom215/spectatus/internal/presence"
	"github.com/tomtom215/spectatus/internal/relay"
	"github.com/tomtom215/spectatus/internal/store"
	"github.com/tomtom215/spectatus/internal/supervisor"
	"github.com/tomtom215/spectatus/internal/supervisor/services"
	ws "github.com/tomtom215/spectatus/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Spectatus with supervisor tree")
	logging.Info().
		Str("bridge_url", cfg.Presence.BridgeURL).
		Str("client_id", cfg.Presence.ClientID).
		Bool("store_enabled", cfg.Store.Enabled).
		Msg("Configuration loaded")

	// Open the warm-start store if enabled. A store failure is not fatal:
	// the relay runs fine without persistence, it just starts cold.
	var recorder relay.Recorder
	var sampleStore *store.Store
	if cfg.Store.Enabled {
		sampleStore, err = store.Open(cfg.Store)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to open sample store, running without warm start")
		} else {
			recorder = sampleStore
			defer func() {
				if err := sampleStore.Close(); err != nil {
					logging.Error().Err(err).Msg("Error closing sample store")
				}
			}()
			logging.Info().Str("path", cfg.Store.Path).Msg("Sample store opened")
		}
	} else {
		logging.Info().Msg("Sample store disabled")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// In-process event bus feeding the websocket forwarder
	bus := eventbus.New(func() int64 { return time.Now().UnixMilli() })
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	// Presence sink connection. State changes are published on the bus so
	// dashboard clients see connecting/connected/ready transitions live.
	conn := presence.NewConnection(cfg.Presence, presence.NewBridgeDialer(cfg.Presence), func(state string) {
		bus.PresenceState(state)
	})

	// Reconciliation core
	orchestrator := relay.NewOrchestrator(cfg.Relay, conn, bus, recorder)

	// Warm start: seed the relay with the last persisted sample so the
	// first live sample after a restart reconciles instead of flapping.
	if sampleStore != nil {
		if last, err := sampleStore.LoadLastSample(); err == nil {
			orchestrator.Seed(last)
			logging.Info().Str("title", last.Title).Msg("Relay seeded from persisted sample")
		} else if !errors.Is(err, store.ErrNotFound) {
			logging.Warn().Err(err).Msg("Failed to load persisted sample")
		}
	}

	// WebSocket hub and bus-to-hub forwarder
	wsHub := ws.NewHub()
	forwarder := ws.NewForwarder(bus, wsHub)

	// HTTP API
	handler := api.NewHandler(orchestrator, func(r *http.Request) error {
		return conn.Connect(r.Context())
	}, wsHub, cfg.Server)
	router := api.NewRouter(handler, cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Structured logger for supervisor using our slog adapter.
	// This bridges zerolog to slog for sutureslog compatibility.
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddPresenceService(services.NewPresenceService(conn))
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(services.NewForwarderService(forwarder))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("Services added to supervisor tree")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
