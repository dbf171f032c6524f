// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/spectatus/internal/config"
)

// NewRouter assembles the HTTP surface: the telemetry ingest endpoint, the
// playback control plane, status, the websocket upgrade, and the
// operational endpoints.
func NewRouter(h *Handler, cfg config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", h.WebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(PrometheusMetrics)

		// The browser extension fires on every playback tick; the relay
		// dedupes semantically, the limiter just stops floods.
		r.With(httprate.Limit(
			cfg.RateLimitReqs,
			cfg.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		)).Post("/playback", h.Update)

		r.Post("/playback/pause", h.Pause)
		r.Post("/playback/resume", h.Resume)
		r.Post("/playback/stop", h.Stop)
		r.Post("/playback/reset", h.Reset)
		r.Get("/status", h.Status)
		r.Post("/presence/connect", h.PresenceConnect)
	})

	return r
}
