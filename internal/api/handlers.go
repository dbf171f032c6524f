// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package api

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
	gorillaws "github.com/gorilla/websocket"

	"github.com/tomtom215/spectatus/internal/config"
	"github.com/tomtom215/spectatus/internal/logging"
	"github.com/tomtom215/spectatus/internal/models"
	"github.com/tomtom215/spectatus/internal/relay"
	"github.com/tomtom215/spectatus/internal/websocket"
)

// Relay is the orchestrator surface the API drives.
type Relay interface {
	Process(raw *models.RawSample) relay.Result
	Pause() error
	Resume() error
	Stop() error
	Reset() error
	Status() models.StatusReport
}

// Handler serves the relay HTTP surface.
type Handler struct {
	relay    Relay
	connect  func(r *http.Request) error
	hub      *websocket.Hub
	cfg      config.ServerConfig
	upgrader gorillaws.Upgrader
}

// NewHandler wires the endpoint handlers. connect performs a manual
// presence connect and may be nil when the sink is disabled.
func NewHandler(rl Relay, connect func(r *http.Request) error, hub *websocket.Hub, cfg config.ServerConfig) *Handler {
	h := &Handler{
		relay:   rl,
		connect: connect,
		hub:     hub,
		cfg:     cfg,
	}
	h.upgrader = gorillaws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkWebSocketOrigin,
	}
	return h
}

// Update is POST /api/v1/playback: one raw telemetry sample in, the relay
// result out.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var raw models.RawSample
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid: malformed JSON body")
		return
	}

	res := h.relay.Process(&raw)
	switch {
	case res.Err != nil && errors.Is(res.Err, relay.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, res.Err.Error())
	case res.Err != nil:
		// Telemetry committed but presence delivery failed; the session
		// still rides along so the caller sees what was recorded.
		writeJSON(w, http.StatusBadGateway, Response{
			Success: false,
			Data:    res.Data,
			Session: res.Session,
			Error:   res.Err.Error(),
		})
	default:
		writeJSON(w, http.StatusOK, Response{
			Success: true,
			Cached:  res.Cached,
			Data:    res.Data,
			Session: res.Session,
		})
	}
}

// Pause is POST /api/v1/playback/pause.
func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	h.control(w, h.relay.Pause)
}

// Resume is POST /api/v1/playback/resume.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	h.control(w, h.relay.Resume)
}

// Stop is POST /api/v1/playback/stop.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	h.control(w, h.relay.Stop)
}

// Reset is POST /api/v1/playback/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.control(w, h.relay.Reset)
}

func (h *Handler) control(w http.ResponseWriter, op func() error) {
	if err := op(); err != nil {
		if errors.Is(err, relay.ErrNotActive) {
			writeError(w, http.StatusConflict, "no_active")
			return
		}
		writeJSON(w, http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true})
}

// Status is GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: h.relay.Status()})
}

// PresenceConnect is POST /api/v1/presence/connect: a manual connect that
// resets the reconnect attempt counter and replays the cached activity.
func (h *Handler) PresenceConnect(w http.ResponseWriter, r *http.Request) {
	if h.connect == nil {
		writeError(w, http.StatusNotImplemented, "presence sink disabled")
		return
	}
	if err := h.connect(r); err != nil {
		writeJSON(w, http.StatusBadGateway, Response{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true})
}

// Health is GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// WebSocket is GET /ws: upgrades the connection and hands it to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.hub.Register <- client
	client.Start()
}

// checkWebSocketOrigin allows same-host requests and any configured CORS
// origin. An empty Origin header (non-browser client) is allowed.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
