// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/spectatus/internal/logging"
	"github.com/tomtom215/spectatus/internal/metrics"
)

// Message types pushed to dashboard clients.
const (
	MessageTypePlayback       = "playback"
	MessageTypeSessionStarted = "session_started"
	MessageTypeSessionEnded   = "session_ended"
	MessageTypePresenceState  = "presence_state"
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
)

// Message is one frame pushed to clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub maintains the set of connected dashboard clients and broadcasts
// relay events to them. Lifecycle events take priority over broadcasts so
// client state is settled before messages flow; within a broadcast,
// clients are walked in ID order for reproducible delivery.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates an idle hub; call RunWithContext to serve it.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext serves the hub until ctx is cancelled, then closes every
// client and returns ctx.Err(). Designed to run under suture supervision.
//
// Selection is priority ordered: shutdown first, then client lifecycle,
// then broadcasts. Go's select picks randomly among ready channels, so the
// non-blocking pre-checks keep behavior predictable when several are ready
// at once.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.Unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// Broadcast queues a message for all clients. Non-blocking: if the
// broadcast buffer is full the message is dropped, never the relay.
func (h *Hub) Broadcast(messageType string, data any) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
		metrics.WebSocketBroadcasts.WithLabelValues(messageType).Inc()
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// broadcastToClients delivers one message to every client in ID order. A
// client whose send buffer is full is disconnected rather than allowed to
// stall the hub.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		metrics.WebSocketClients.Set(float64(len(h.clients)))
		logging.Warn().Int("dropped", len(toRemove)).Msg("disconnected slow websocket clients")
	}
}

// shutdown closes every client and logs the teardown. Context cancellation
// is the normal shutdown path, not an error.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	count := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WebSocketClients.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		AnErr("cause", ctx.Err()).
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
