// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package websocket

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/spectatus/internal/eventbus"
	"github.com/tomtom215/spectatus/internal/logging"
)

// topicMessageTypes maps bus topics to the client-facing message types.
var topicMessageTypes = map[string]string{
	eventbus.TopicPlaybackUpdated: MessageTypePlayback,
	eventbus.TopicSessionStarted:  MessageTypeSessionStarted,
	eventbus.TopicSessionEnded:    MessageTypeSessionEnded,
	eventbus.TopicPresenceState:   MessageTypePresenceState,
}

// Forwarder bridges the event bus to the websocket hub: every relay event
// published on the bus becomes a broadcast to dashboard clients.
type Forwarder struct {
	bus *eventbus.Bus
	hub *Hub
}

// NewForwarder creates a forwarder between bus and hub.
func NewForwarder(bus *eventbus.Bus, hub *Hub) *Forwarder {
	return &Forwarder{bus: bus, hub: hub}
}

// RunWithContext subscribes to all relay topics and forwards until ctx is
// cancelled. Designed to run under suture supervision; a subscribe failure
// returns an error so the supervisor restarts the service.
func (f *Forwarder) RunWithContext(ctx context.Context) error {
	for topic, messageType := range topicMessageTypes {
		ch, err := f.bus.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("forwarder subscribe %s: %w", topic, err)
		}
		go f.forward(messageType, ch)
	}

	<-ctx.Done()
	return ctx.Err()
}

// forward drains one subscription into the hub. The channel closes when
// the subscription context ends or the bus shuts down.
func (f *Forwarder) forward(messageType string, ch <-chan *message.Message) {
	for msg := range ch {
		var env eventbus.Envelope
		if err := json.Unmarshal(msg.Payload, &env); err != nil {
			logging.Warn().Err(err).Str("message_type", messageType).Msg("undecodable bus event")
			msg.Ack()
			continue
		}
		f.hub.Broadcast(messageType, env.Data)
		msg.Ack()
	}
}
