// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package eventbus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/spectatus/internal/logging"
	"github.com/tomtom215/spectatus/internal/metrics"
	"github.com/tomtom215/spectatus/internal/models"
)

// Topics carried by the bus. Subscribers pick the slice they care about;
// the websocket forwarder subscribes to all of them.
const (
	TopicPlaybackUpdated = "playback.updated"
	TopicSessionStarted  = "session.started"
	TopicSessionEnded    = "session.ended"
	TopicPresenceState   = "presence.state"
)

// Envelope is the wire form of every bus event.
type Envelope struct {
	Type string          `json:"type"`
	AtMs int64           `json:"at_ms"`
	Data json.RawMessage `json:"data"`
}

// playbackEvent pairs the propagated sample with its session.
type playbackEvent struct {
	Sample  *models.NormalizedSample `json:"sample"`
	Session *models.Session          `json:"session"`
}

// presenceStateEvent reports a presence connection state change.
type presenceStateEvent struct {
	State string `json:"state"`
}

// Bus is the in-process event bus fanning relay lifecycle events out to
// observers (websocket broadcast, tests). Publishing is fire-and-forget:
// the relay must never block on a slow observer, so marshal or publish
// failures are logged and dropped.
type Bus struct {
	pubsub *gochannel.GoChannel
	nowMs  func() int64
}

// New creates the bus. The output buffer absorbs bursts from title flips
// without backpressuring the orchestrator.
func New(nowMs func() int64) *Bus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		newWatermillLogger(),
	)
	return &Bus{pubsub: pubsub, nowMs: nowMs}
}

// Subscribe returns a channel of messages for topic. The subscription ends
// when ctx is cancelled or the bus closes.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ch, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return ch, nil
}

// Close shuts the bus down, closing all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// PlaybackUpdated publishes a propagated sample with its session.
func (b *Bus) PlaybackUpdated(sample *models.NormalizedSample, session *models.Session) {
	b.publish(TopicPlaybackUpdated, playbackEvent{Sample: sample, Session: session})
}

// SessionStarted publishes a freshly created session.
func (b *Bus) SessionStarted(session *models.Session) {
	b.publish(TopicSessionStarted, session)
}

// SessionEnded publishes the summary of an ended session.
func (b *Bus) SessionEnded(summary *models.SessionSummary) {
	b.publish(TopicSessionEnded, summary)
}

// PresenceState publishes a presence connection state change.
func (b *Bus) PresenceState(state string) {
	b.publish(TopicPresenceState, presenceStateEvent{State: state})
}

func (b *Bus) publish(topic string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		logging.Error().Err(err).Str("topic", topic).Msg("marshal bus event")
		return
	}
	payload, err := json.Marshal(Envelope{
		Type: topic,
		AtMs: b.nowMs(),
		Data: raw,
	})
	if err != nil {
		logging.Error().Err(err).Str("topic", topic).Msg("marshal bus envelope")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		logging.Warn().Err(err).Str("topic", topic).Msg("bus publish failed")
		return
	}
	metrics.BusEventsPublished.WithLabelValues(topic).Inc()
}
