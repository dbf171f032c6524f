// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package eventbus

import (
	"context"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/spectatus/internal/models"
)

func fixedNow() int64 { return 1_700_000_000_000 }

func TestPlaybackUpdatedRoundTrip(t *testing.T) {
	b := New(fixedNow)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, TopicPlaybackUpdated)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	b.PlaybackUpdated(
		&models.NormalizedSample{Title: "Dune", PositionSec: 30, DurationSec: 9000, Playing: true},
		&models.Session{ID: "s-1", Title: "Dune"},
	)

	select {
	case msg := <-ch:
		var env Envelope
		if err := json.Unmarshal(msg.Payload, &env); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		if env.Type != TopicPlaybackUpdated {
			t.Errorf("Type = %q, want %q", env.Type, TopicPlaybackUpdated)
		}
		if env.AtMs != fixedNow() {
			t.Errorf("AtMs = %d, want %d", env.AtMs, fixedNow())
		}
		var ev playbackEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if ev.Sample.Title != "Dune" || ev.Session.ID != "s-1" {
			t.Errorf("event = %+v, want Dune sample with session s-1", ev)
		}
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestSessionEventsReachSubscribers(t *testing.T) {
	b := New(fixedNow)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started, err := b.Subscribe(ctx, TopicSessionStarted)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	ended, err := b.Subscribe(ctx, TopicSessionEnded)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	b.SessionStarted(&models.Session{ID: "s-1", Title: "Dune"})
	b.SessionEnded(&models.SessionSummary{ID: "s-1", Reason: models.EndReasonStop})

	select {
	case msg := <-started:
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("session.started never arrived")
	}
	select {
	case msg := <-ended:
		var env Envelope
		if err := json.Unmarshal(msg.Payload, &env); err != nil {
			t.Fatalf("unmarshal envelope: %v", err)
		}
		var summary models.SessionSummary
		if err := json.Unmarshal(env.Data, &summary); err != nil {
			t.Fatalf("unmarshal summary: %v", err)
		}
		if summary.Reason != models.EndReasonStop {
			t.Errorf("Reason = %q, want stop", summary.Reason)
		}
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("session.ended never arrived")
	}
}

func TestPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	b := New(fixedNow)
	defer b.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.PresenceState("ready")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked with no subscribers")
	}
}
