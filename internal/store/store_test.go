// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package store

import (
	"errors"
	"testing"

	"github.com/tomtom215/spectatus/internal/config"
	"github.com/tomtom215/spectatus/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.StoreConfig{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoadLastSample(t *testing.T) {
	s := newTestStore(t)

	want := &models.NormalizedSample{
		Title:        "Stranger Things: S04E09 - The Piggyback",
		PositionSec:  120,
		DurationSec:  3000,
		Playing:      true,
		ObservedAtMs: 1_700_000_000_000,
	}
	if err := s.SaveLastSample(want); err != nil {
		t.Fatalf("SaveLastSample() error = %v", err)
	}

	got, err := s.LoadLastSample()
	if err != nil {
		t.Fatalf("LoadLastSample() error = %v", err)
	}
	if *got != *want {
		t.Errorf("LoadLastSample() = %+v, want %+v", got, want)
	}
}

func TestLoadWithoutSave(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.LoadLastSample(); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadLastSample() error = %v, want ErrNotFound", err)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s := newTestStore(t)

	first := &models.NormalizedSample{Title: "Dune", PositionSec: 10, DurationSec: 9000}
	second := &models.NormalizedSample{Title: "Arrival", PositionSec: 20, DurationSec: 7000}

	if err := s.SaveLastSample(first); err != nil {
		t.Fatalf("SaveLastSample() error = %v", err)
	}
	if err := s.SaveLastSample(second); err != nil {
		t.Fatalf("SaveLastSample() error = %v", err)
	}

	got, err := s.LoadLastSample()
	if err != nil {
		t.Fatalf("LoadLastSample() error = %v", err)
	}
	if got.Title != "Arrival" {
		t.Errorf("Title = %q, want %q", got.Title, "Arrival")
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() on empty store error = %v", err)
	}

	if err := s.SaveLastSample(&models.NormalizedSample{Title: "Dune"}); err != nil {
		t.Fatalf("SaveLastSample() error = %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := s.LoadLastSample(); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadLastSample() after Clear = %v, want ErrNotFound", err)
	}
}
