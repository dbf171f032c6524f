// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/spectatus/internal/config"
	"github.com/tomtom215/spectatus/internal/logging"
	"github.com/tomtom215/spectatus/internal/models"
)

// ErrNotFound means no warm-start record exists yet.
var ErrNotFound = errors.New("no stored sample")

const lastSampleKey = "relay:last_sample"

// Store persists the last propagated sample so a restart can seed the
// relay instead of flashing an empty presence. BadgerDB is oversized for a
// single key, but it gives crash-safe writes for free and opens in-memory
// for tests and ephemeral runs.
type Store struct {
	db *badger.DB
}

// Open creates the warm-start store per configuration.
func Open(cfg config.StoreConfig) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open warm-start store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveLastSample overwrites the warm-start record. Satisfies the relay's
// recorder interface.
func (s *Store) SaveLastSample(sample *models.NormalizedSample) error {
	data, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(lastSampleKey), data)
	})
}

// LoadLastSample returns the persisted sample, or ErrNotFound.
func (s *Store) LoadLastSample() (*models.NormalizedSample, error) {
	var sample models.NormalizedSample

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(lastSampleKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get last sample: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sample)
		})
	})
	if err != nil {
		return nil, err
	}
	return &sample, nil
}

// Clear removes the warm-start record; a stop/reset makes the stored
// sample stale on purpose.
func (s *Store) Clear() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(lastSampleKey))
	})
	if err != nil {
		return fmt.Errorf("clear last sample: %w", err)
	}
	logging.Debug().Msg("warm-start record cleared")
	return nil
}
