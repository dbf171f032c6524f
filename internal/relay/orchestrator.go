// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package relay

import (
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/spectatus/internal/config"
	"github.com/tomtom215/spectatus/internal/logging"
	"github.com/tomtom215/spectatus/internal/metrics"
	"github.com/tomtom215/spectatus/internal/models"
)

// PresenceController is the downstream surface the orchestrator drives.
// Implemented by presence.Connection; tests inject a fake.
type PresenceController interface {
	// SetNowPlaying renders the sample and delivers it to the sink. An
	// error means delivery failed or was deferred; the rendered payload is
	// cached downstream for replay either way.
	SetNowPlaying(sample *models.NormalizedSample) error

	// ClearActivity wipes the sink's displayed activity and the cached
	// payload.
	ClearActivity() error

	// Status reports connection state for status queries.
	Status() models.PresenceStatus
}

// EventPublisher receives relay lifecycle events for fan-out. Implementations
// must not block; the orchestrator calls these while holding its lock.
type EventPublisher interface {
	PlaybackUpdated(sample *models.NormalizedSample, session *models.Session)
	SessionStarted(session *models.Session)
	SessionEnded(summary *models.SessionSummary)
}

// Recorder persists the last propagated sample for warm start on the next
// boot. Best-effort; failures are logged and do not affect the pipeline.
type Recorder interface {
	SaveLastSample(sample *models.NormalizedSample) error
}

// Result is the outcome of one Process call.
type Result struct {
	Success bool
	Cached  bool
	Data    *models.NormalizedSample
	Session *models.Session
	Err     error
}

// Orchestrator threads raw samples through normalize → change-detect →
// session update → watchdog rearm → presence render, and exposes the
// control-plane operations. All state mutation is serialized behind one
// mutex: HTTP handlers, the watchdog timer, and shutdown paths may all call
// in concurrently, and session/cache/watchdog state must move as one
// transaction.
type Orchestrator struct {
	mu sync.Mutex

	normalizer *Normalizer
	detector   *ChangeDetector
	tracker    *SessionTracker
	watchdog   *Watchdog
	presence   PresenceController
	bus        EventPublisher
	recorder   Recorder

	current  *models.NormalizedSample
	previous *models.NormalizedSample
	paused   bool

	lastUpdateMs  int64
	lastSessionID string

	cacheHits   int64
	cacheMisses int64

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewOrchestrator wires the reconciliation core. bus and recorder may be nil
// when fan-out or warm-start persistence is disabled.
func NewOrchestrator(cfg config.RelayConfig, presence PresenceController, bus EventPublisher, recorder Recorder) *Orchestrator {
	o := &Orchestrator{
		normalizer: NewNormalizer(cfg),
		detector:   NewChangeDetector(cfg),
		tracker:    NewSessionTracker(cfg),
		presence:   presence,
		bus:        bus,
		recorder:   recorder,
		now:        time.Now,
	}
	o.watchdog = NewWatchdog(cfg.InactivityTimeout, o.handleTimeout)
	return o
}

// Seed installs a warm-start sample as the current pointer, typically the
// last sample persisted before a restart. No session is created and the
// watchdog stays disarmed; the next live sample reconciles everything.
func (o *Orchestrator) Seed(sample *models.NormalizedSample) {
	if sample == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.current = sample
	o.paused = !sample.Playing
	o.lastUpdateMs = sample.ObservedAtMs
}

// Process ingests one raw playback sample. See the Result fields: a cached
// result means the sample was valid but not worth propagating; an error
// with Success=false after a cache miss means telemetry state committed but
// presence delivery failed and will self-heal on the next accepted sample.
func (o *Orchestrator) Process(raw *models.RawSample) Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.now()

	normalized, err := o.normalizer.Normalize(raw, now)
	if err != nil {
		metrics.SamplesProcessed.WithLabelValues("invalid").Inc()
		return Result{Success: false, Err: err}
	}

	if !o.detector.ShouldPropagate(o.current, normalized, now) {
		o.cacheHits++
		metrics.ObserveCacheRatio(true)
		return Result{Success: true, Cached: true}
	}
	o.cacheMisses++
	metrics.ObserveCacheRatio(false)

	session, ended := o.tracker.Update(normalized)
	if ended != nil && o.bus != nil {
		o.bus.SessionEnded(ended)
	}
	if session.ID != o.lastSessionID {
		o.lastSessionID = session.ID
		if o.bus != nil {
			o.bus.SessionStarted(session.Clone())
		}
	}

	o.watchdog.Reset()
	o.previous = o.current
	o.current = normalized
	o.paused = !normalized.Playing
	o.lastUpdateMs = now.UnixMilli()

	o.saveLastSample(normalized)
	if o.bus != nil {
		o.bus.PlaybackUpdated(normalized, session.Clone())
	}

	if err := o.presence.SetNowPlaying(normalized); err != nil {
		// Telemetry already committed; only delivery failed. The next
		// accepted sample or the re-render ticker retries.
		metrics.SamplesProcessed.WithLabelValues("sink_error").Inc()
		logging.Warn().Err(err).Msg("presence delivery failed, state retained")
		return Result{
			Success: false,
			Data:    normalized,
			Session: session.Clone(),
			Err:     fmt.Errorf("%w: %w", ErrSinkUnavailable, err),
		}
	}

	return Result{Success: true, Data: normalized, Session: session.Clone()}
}

// Pause re-renders the current sample as paused. Fails with ErrNotActive
// when nothing is playing.
func (o *Orchestrator) Pause() error {
	return o.setPlaying(false)
}

// Resume re-renders the current sample as playing.
func (o *Orchestrator) Resume() error {
	return o.setPlaying(true)
}

func (o *Orchestrator) setPlaying(playing bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current == nil {
		return ErrNotActive
	}

	flipped := *o.current
	flipped.Playing = playing
	o.current = &flipped
	o.paused = !playing

	if err := o.presence.SetNowPlaying(o.current); err != nil {
		return fmt.Errorf("%w: %w", ErrSinkUnavailable, err)
	}
	return nil
}

// Stop clears presence, ends the session, disarms the watchdog, and drops
// the sample pointers. Idempotent.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
	return nil
}

// Reset performs Stop plus zeroes the cache counters.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
	o.cacheHits = 0
	o.cacheMisses = 0
	return nil
}

// stopLocked implements Stop under o.mu.
func (o *Orchestrator) stopLocked() {
	if err := o.presence.ClearActivity(); err != nil {
		logging.Debug().Err(err).Msg("presence clear on stop failed")
	}
	if summary := o.tracker.End(models.EndReasonStop, o.now().UnixMilli()); summary != nil && o.bus != nil {
		o.bus.SessionEnded(summary)
	}
	o.watchdog.Stop()
	o.current = nil
	o.previous = nil
	o.paused = false
	o.lastSessionID = ""
}

// Status reports the control-plane view of the relay.
func (o *Orchestrator) Status() models.StatusReport {
	o.mu.Lock()
	defer o.mu.Unlock()

	var ratio float64
	if total := o.cacheHits + o.cacheMisses; total > 0 {
		ratio = float64(o.cacheHits) / float64(total)
	}

	return models.StatusReport{
		Active:       o.tracker.Current() != nil,
		Paused:       o.paused,
		Current:      o.current,
		Session:      o.tracker.Current().Clone(),
		LastUpdateMs: o.lastUpdateMs,
		Cache: models.CacheStats{
			Hits:   o.cacheHits,
			Misses: o.cacheMisses,
			Ratio:  ratio,
		},
		Presence: o.presence.Status(),
	}
}

// handleTimeout is the watchdog callback: the viewer went silent, so the
// session ends and downstream presence clears. Runs on the timer goroutine
// and takes the same lock as Process, so a concurrent sample either lands
// before the teardown or starts a fresh session after it.
func (o *Orchestrator) handleTimeout() {
	o.mu.Lock()
	defer o.mu.Unlock()

	metrics.WatchdogFires.Inc()
	logging.Info().Msg("inactivity watchdog fired")

	if summary := o.tracker.End(models.EndReasonTimeout, o.now().UnixMilli()); summary != nil && o.bus != nil {
		o.bus.SessionEnded(summary)
	}
	if err := o.presence.ClearActivity(); err != nil {
		logging.Debug().Err(err).Msg("presence clear on timeout failed")
	}
	o.current = nil
	o.previous = nil
	o.paused = false
	o.lastSessionID = ""
}

// saveLastSample persists the warm-start record, best effort.
func (o *Orchestrator) saveLastSample(sample *models.NormalizedSample) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.SaveLastSample(sample); err != nil {
		metrics.StoreWrites.WithLabelValues("failure").Inc()
		logging.Warn().Err(err).Msg("warm-start store write failed")
		return
	}
	metrics.StoreWrites.WithLabelValues("success").Inc()
}
