// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package relay

import (
	"sync"
	"time"
)

// Watchdog is a single-slot rearmable timer. Reset cancels any pending fire
// and schedules a new one a full timeout from now; Stop cancels outright.
// Each arm bumps a generation counter, so a callback that races a Reset or
// Stop observes a stale generation and becomes a no-op so late fires can
// never act on torn-down state.
type Watchdog struct {
	mu      sync.Mutex
	timeout time.Duration
	onFire  func()
	timer   *time.Timer
	gen     uint64
}

// NewWatchdog creates a watchdog that invokes onFire after timeout of
// silence. The callback runs on the timer goroutine; it must do its own
// locking.
func NewWatchdog(timeout time.Duration, onFire func()) *Watchdog {
	return &Watchdog{
		timeout: timeout,
		onFire:  onFire,
	}
}

// Reset rearms the watchdog for a full timeout window from now.
func (w *Watchdog) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gen++
	gen := w.gen

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.timeout, func() {
		w.fire(gen)
	})
}

// Stop cancels any pending fire. Safe to call repeatedly.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Armed reports whether a fire is currently scheduled.
func (w *Watchdog) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.timer != nil
}

// fire runs the callback if the arming generation is still current.
func (w *Watchdog) fire(gen uint64) {
	w.mu.Lock()
	if gen != w.gen {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	w.mu.Unlock()

	w.onFire()
}
