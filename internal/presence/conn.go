// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/spectatus/internal/config"
	"github.com/tomtom215/spectatus/internal/logging"
	"github.com/tomtom215/spectatus/internal/metrics"
	"github.com/tomtom215/spectatus/internal/models"
)

const sendTimeout = 10 * time.Second

// StateListener receives connection state changes for fan-out. It may be
// invoked while the connection lock is held; implementations must not call
// back into the connection.
type StateListener func(state string)

// Connection owns the lifecycle of the link to the presence sink: the
// dial/ready/drop state machine, bounded automatic reconnects, the cached
// last activity replayed on reconnect, and the elapsed-time re-render
// ticker. It satisfies the orchestrator's controller interface.
//
// All mutable state sits behind one mutex. The transport's read loop, the
// reconnect timer, the ticker goroutine, and orchestrator calls all funnel
// through it, and every deferred callback carries the generation it was
// armed under so callbacks from a torn-down connection are no-ops.
type Connection struct {
	mu sync.Mutex

	cfg      config.PresenceConfig
	dialer   Dialer
	renderer *Renderer
	listener StateListener

	state     State
	attempts  int
	lastErr   error
	transport Transport

	lastActivity *models.Activity
	lastSample   *models.NormalizedSample
	lastRenderAt time.Time

	gen            uint64
	reconnectTimer *time.Timer
	tickerStop     chan struct{}

	now func() time.Time
}

// NewConnection creates a connection that dials through dialer. listener
// may be nil.
func NewConnection(cfg config.PresenceConfig, dialer Dialer, listener StateListener) *Connection {
	return &Connection{
		cfg:      cfg,
		dialer:   dialer,
		renderer: NewRenderer(cfg),
		listener: listener,
		state:    StateDisconnected,
		now:      time.Now,
	}
}

// Connect establishes the sink session. A manual connect resets the
// reconnect attempt counter, so an operator can always revive a connection
// that exhausted its automatic attempts. No-op while a session is already
// up or being dialed.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.attempts = 0
	c.mu.Unlock()
	return c.dial(ctx)
}

// dial runs one connect attempt. It flips the machine to Connecting under
// the lock, performs the blocking dial outside it, and commits the opened
// transport only if the connection was not torn down in between.
func (c *Connection) dial(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.applyEvent(EventDial)
	gen := c.gen
	c.mu.Unlock()

	transport, err := c.dialer.Dial(ctx, c.cfg.ClientID,
		func() { c.handleReady(gen) },
		func(err error) { c.handleClosed(gen, err) },
	)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		// Torn down while dialing; discard whatever we got.
		if transport != nil {
			_ = transport.Close()
		}
		return nil
	}

	if err != nil {
		c.lastErr = err
		c.applyEvent(EventClosed)
		return fmt.Errorf("connect presence sink: %w", err)
	}

	c.transport = newBreakerTransport(transport)
	c.applyEvent(EventOpened)
	return nil
}

// handleReady is the transport's handshake-ack callback.
func (c *Connection) handleReady(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.applyEvent(EventReady)
}

// handleClosed is the transport's drop callback.
func (c *Connection) handleClosed(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.lastErr = err
	logging.Warn().Err(err).Msg("presence sink connection dropped")
	c.applyEvent(EventClosed)
}

// applyEvent runs the pure state machine and executes its side effects.
// Caller holds c.mu.
func (c *Connection) applyEvent(e Event) {
	next, actions := Transition(c.state, e)
	if next != c.state {
		c.setStateLocked(next)
	}
	for _, a := range actions {
		switch a {
		case ActionResetAttempts:
			c.attempts = 0
			c.lastErr = nil
		case ActionReplay:
			c.replayLocked()
		case ActionStopTicker:
			c.stopTickerLocked()
			c.dropTransportLocked()
		case ActionScheduleReconnect:
			c.scheduleReconnectLocked()
		}
	}
}

// setStateLocked commits a state change and publishes it.
func (c *Connection) setStateLocked(s State) {
	c.state = s
	metrics.PresenceState.Set(float64(s))
	logging.Debug().Str("state", s.String()).Msg("presence connection state")
	if c.listener != nil {
		c.listener(s.String())
	}
}

// replayLocked re-sends the cached activity after a (re)connect, with its
// countdown advanced by the time spent offline.
func (c *Connection) replayLocked() {
	if c.lastActivity == nil || c.transport == nil {
		return
	}

	activity := c.lastActivity
	if c.lastSample != nil {
		now := c.now()
		advanced := Advance(c.lastSample, now.Sub(c.lastRenderAt))
		activity = c.renderer.Render(advanced, now)
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := c.transport.SetActivity(ctx, activity); err != nil {
		c.lastErr = err
		metrics.PresenceSendErrors.Inc()
		logging.Warn().Err(err).Msg("activity replay failed")
		return
	}

	c.lastActivity = activity
	metrics.PresenceActivitiesSent.WithLabelValues("replay").Inc()
	logging.Info().Str("details", activity.Details).Msg("replayed cached activity")
	c.manageTickerLocked()
}

// scheduleReconnectLocked arms the reconnect timer if attempts remain.
// After exhaustion the connection stays down until a manual Connect.
func (c *Connection) scheduleReconnectLocked() {
	if c.attempts >= c.cfg.MaxReconnectAttempts {
		logging.Warn().
			Int("attempts", c.attempts).
			Msg("presence reconnect attempts exhausted, waiting for manual connect")
		return
	}
	c.attempts++
	metrics.PresenceReconnects.Inc()

	gen := c.gen
	attempt := c.attempts
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
	}
	c.reconnectTimer = time.AfterFunc(c.cfg.ReconnectDelay, func() {
		c.mu.Lock()
		stale := gen != c.gen
		c.mu.Unlock()
		if stale {
			return
		}
		logging.Info().Int("attempt", attempt).Msg("presence reconnect attempt")
		if err := c.dial(context.Background()); err != nil {
			logging.Warn().Err(err).Int("attempt", attempt).Msg("presence reconnect failed")
		}
	})
}

// SetNowPlaying renders the sample and delivers it to the sink. The
// rendered payload is always cached first, so a send that cannot be
// applied now (not ready, sink failure) is replayed as soon as the
// connection becomes ready again.
func (c *Connection) SetNowPlaying(sample *models.NormalizedSample) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	activity := c.renderer.Render(sample, now)
	c.lastActivity = activity
	c.lastSample = sample
	c.lastRenderAt = now

	if c.state != StateReady || c.transport == nil {
		return fmt.Errorf("%w: state %s", ErrNotReady, c.state)
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := c.transport.SetActivity(ctx, activity); err != nil {
		c.lastErr = err
		metrics.PresenceSendErrors.Inc()
		return fmt.Errorf("set activity: %w", err)
	}

	metrics.PresenceActivitiesSent.WithLabelValues("update").Inc()
	c.manageTickerLocked()
	return nil
}

// ClearActivity wipes the cached payload and, when the sink is reachable,
// its displayed activity. Clearing while down only wipes the cache; there
// is nothing displayed to remove once the connection is gone.
func (c *Connection) ClearActivity() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastActivity = nil
	c.lastSample = nil
	c.stopTickerLocked()

	if c.state != StateReady || c.transport == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := c.transport.ClearActivity(ctx); err != nil {
		c.lastErr = err
		metrics.PresenceSendErrors.Inc()
		return fmt.Errorf("clear activity: %w", err)
	}

	metrics.PresenceActivitiesSent.WithLabelValues("clear").Inc()
	return nil
}

// Status reports the connection state for status queries.
func (c *Connection) Status() models.PresenceStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := models.PresenceStatus{
		State:    c.state.String(),
		Attempts: c.attempts,
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}

// Destroy tears everything down for shutdown or full reuse: transport,
// timers, cached activity, and attempt state.
func (c *Connection) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.stopTickerLocked()
	c.dropTransportLocked()
	c.lastActivity = nil
	c.lastSample = nil
	c.attempts = 0
	c.lastErr = nil
	c.setStateLocked(StateDisconnected)
}

// dropTransportLocked closes and forgets the transport handle.
func (c *Connection) dropTransportLocked() {
	if c.transport == nil {
		return
	}
	if err := c.transport.Close(); err != nil {
		logging.Debug().Err(err).Msg("presence transport close failed")
	}
	c.transport = nil
}

// manageTickerLocked starts the re-render ticker while the cached sample
// is playing with a known duration, and stops it otherwise.
func (c *Connection) manageTickerLocked() {
	if c.lastSample != nil && c.lastSample.Playing && c.lastSample.DurationSec > 0 {
		c.startTickerLocked()
		return
	}
	c.stopTickerLocked()
}

func (c *Connection) startTickerLocked() {
	if c.tickerStop != nil {
		return
	}
	stop := make(chan struct{})
	c.tickerStop = stop
	gen := c.gen
	go c.runTicker(gen, stop)
}

func (c *Connection) stopTickerLocked() {
	if c.tickerStop != nil {
		close(c.tickerStop)
		c.tickerStop = nil
	}
}

// runTicker re-renders the cached sample on a fixed cadence so the sink's
// countdown stays accurate between telemetry samples. Position is derived
// from wall-clock drift since the last real render, never from re-polling
// the source.
func (c *Connection) runTicker(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.tick(gen)
		}
	}
}

func (c *Connection) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.state != StateReady || c.transport == nil {
		return
	}
	if c.lastSample == nil || !c.lastSample.Playing {
		return
	}

	now := c.now()
	advanced := Advance(c.lastSample, now.Sub(c.lastRenderAt))
	activity := c.renderer.Render(advanced, now)

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := c.transport.SetActivity(ctx, activity); err != nil {
		c.lastErr = err
		metrics.PresenceSendErrors.Inc()
		logging.Debug().Err(err).Msg("ticker re-render failed")
		return
	}

	c.lastActivity = activity
	metrics.PresenceActivitiesSent.WithLabelValues("tick").Inc()
}
