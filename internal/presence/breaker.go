// Spectatus - Now Playing Presence Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/spectatus

package presence

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/spectatus/internal/logging"
	"github.com/tomtom215/spectatus/internal/metrics"
	"github.com/tomtom215/spectatus/internal/models"
)

const breakerName = "presence-sink"

// breakerTransport wraps a Transport with a circuit breaker so a wedged
// bridge socket sheds activity sends instead of stalling every Process
// call behind write timeouts. The breaker uses real time for its recovery
// windows; tests exercise the wrapped transport directly.
type breakerTransport struct {
	inner Transport
	cb    *gobreaker.CircuitBreaker[any]
}

// newBreakerTransport wraps inner with the sink circuit breaker. The
// breaker opens after 5 consecutive failures and probes again after 30
// seconds, matching the cadence of a bridge restart.
func newBreakerTransport(inner Transport) *breakerTransport {
	metrics.BreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("presence sink breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateToFloat(to))
		},
	})

	return &breakerTransport{inner: inner, cb: cb}
}

func (b *breakerTransport) SetActivity(ctx context.Context, activity *models.Activity) error {
	return b.execute(func() error { return b.inner.SetActivity(ctx, activity) })
}

func (b *breakerTransport) ClearActivity(ctx context.Context) error {
	return b.execute(func() error { return b.inner.ClearActivity(ctx) })
}

func (b *breakerTransport) Close() error {
	// Teardown bypasses the breaker; a half-open breaker must not block
	// closing the socket.
	return b.inner.Close()
}

func (b *breakerTransport) execute(fn func() error) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.BreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		} else {
			metrics.BreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		}
		return err
	}
	metrics.BreakerRequests.WithLabelValues(breakerName, "success").Inc()
	return nil
}

func breakerStateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
