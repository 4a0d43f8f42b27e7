// Package delivery reports completed session records to the logging endpoint.
package delivery

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/strmkit/aircheck/internal/domain/session"
	"github.com/strmkit/aircheck/internal/metrics"
)

// Mode selects how a record is delivered.
type Mode int

const (
	ModeNormal  Mode = iota // Asynchronous, dropped on failure
	ModeDurable             // Fire-and-forget, expected to survive teardown
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeDurable:
		return "durable"
	default:
		return "unknown"
	}
}

// Sink posts a single completed session record to the logging endpoint.
type Sink interface {
	Name() string
	Post(ctx context.Context, rec session.Record) error
}

// Config holds delivery configuration.
type Config struct {
	Timeout    time.Duration // Per-attempt timeout
	DrainGrace time.Duration // How long Close waits for in-flight durable deliveries
}

// Manager hands records to the sink without ever blocking the caller.
// Normal-mode failures are logged and dropped; there is no retry queue.
// Durable-mode deliveries are tracked so shutdown can give them a short
// grace period, the closest analogue to a teardown-surviving request.
type Manager struct {
	sink       Sink
	timeout    time.Duration
	drainGrace time.Duration

	durable sync.WaitGroup
}

// NewManager creates a new delivery manager over the given sink.
func NewManager(cfg Config, sink Sink) *Manager {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	drainGrace := cfg.DrainGrace
	if drainGrace <= 0 {
		drainGrace = 2 * time.Second
	}
	return &Manager{
		sink:       sink,
		timeout:    timeout,
		drainGrace: drainGrace,
	}
}

// Deliver reports the record to the logging endpoint. Both modes return
// immediately; the session transition that produced the record is never
// delayed by network I/O. Implements tracker.Sink.
func (m *Manager) Deliver(rec session.Record, durable bool) {
	mode := ModeNormal
	if durable {
		mode = ModeDurable
		m.durable.Add(1)
	}

	go func() {
		if mode == ModeDurable {
			defer m.durable.Done()
		}

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		err := m.sink.Post(ctx, rec)
		metrics.ObserveDelivery(mode.String(), err)
		if err != nil {
			// Analytics are best-effort; the record is dropped, not retried.
			zlog.Warn().Msgf("delivery: %s delivery failed, record dropped: sink=%s source=%s err=%v",
				mode, m.sink.Name(), rec.Source, err)
			return
		}
		zlog.Debug().Msgf("delivery: record delivered: sink=%s source=%s duration=%.1fs action=%s",
			m.sink.Name(), rec.Source, rec.Seconds(), rec.Reason.ActionType())
	}()
}

// Close waits up to the drain grace for in-flight durable deliveries.
// Normal-mode deliveries are not waited for.
func (m *Manager) Close() {
	done := make(chan struct{})
	go func() {
		m.durable.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(m.drainGrace):
		zlog.Warn().Msgf("delivery: drain grace of %v elapsed with durable deliveries still in flight", m.drainGrace)
	}
}
