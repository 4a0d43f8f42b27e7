// Package tracker infers discrete listening sessions from playback and
// page-lifecycle events.
package tracker

import (
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/strmkit/aircheck/internal/domain/session"
	"github.com/strmkit/aircheck/internal/metrics"
)

// Sink consumes completed session records. Deliver must not block; the
// tracker's transition path is never delayed by network I/O.
type Sink interface {
	Deliver(rec session.Record, durable bool)
}

// Config holds tracker configuration.
type Config struct {
	MinDuration time.Duration // Minimum session length for a record to be emitted
}

// Tracker owns the single active-session slot and applies tracking events
// to it. Events may arrive from the playback loop and from lifecycle
// handlers; the mutex serializes them so at most one session is ever active
// and every close emits at most one record.
type Tracker struct {
	mu                 sync.Mutex
	active             *session.Active
	buttonPausePending bool
	minDuration        time.Duration
	sink               Sink

	now func() time.Time
}

// New creates a new tracker delivering records to sink.
func New(cfg Config, sink Sink) *Tracker {
	minDuration := cfg.MinDuration
	if minDuration <= 0 {
		minDuration = session.MinDuration
	}
	return &Tracker{
		minDuration: minDuration,
		sink:        sink,
		now:         time.Now,
	}
}

// Active returns a copy of the active session, if any.
func (t *Tracker) Active() (session.Active, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return session.Active{}, false
	}
	return *t.active, true
}

// MarkButtonPause records that the next native pause notification was caused
// by a button press whose session close is already accounted for. The native
// pause handler consumes the mark instead of closing a session twice.
func (t *Tracker) MarkButtonPause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buttonPausePending = true
}

// Apply processes one event against the current state. It returns the emitted
// record (nil when none was produced) and whether the event closed the
// previously active session.
func (t *Tracker) Apply(ev Event) (*session.Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	at := ev.At
	if at.IsZero() {
		at = t.now()
	}

	switch ev.Type {
	case EventStart:
		// A fresh start invalidates any stale button-pause mark; the pause
		// it referred to can no longer arrive for this playback.
		t.buttonPausePending = false

		if t.active != nil {
			if t.active.Source == ev.Source {
				// Resume of the same source; not a new session.
				return nil, false
			}
			// Source switch closes the prior session before the new one opens.
			rec := t.closeLocked(session.ReasonSourceChange, at)
			t.startLocked(ev.Source, at)
			return rec, true
		}
		t.startLocked(ev.Source, at)
		return nil, false

	case EventNativePause:
		if t.buttonPausePending {
			// The button path already closed this session; consume the mark.
			t.buttonPausePending = false
			return nil, false
		}
		if t.active == nil {
			return nil, false
		}
		return t.closeLocked(session.ReasonExternalPause, at), true

	case EventStop:
		if t.active == nil {
			return nil, false
		}
		return t.closeLocked(ev.Reason, at), true

	case EventError:
		if t.active == nil {
			return nil, false
		}
		return t.closeLocked(session.ReasonPlaybackError, at), true

	case EventEnded:
		if t.active == nil {
			return nil, false
		}
		return t.closeLocked(session.ReasonNaturalEnd, at), true

	case EventHidden:
		if t.active == nil {
			return nil, false
		}
		return t.closeLocked(session.ReasonHidden, at), true

	case EventUnload:
		if t.active == nil {
			return nil, false
		}
		return t.closeLocked(session.ReasonUnload, at), true
	}

	return nil, false
}

// startLocked opens the active-session slot. Must be called with the lock
// held and the slot empty.
func (t *Tracker) startLocked(source string, at time.Time) {
	t.active = &session.Active{Source: source, StartedAt: at}
	metrics.SetSessionActive(true)
	zlog.Debug().Msgf("tracker: session started: source=%s", source)
}

// closeLocked destroys the active session and emits its record when the
// session lasted long enough. Must be called with the lock held and an
// active session present.
func (t *Tracker) closeLocked(reason session.CloseReason, at time.Time) *session.Record {
	active := *t.active
	t.active = nil
	metrics.SetSessionActive(false)

	if at.Sub(active.StartedAt) < t.minDuration {
		metrics.ObserveSessionClosed(reason.String(), false)
		zlog.Debug().Msgf("tracker: session below minimum duration, discarded: source=%s reason=%s",
			active.Source, reason)
		return nil
	}

	rec := active.Close(reason, at)
	metrics.ObserveSessionClosed(reason.String(), true)
	zlog.Info().Msgf("tracker: session closed: source=%s reason=%s duration=%.1fs",
		rec.Source, reason, rec.Seconds())

	if t.sink != nil {
		t.sink.Deliver(rec, reason.Durable())
	}
	return &rec
}
