// Package session provides the listening-session domain entities.
package session

import (
	"time"

	"github.com/google/uuid"
)

// MinDuration is the default minimum length a session must reach before a
// Record is emitted. Shorter sessions are treated as accidental taps or
// immediate failures and discarded.
const MinDuration = 100 * time.Millisecond

// CloseReason identifies what ended a listening session.
type CloseReason int

const (
	ReasonUserPause     CloseReason = iota // Pause button
	ReasonUserStop                         // Stop button
	ReasonNaturalEnd                       // Stream ended on its own
	ReasonExternalPause                    // Pause not initiated by a button (OS media controls etc.)
	ReasonPlaybackError                    // Playback failed
	ReasonSourceChange                     // Another source started while this one was active
	ReasonHidden                           // Page went to the background
	ReasonUnload                           // Page (or process) is being torn down
)

// String returns the string representation of the close reason.
func (r CloseReason) String() string {
	switch r {
	case ReasonUserPause:
		return "user_pause"
	case ReasonUserStop:
		return "user_stop"
	case ReasonNaturalEnd:
		return "natural_end"
	case ReasonExternalPause:
		return "external_pause"
	case ReasonPlaybackError:
		return "playback_error"
	case ReasonSourceChange:
		return "source_change"
	case ReasonHidden:
		return "hidden"
	case ReasonUnload:
		return "unload"
	default:
		return "unknown"
	}
}

// ActionType maps the close reason onto the two-value taxonomy the logging
// endpoint accepts.
func (r CloseReason) ActionType() string {
	switch r {
	case ReasonUserPause, ReasonExternalPause:
		return "pause"
	default:
		return "stop"
	}
}

// Durable reports whether records closed for this reason must use the
// fire-and-forget delivery path, because the process or page may disappear
// before a normal request completes.
func (r CloseReason) Durable() bool {
	return r == ReasonHidden || r == ReasonUnload
}

// Active represents the single in-progress listening session.
// At most one Active exists at any time; it is owned by the tracker.
type Active struct {
	Source    string
	StartedAt time.Time
}

// Close converts the active session into an immutable Record.
func (a Active) Close(reason CloseReason, endedAt time.Time) Record {
	return Record{
		ID:        uuid.New().String(),
		Source:    a.Source,
		StartedAt: a.StartedAt,
		EndedAt:   endedAt,
		Reason:    reason,
	}
}

// Record is a completed listening session. It is created on the
// active-to-idle transition and consumed exactly once by delivery.
type Record struct {
	ID        string
	Source    string
	StartedAt time.Time
	EndedAt   time.Time
	Reason    CloseReason
}

// Duration returns the listening time covered by the record.
func (r Record) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Seconds returns the listening time in seconds, as reported on the wire.
func (r Record) Seconds() float64 {
	return r.Duration().Seconds()
}
