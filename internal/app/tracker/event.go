package tracker

import (
	"time"

	"github.com/strmkit/aircheck/internal/domain/session"
)

// EventType represents a tracking event type.
type EventType int

const (
	EventStart       EventType = iota // Playback started for a source
	EventStop                         // Button-initiated pause or stop
	EventNativePause                  // The playback surface reported a pause
	EventError                        // Playback failed
	EventEnded                        // The stream ended on its own
	EventHidden                       // The page went to the background
	EventUnload                       // The page (or process) is being torn down
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventStop:
		return "stop"
	case EventNativePause:
		return "native_pause"
	case EventError:
		return "error"
	case EventEnded:
		return "ended"
	case EventHidden:
		return "hidden"
	case EventUnload:
		return "unload"
	default:
		return "unknown"
	}
}

// Event is a single input to the tracker's transition function.
type Event struct {
	Type   EventType
	Source string              // Set for EventStart
	Reason session.CloseReason // Set for EventStop (user pause or user stop)
	At     time.Time           // Event time; zero means now
}
