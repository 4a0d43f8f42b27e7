// Package status provides the player status projection consumed by the UI.
package status

import "time"

// Status represents the user-visible player status.
type Status int

const (
	Ready   Status = iota // Player is idle and ready
	Loading               // A source is being loaded
	Playing               // Playback is running
	Paused                // Playback was paused
	Stopped               // Playback was stopped and reset
	Ended                 // The stream ended on its own
	Error                 // Playback failed
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	case Ended:
		return "ended"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its string form.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Update is a single status transition published to subscribers.
type Update struct {
	Status  Status    `json:"status"`
	Source  string    `json:"source,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}
