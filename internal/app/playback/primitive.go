// Package playback provides the command layer over the external audio surface.
package playback

import (
	"context"
	"fmt"
	"time"
)

// NativeEventType represents a lifecycle event fired by the audio surface
// itself, independently of any command.
type NativeEventType int

const (
	NativeLoadStart NativeEventType = iota // Source loading began
	NativeCanPlay                          // Enough data buffered to start
	NativePlaying                          // Audio is audibly playing
	NativePaused                           // Audio paused, for any cause
	NativeEnded                            // The stream ended
	NativeError                            // Playback failed
)

// String returns the string representation of the event type.
func (e NativeEventType) String() string {
	switch e {
	case NativeLoadStart:
		return "load_start"
	case NativeCanPlay:
		return "can_play"
	case NativePlaying:
		return "playing"
	case NativePaused:
		return "paused"
	case NativeEnded:
		return "ended"
	case NativeError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrorCode classifies native playback errors.
type ErrorCode int

const (
	ErrAborted ErrorCode = iota + 1
	ErrNetwork
	ErrDecode
	ErrFormatUnsupported
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrAborted:
		return "aborted"
	case ErrNetwork:
		return "network_error"
	case ErrDecode:
		return "decode_error"
	case ErrFormatUnsupported:
		return "format_unsupported"
	default:
		return "unknown"
	}
}

// NativeEvent is a single event emitted by the playback surface.
type NativeEvent struct {
	Type NativeEventType
	Code ErrorCode // Set when Type is NativeError
}

// Primitive is the audio-playing capability the controller commands and
// observes. It is owned elsewhere and never reimplemented here; the
// controller only issues commands and consumes the event stream.
type Primitive interface {
	// Load points the surface at a new source.
	Load(source string)
	// Play requests playback and blocks until the surface reports playing
	// or fails. A failure is returned as *PlayError.
	Play(ctx context.Context) error
	// Pause pauses playback. The surface will emit a NativePaused event.
	Pause()
	// Seek moves the playback position.
	Seek(pos time.Duration)
	// SetVolume sets the volume level in [0, 1].
	SetVolume(level float64)
	// SetMuted toggles muting.
	SetMuted(muted bool)
	// Events returns the surface's native event stream.
	Events() <-chan NativeEvent
}

// PlayError is the normalized play failure surfaced to callers.
type PlayError struct {
	Code ErrorCode
}

// Error implements the error interface.
func (e *PlayError) Error() string {
	return fmt.Sprintf("playback failed: %s", e.Code)
}
