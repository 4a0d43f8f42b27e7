package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/strmkit/aircheck/internal/app/status"
	"github.com/strmkit/aircheck/internal/app/tracker"
	"github.com/strmkit/aircheck/internal/domain/session"
	"github.com/strmkit/aircheck/internal/domain/stream"
)

// Config holds controller configuration.
type Config struct {
	PlayTimeout time.Duration // Max wait for the surface to acknowledge a play request
}

// Controller translates user intent into primitive commands and normalizes
// the primitive's asynchronous outcomes. It only signals the tracker; it
// never reads or writes session state directly.
type Controller struct {
	mu sync.Mutex

	primitive Primitive
	tracker   *tracker.Tracker
	projector *status.Projector
	validator *stream.Validator
	config    Config

	// Source currently loaded in the primitive. Cleared by Stop so a later
	// Play with the same URL is treated as a fresh load.
	loadedSource string
}

// NewController creates a new playback controller.
func NewController(cfg Config, primitive Primitive, tr *tracker.Tracker, projector *status.Projector, validator *stream.Validator) *Controller {
	return &Controller{
		primitive: primitive,
		tracker:   tr,
		projector: projector,
		validator: validator,
		config:    cfg,
	}
}

// Play loads the source if needed and requests playback. The session START
// signal is not sent here; it fires when the surface reports playing.
func (c *Controller) Play(ctx context.Context, source string) error {
	if err := c.validator.Validate(source); err != nil {
		// Rejected before any primitive or tracker interaction.
		return err
	}

	c.mu.Lock()
	if c.loadedSource != source {
		c.primitive.Load(source)
		c.loadedSource = source
	}
	c.mu.Unlock()

	c.projector.Publish(status.Update{Status: status.Loading, Source: source})

	playCtx := ctx
	if c.config.PlayTimeout > 0 {
		var cancel context.CancelFunc
		playCtx, cancel = context.WithTimeout(ctx, c.config.PlayTimeout)
		defer cancel()
	}

	if err := c.primitive.Play(playCtx); err != nil {
		zlog.Warn().Msgf("playback: play failed: source=%s err=%v", source, err)
		c.tracker.Apply(tracker.Event{Type: tracker.EventError})

		c.mu.Lock()
		c.loadedSource = ""
		c.mu.Unlock()

		c.projector.Publish(status.Update{
			Status:  status.Error,
			Source:  source,
			Message: playErrorMessage(err),
		})
		return err
	}

	return nil
}

// Pause pauses playback. The resulting native pause event is pre-marked as
// button-triggered so the tracker does not close the session twice.
func (c *Controller) Pause() {
	if _, ok := c.tracker.Active(); ok {
		c.tracker.MarkButtonPause()
	}
	c.primitive.Pause()
	c.tracker.Apply(tracker.Event{Type: tracker.EventStop, Reason: session.ReasonUserPause})
	c.projector.Publish(status.Update{Status: status.Paused, Source: c.currentSource()})
}

// Stop pauses, resets the position and forgets the loaded source.
func (c *Controller) Stop() {
	if _, ok := c.tracker.Active(); ok {
		c.tracker.MarkButtonPause()
	}
	c.primitive.Pause()
	c.primitive.Seek(0)

	c.mu.Lock()
	c.loadedSource = ""
	c.mu.Unlock()

	c.tracker.Apply(tracker.Event{Type: tracker.EventStop, Reason: session.ReasonUserStop})
	c.projector.Publish(status.Update{Status: status.Stopped})
}

// SetVolume passes the volume level through to the primitive. No session impact.
func (c *Controller) SetVolume(level float64) {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	c.primitive.SetVolume(level)
}

// SetMuted passes the mute flag through to the primitive. No session impact.
func (c *Controller) SetMuted(muted bool) {
	c.primitive.SetMuted(muted)
}

// Run consumes the primitive's native event stream until ctx is cancelled or
// the stream closes. Events are handled one at a time, in arrival order.
func (c *Controller) Run(ctx context.Context) {
	events := c.primitive.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.handleNative(ev)
		}
	}
}

func (c *Controller) currentSource() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadedSource
}

func (c *Controller) handleNative(ev NativeEvent) {
	switch ev.Type {
	case NativeLoadStart:
		c.projector.Publish(status.Update{Status: status.Loading, Source: c.currentSource()})

	case NativeCanPlay:
		zlog.Debug().Msgf("playback: can play: source=%s", c.currentSource())

	case NativePlaying:
		source := c.currentSource()
		if source == "" {
			// Playing report with nothing loaded; stale event after a stop.
			return
		}
		c.tracker.Apply(tracker.Event{Type: tracker.EventStart, Source: source})
		c.projector.Publish(status.Update{Status: status.Playing, Source: source})

	case NativePaused:
		// Button-triggered pauses were already handled; only an external
		// pause closes a session here.
		if _, closed := c.tracker.Apply(tracker.Event{Type: tracker.EventNativePause}); closed {
			c.projector.Publish(status.Update{Status: status.Paused, Source: c.currentSource()})
		}

	case NativeEnded:
		c.tracker.Apply(tracker.Event{Type: tracker.EventEnded})
		c.mu.Lock()
		source := c.loadedSource
		c.loadedSource = ""
		c.mu.Unlock()
		c.projector.Publish(status.Update{Status: status.Ended, Source: source})

	case NativeError:
		c.tracker.Apply(tracker.Event{Type: tracker.EventError})
		c.mu.Lock()
		source := c.loadedSource
		c.loadedSource = ""
		c.mu.Unlock()
		c.projector.Publish(status.Update{
			Status:  status.Error,
			Source:  source,
			Message: errorMessage(ev.Code),
		})
	}
}

// playErrorMessage returns the user-facing message for a play failure.
func playErrorMessage(err error) string {
	var perr *PlayError
	if errors.As(err, &perr) {
		return errorMessage(perr.Code)
	}
	return "Playback could not be started"
}

// errorMessage maps an error code to a human-readable message.
func errorMessage(code ErrorCode) string {
	switch code {
	case ErrAborted:
		return "Playback was aborted"
	case ErrNetwork:
		return "A network error interrupted playback"
	case ErrDecode:
		return "The stream could not be decoded"
	case ErrFormatUnsupported:
		return "The stream format is not supported"
	default:
		return "Playback failed"
	}
}
