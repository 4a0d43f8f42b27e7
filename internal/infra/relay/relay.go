// Package relay bridges the controller to the audio element running in the
// user's page. The element itself is never reimplemented: commands are
// recorded for the page to mirror, and the page reports the element's native
// events back through Feed.
package relay

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/strmkit/aircheck/internal/app/playback"
)

// Primitive implements playback.Primitive over event reports from the page.
type Primitive struct {
	mu      sync.Mutex
	events  chan playback.NativeEvent
	waiters []chan playback.NativeEvent

	source string
	volume float64
	muted  bool
}

// New creates a new relay primitive.
func New() *Primitive {
	return &Primitive{
		events: make(chan playback.NativeEvent, 32),
		volume: 1,
	}
}

// Load points the relay at a new source.
func (p *Primitive) Load(source string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = source
	zlog.Debug().Msgf("relay: load: source=%s", source)
}

// Play blocks until the page reports a playing or error event, or ctx
// expires. An expiry is reported as an aborted play.
func (p *Primitive) Play(ctx context.Context) error {
	ch := make(chan playback.NativeEvent, 1)
	p.mu.Lock()
	p.waiters = append(p.waiters, ch)
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		p.removeWaiter(ch)
		return &playback.PlayError{Code: playback.ErrAborted}
	case ev := <-ch:
		if ev.Type == playback.NativeError {
			return &playback.PlayError{Code: ev.Code}
		}
		return nil
	}
}

// Pause records a pause command. The page mirrors it and reports the
// element's paused event back through Feed.
func (p *Primitive) Pause() {
	zlog.Debug().Msgf("relay: pause")
}

// Seek records a position change.
func (p *Primitive) Seek(pos time.Duration) {
	zlog.Debug().Msgf("relay: seek: pos=%v", pos)
}

// SetVolume records the volume level.
func (p *Primitive) SetVolume(level float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = level
}

// SetMuted records the mute flag.
func (p *Primitive) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
}

// Events returns the native event stream fed by the page.
func (p *Primitive) Events() <-chan playback.NativeEvent {
	return p.events
}

// Feed injects one native event reported by the page. Playing and error
// events also resolve pending play requests.
func (p *Primitive) Feed(ev playback.NativeEvent) {
	if ev.Type == playback.NativePlaying || ev.Type == playback.NativeError {
		p.mu.Lock()
		waiters := p.waiters
		p.waiters = nil
		p.mu.Unlock()
		for _, ch := range waiters {
			ch <- ev
		}
	}

	select {
	case p.events <- ev:
	default:
		// Channel full; drop rather than block the reporting request.
		zlog.Warn().Msgf("relay: event channel full, dropped: type=%s", ev.Type)
	}
}

func (p *Primitive) removeWaiter(ch chan playback.NativeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, w := range p.waiters {
		if w == ch {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return
		}
	}
}
