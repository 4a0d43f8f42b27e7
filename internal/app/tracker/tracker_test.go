package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strmkit/aircheck/internal/domain/session"
)

// fakeSink records deliveries for assertions.
type fakeSink struct {
	records []session.Record
	durable []bool
}

func (s *fakeSink) Deliver(rec session.Record, durable bool) {
	s.records = append(s.records, rec)
	s.durable = append(s.durable, durable)
}

func newTestTracker() (*Tracker, *fakeSink) {
	sink := &fakeSink{}
	return New(Config{}, sink), sink
}

func at(seconds float64) time.Time {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(seconds * float64(time.Second)))
}

func TestTracker_StartOpensSession(t *testing.T) {
	tr, sink := newTestTracker()

	rec, closed := tr.Apply(Event{Type: EventStart, Source: "http://x/stream.mp3", At: at(0)})
	assert.Nil(t, rec)
	assert.False(t, closed)

	active, ok := tr.Active()
	require.True(t, ok)
	assert.Equal(t, "http://x/stream.mp3", active.Source)
	assert.Equal(t, at(0), active.StartedAt)
	assert.Empty(t, sink.records)
}

func TestTracker_StopClosesWithReason(t *testing.T) {
	tests := []struct {
		name   string
		event  Event
		reason session.CloseReason
	}{
		{
			name:   "user pause",
			event:  Event{Type: EventStop, Reason: session.ReasonUserPause},
			reason: session.ReasonUserPause,
		},
		{
			name:   "user stop",
			event:  Event{Type: EventStop, Reason: session.ReasonUserStop},
			reason: session.ReasonUserStop,
		},
		{
			name:   "playback error",
			event:  Event{Type: EventError},
			reason: session.ReasonPlaybackError,
		},
		{
			name:   "natural end",
			event:  Event{Type: EventEnded},
			reason: session.ReasonNaturalEnd,
		},
		{
			name:   "hidden",
			event:  Event{Type: EventHidden},
			reason: session.ReasonHidden,
		},
		{
			name:   "unload",
			event:  Event{Type: EventUnload},
			reason: session.ReasonUnload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, sink := newTestTracker()
			tr.Apply(Event{Type: EventStart, Source: "http://x/stream.mp3", At: at(0)})

			ev := tt.event
			ev.At = at(5)
			rec, closed := tr.Apply(ev)

			require.NotNil(t, rec)
			assert.True(t, closed)
			assert.Equal(t, tt.reason, rec.Reason)
			assert.Equal(t, 5*time.Second, rec.Duration())

			_, ok := tr.Active()
			assert.False(t, ok)
			require.Len(t, sink.records, 1)
			assert.Equal(t, tt.reason.Durable(), sink.durable[0])
		})
	}
}

func TestTracker_EventsOnIdleAreNoOps(t *testing.T) {
	for _, typ := range []EventType{EventStop, EventNativePause, EventError, EventEnded, EventHidden, EventUnload} {
		t.Run(typ.String(), func(t *testing.T) {
			tr, sink := newTestTracker()
			rec, closed := tr.Apply(Event{Type: typ, At: at(1)})
			assert.Nil(t, rec)
			assert.False(t, closed)
			assert.Empty(t, sink.records)
		})
	}
}

// A native pause immediately following a button-triggered pause must not
// produce a second record.
func TestTracker_ButtonPauseDedupe(t *testing.T) {
	tr, sink := newTestTracker()
	tr.Apply(Event{Type: EventStart, Source: "http://x/stream.mp3", At: at(0)})

	// Button path: mark, then close via STOP.
	tr.MarkButtonPause()
	rec, _ := tr.Apply(Event{Type: EventStop, Reason: session.ReasonUserPause, At: at(10)})
	require.NotNil(t, rec)

	// The primitive's native pause notification arrives afterwards.
	rec, closed := tr.Apply(Event{Type: EventNativePause, At: at(10.1)})
	assert.Nil(t, rec)
	assert.False(t, closed)

	assert.Len(t, sink.records, 1)
}

func TestTracker_ExternalPauseClosesSession(t *testing.T) {
	tr, sink := newTestTracker()
	tr.Apply(Event{Type: EventStart, Source: "http://x/stream.mp3", At: at(0)})

	// No button mark: this pause came from outside (OS media controls etc.).
	rec, closed := tr.Apply(Event{Type: EventNativePause, At: at(7)})
	require.NotNil(t, rec)
	assert.True(t, closed)
	assert.Equal(t, session.ReasonExternalPause, rec.Reason)
	assert.Len(t, sink.records, 1)
}

func TestTracker_StaleButtonMarkClearedByStart(t *testing.T) {
	tr, sink := newTestTracker()

	// A mark left behind with no native pause following it must not swallow
	// an external pause during the next playback.
	tr.MarkButtonPause()
	tr.Apply(Event{Type: EventStart, Source: "http://x/stream.mp3", At: at(0)})

	rec, _ := tr.Apply(Event{Type: EventNativePause, At: at(5)})
	require.NotNil(t, rec)
	assert.Equal(t, session.ReasonExternalPause, rec.Reason)
	assert.Len(t, sink.records, 1)
}

func TestTracker_MinimumDurationFilter(t *testing.T) {
	tr, sink := newTestTracker()

	// 0.05s: below threshold, closed without a record.
	tr.Apply(Event{Type: EventStart, Source: "http://x/stream.mp3", At: at(0)})
	rec, closed := tr.Apply(Event{Type: EventStop, Reason: session.ReasonUserPause, At: at(0.05)})
	assert.Nil(t, rec)
	assert.True(t, closed)
	assert.Empty(t, sink.records)

	// 0.1s: at threshold, record emitted.
	tr.Apply(Event{Type: EventStart, Source: "http://x/stream.mp3", At: at(1)})
	rec, _ = tr.Apply(Event{Type: EventStop, Reason: session.ReasonUserPause, At: at(1.1)})
	require.NotNil(t, rec)
	assert.Len(t, sink.records, 1)
}

func TestTracker_SourceSwitchClosesPriorSession(t *testing.T) {
	tr, sink := newTestTracker()

	tr.Apply(Event{Type: EventStart, Source: "http://x/a.mp3", At: at(0)})
	rec, closed := tr.Apply(Event{Type: EventStart, Source: "http://x/b.mp3", At: at(5)})

	require.NotNil(t, rec)
	assert.True(t, closed)
	assert.Equal(t, "http://x/a.mp3", rec.Source)
	assert.Equal(t, session.ReasonSourceChange, rec.Reason)
	assert.Equal(t, 5*time.Second, rec.Duration())

	active, ok := tr.Active()
	require.True(t, ok)
	assert.Equal(t, "http://x/b.mp3", active.Source)
	assert.Equal(t, at(5), active.StartedAt)
	assert.Len(t, sink.records, 1)
}

func TestTracker_SameSourceStartIsNoOp(t *testing.T) {
	tr, sink := newTestTracker()

	tr.Apply(Event{Type: EventStart, Source: "http://x/a.mp3", At: at(0)})
	rec, closed := tr.Apply(Event{Type: EventStart, Source: "http://x/a.mp3", At: at(3)})

	assert.Nil(t, rec)
	assert.False(t, closed)

	active, ok := tr.Active()
	require.True(t, ok)
	assert.Equal(t, at(0), active.StartedAt, "resume must not reset the session start")
	assert.Empty(t, sink.records)
}

// Two play/stop rounds of the same source are two independent records, not a
// merged one.
func TestTracker_ResumeAfterStopIsNewSession(t *testing.T) {
	tr, sink := newTestTracker()

	tr.Apply(Event{Type: EventStart, Source: "http://x/a.mp3", At: at(0)})
	first, _ := tr.Apply(Event{Type: EventStop, Reason: session.ReasonUserStop, At: at(3)})
	require.NotNil(t, first)
	assert.Equal(t, 3*time.Second, first.Duration())

	tr.Apply(Event{Type: EventStart, Source: "http://x/a.mp3", At: at(10)})
	second, _ := tr.Apply(Event{Type: EventStop, Reason: session.ReasonUserStop, At: at(12)})
	require.NotNil(t, second)
	assert.Equal(t, 2*time.Second, second.Duration())

	require.Len(t, sink.records, 2)
	assert.NotEqual(t, sink.records[0].ID, sink.records[1].ID)
}

// Hidden closes tracking even though playback may continue; backgrounded
// listening is deliberately not counted.
func TestTracker_HiddenClosesWhilePlaybackContinues(t *testing.T) {
	tr, sink := newTestTracker()

	tr.Apply(Event{Type: EventStart, Source: "http://x/a.mp3", At: at(0)})
	rec, _ := tr.Apply(Event{Type: EventHidden, At: at(30)})

	require.NotNil(t, rec)
	assert.Equal(t, session.ReasonHidden, rec.Reason)
	_, ok := tr.Active()
	assert.False(t, ok)

	require.Len(t, sink.durable, 1)
	assert.True(t, sink.durable[0], "hidden closes use the durable delivery path")
}

func TestTracker_UnloadUsesDurableDelivery(t *testing.T) {
	tr, sink := newTestTracker()

	tr.Apply(Event{Type: EventStart, Source: "http://x/a.mp3", At: at(0)})
	rec, _ := tr.Apply(Event{Type: EventUnload, At: at(12)})

	require.NotNil(t, rec)
	assert.Equal(t, session.ReasonUnload, rec.Reason)
	require.Len(t, sink.durable, 1)
	assert.True(t, sink.durable[0])
}

// play at t=0, playing event at t=0.2, pause button at t=10.2: one record of
// roughly 10s attributed to the playing event, not the play command.
func TestTracker_ScenarioDurationFromPlayingEvent(t *testing.T) {
	tr, sink := newTestTracker()

	tr.Apply(Event{Type: EventStart, Source: "http://x/stream.mp3", At: at(0.2)})
	tr.MarkButtonPause()
	rec, _ := tr.Apply(Event{Type: EventStop, Reason: session.ReasonUserPause, At: at(10.2)})
	tr.Apply(Event{Type: EventNativePause, At: at(10.25)})

	require.NotNil(t, rec)
	assert.Equal(t, "http://x/stream.mp3", rec.Source)
	assert.Equal(t, session.ReasonUserPause, rec.Reason)
	assert.InDelta(t, 10.0, rec.Seconds(), 0.001)
	assert.Len(t, sink.records, 1)
}

func TestTracker_DefaultClockUsedWhenEventTimeZero(t *testing.T) {
	tr, _ := newTestTracker()
	now := at(42)
	tr.now = func() time.Time { return now }

	tr.Apply(Event{Type: EventStart, Source: "http://x/a.mp3"})
	active, ok := tr.Active()
	require.True(t, ok)
	assert.Equal(t, now, active.StartedAt)
}

func TestTracker_NilSinkDoesNotPanic(t *testing.T) {
	tr := New(Config{}, nil)
	tr.Apply(Event{Type: EventStart, Source: "http://x/a.mp3", At: at(0)})
	rec, _ := tr.Apply(Event{Type: EventStop, Reason: session.ReasonUserStop, At: at(5)})
	assert.NotNil(t, rec)
}
