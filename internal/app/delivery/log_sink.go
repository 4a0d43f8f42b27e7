package delivery

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/strmkit/aircheck/internal/domain/session"
)

// LogSink writes session records to the application log instead of a remote
// endpoint. Used in development and as a fallback sink.
type LogSink struct{}

// NewLogSink creates a new log sink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Name returns the sink name.
func (s *LogSink) Name() string { return "log" }

// Post logs the record.
func (s *LogSink) Post(_ context.Context, rec session.Record) error {
	zlog.Info().Msgf("session record: source=%s start=%s end=%s duration=%.1fs action=%s",
		rec.Source, rec.StartedAt.Format("15:04:05"), rec.EndedAt.Format("15:04:05"),
		rec.Seconds(), rec.Reason.ActionType())
	return nil
}
