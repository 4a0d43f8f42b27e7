package api

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	zlog "github.com/rs/zerolog/log"

	"github.com/strmkit/aircheck/internal/app/playback"
	"github.com/strmkit/aircheck/internal/app/tracker"
	"github.com/strmkit/aircheck/internal/domain/stream"
	"github.com/strmkit/aircheck/internal/infra/checker"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

type playRequest struct {
	URL string `json:"url"`
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body required")
		return
	}

	if err := s.controller.Play(r.Context(), req.URL); err != nil {
		if errors.Is(err, stream.ErrInvalidSource) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var perr *playback.PlayError
		if errors.As(err, &perr) {
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"error": perr.Code.String(),
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "playback failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "playing"})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.controller.Pause()
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.controller.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

type volumeRequest struct {
	Level float64 `json:"level"`
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body required")
		return
	}
	s.controller.SetVolume(req.Level)
	w.WriteHeader(http.StatusNoContent)
}

type muteRequest struct {
	Muted bool `json:"muted"`
}

func (s *Server) handleMute(w http.ResponseWriter, r *http.Request) {
	var req muteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body required")
		return
	}
	s.controller.SetMuted(req.Muted)
	w.WriteHeader(http.StatusNoContent)
}

type nativeEventRequest struct {
	Type string `json:"type"`
	Code string `json:"code,omitempty"`
}

var nativeEventTypes = map[string]playback.NativeEventType{
	"load_start": playback.NativeLoadStart,
	"can_play":   playback.NativeCanPlay,
	"playing":    playback.NativePlaying,
	"paused":     playback.NativePaused,
	"ended":      playback.NativeEnded,
	"error":      playback.NativeError,
}

var nativeErrorCodes = map[string]playback.ErrorCode{
	"aborted":            playback.ErrAborted,
	"network_error":      playback.ErrNetwork,
	"decode_error":       playback.ErrDecode,
	"format_unsupported": playback.ErrFormatUnsupported,
}

// handleNativeEvent receives the audio element's lifecycle events reported
// by the page and feeds them into the relay.
func (s *Server) handleNativeEvent(w http.ResponseWriter, r *http.Request) {
	var req nativeEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body required")
		return
	}

	typ, ok := nativeEventTypes[req.Type]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown event type: "+req.Type)
		return
	}

	ev := playback.NativeEvent{Type: typ}
	if typ == playback.NativeError {
		code, ok := nativeErrorCodes[req.Code]
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown error code: "+req.Code)
			return
		}
		ev.Code = code
	}

	s.relay.Feed(ev)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.projector.Last())
}

func (s *Server) handleHidden(w http.ResponseWriter, r *http.Request) {
	s.tracker.Apply(tracker.Event{Type: tracker.EventHidden})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnload(w http.ResponseWriter, r *http.Request) {
	s.tracker.Apply(tracker.Event{Type: tracker.EventUnload})
	w.WriteHeader(http.StatusNoContent)
}

type checkRequest struct {
	URL   string                 `json:"url"`
	Tests *checker.TestSelection `json:"tests,omitempty"`
}

// handleSubmitCheck forwards a diagnostic-check request to the backend.
// Submitting a check never touches playback or session state.
func (s *Server) handleSubmitCheck(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeError(w, http.StatusServiceUnavailable, "check submission is disabled")
		return
	}

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body required")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}

	tests := checker.AllTests()
	if req.Tests != nil {
		tests = *req.Tests
	}
	if !tests.Any() {
		writeError(w, http.StatusBadRequest, "at least one test must be selected")
		return
	}

	result, err := s.checker.SubmitCheck(r.Context(), req.URL, tests)
	if err != nil {
		if errors.Is(err, checker.ErrRateLimited) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		zlog.Warn().Msgf("api: check submission failed: url=%s err=%v", req.URL, err)
		writeError(w, http.StatusBadGateway, "check submission failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeError(w, http.StatusServiceUnavailable, "check submission is disabled")
		return
	}

	status, err := s.checker.JobStatus(r.Context(), chi.URLParam(r, "testRunID"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleJobResults(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeError(w, http.StatusServiceUnavailable, "check submission is disabled")
		return
	}

	results, err := s.checker.JobResults(r.Context(), chi.URLParam(r, "testRunID"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleRequestStats(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeError(w, http.StatusServiceUnavailable, "check submission is disabled")
		return
	}

	stats, err := s.checker.RequestStats(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "aircheck"})
}
