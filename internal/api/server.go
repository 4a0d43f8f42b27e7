// Package api provides the JSON/HTTP control surface for the player core.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/strmkit/aircheck/internal/app/playback"
	"github.com/strmkit/aircheck/internal/app/status"
	"github.com/strmkit/aircheck/internal/app/tracker"
	"github.com/strmkit/aircheck/internal/infra/checker"
	"github.com/strmkit/aircheck/internal/infra/relay"
)

// Server hosts the control surface.
type Server struct {
	addr       string
	controller *playback.Controller
	tracker    *tracker.Tracker
	projector  *status.Projector
	relay      *relay.Primitive
	checker    *checker.Client // nil when check submission is disabled

	httpServer *http.Server
}

// New creates a new API server. The checker client may be nil.
func New(addr string, controller *playback.Controller, tr *tracker.Tracker, projector *status.Projector, rel *relay.Primitive, chk *checker.Client) *Server {
	s := &Server{
		addr:       addr,
		controller: controller,
		tracker:    tr,
		projector:  projector,
		relay:      rel,
		checker:    chk,
	}

	// h2c allows HTTP/2 without TLS for local and proxied deployments.
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(s.routes(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Route("/playback", func(r chi.Router) {
			r.Post("/play", s.handlePlay)
			r.Post("/pause", s.handlePause)
			r.Post("/stop", s.handleStop)
			r.Post("/volume", s.handleVolume)
			r.Post("/mute", s.handleMute)
			r.Post("/events", s.handleNativeEvent)
			r.Get("/status", s.handleStatus)
		})

		r.Route("/lifecycle", func(r chi.Router) {
			r.Post("/hidden", s.handleHidden)
			r.Post("/unload", s.handleUnload)
		})

		r.Post("/streams/check", s.handleSubmitCheck)
		r.Get("/jobs/{testRunID}", s.handleJobStatus)
		r.Get("/jobs/{testRunID}/results", s.handleJobResults)
		r.Get("/requests/stats", s.handleRequestStats)
		r.Get("/health", s.handleHealth)
	})

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Handler returns the server's HTTP handler, used directly in tests.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// Start runs the server until it fails or is shut down.
func (s *Server) Start() error {
	zlog.Info().Msgf("api: listening on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
