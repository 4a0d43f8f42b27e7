// Package main provides the player server entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/strmkit/aircheck/internal/api"
	"github.com/strmkit/aircheck/internal/app/delivery"
	"github.com/strmkit/aircheck/internal/app/playback"
	"github.com/strmkit/aircheck/internal/app/status"
	"github.com/strmkit/aircheck/internal/app/tracker"
	"github.com/strmkit/aircheck/internal/domain/stream"
	"github.com/strmkit/aircheck/internal/infra/checker"
	"github.com/strmkit/aircheck/internal/infra/config"
	"github.com/strmkit/aircheck/internal/infra/logger"
	"github.com/strmkit/aircheck/internal/infra/relay"
)

var (
	app        = kingpin.New("aircheck-player", "aircheck stream player backend")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := logger.Init(*verbose, *logfile); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	validator := stream.NewValidator(stream.ValidatorConfig{
		AllowedSchemes:  cfg.Stream.AllowedSchemes,
		MaxLength:       cfg.Stream.MaxURLLength,
		BlockPrivateIPs: cfg.Stream.BlockPrivateIPs,
	})

	manager, err := delivery.NewManagerFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to create delivery manager: %w", err)
	}

	tr := tracker.New(tracker.Config{
		MinDuration: time.Duration(cfg.Session.MinDurationMs) * time.Millisecond,
	}, manager)

	projector := status.NewProjector()
	rel := relay.New()

	controller := playback.NewController(playback.Config{
		PlayTimeout: time.Duration(cfg.Playback.PlayTimeoutMs) * time.Millisecond,
	}, rel, tr, projector, validator)

	var chk *checker.Client
	if cfg.Checker.BaseURL != "" {
		chk, err = checker.New(checker.Config{
			BaseURL: cfg.Checker.BaseURL,
			Timeout: time.Duration(cfg.Checker.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return fmt.Errorf("failed to create checker client: %w", err)
		}
		zlog.Info().Msgf("Diagnostics backend enabled: url=%s", cfg.Checker.BaseURL)
	} else {
		zlog.Info().Msg("Diagnostics backend not configured, check submission disabled")
	}

	server := api.New(cfg.Server.Addr, controller, tr, projector, rel, chk)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	go controller.Run(runCtx)

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.Start(); err != nil {
			serverErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		manager.Close()
		return fmt.Errorf("server error: %w", err)
	}

	// Process exit ends any running session. Close the session first so its
	// record enters the delivery pipeline, then let Close drain it.
	tr.Apply(tracker.Event{Type: tracker.EventUnload})
	cancelRun()
	manager.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	return nil
}
