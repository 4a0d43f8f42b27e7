package delivery

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/strmkit/aircheck/internal/infra/config"
	"github.com/strmkit/aircheck/internal/infra/telemetry"
)

// httpSinkSettings holds the "http" sink's settings entry.
type httpSinkSettings struct {
	Endpoint  string `mapstructure:"endpoint"`
	AuthToken string `mapstructure:"auth_token"`
}

// NewSinkFromConfig creates the configured delivery sink.
func NewSinkFromConfig(cfg *config.Config) (Sink, error) {
	scfg := cfg.Delivery.Sink
	zlog.Debug().Msgf("delivery: creating sink: type=%s", scfg.Type)

	switch scfg.Type {
	case "http":
		var settings httpSinkSettings
		if err := mapstructure.Decode(scfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "failed to decode http sink settings")
		}
		client, err := telemetry.New(telemetry.Config{
			Endpoint:  settings.Endpoint,
			AuthToken: settings.AuthToken,
			Timeout:   time.Duration(cfg.Delivery.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create http sink")
		}
		return client, nil

	case "log", "":
		return NewLogSink(), nil

	default:
		return nil, errors.Newf("unsupported sink type: %s", scfg.Type)
	}
}

// NewManagerFromConfig creates a delivery manager with the configured sink.
func NewManagerFromConfig(cfg *config.Config) (*Manager, error) {
	sink, err := NewSinkFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	zlog.Info().Msgf("delivery: using sink: %s", sink.Name())
	return NewManager(Config{
		Timeout:    time.Duration(cfg.Delivery.TimeoutMs) * time.Millisecond,
		DrainGrace: time.Duration(cfg.Delivery.DrainGraceMs) * time.Millisecond,
	}, sink), nil
}
