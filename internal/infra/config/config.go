// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Stream   StreamConfig   `yaml:"stream"`
	Playback PlaybackConfig `yaml:"playback"`
	Session  SessionConfig  `yaml:"session"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Checker  CheckerConfig  `yaml:"checker"`
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" default:":8080"`
}

// StreamConfig represents stream URL validation configuration.
type StreamConfig struct {
	AllowedSchemes  []string `yaml:"allowed_schemes" default:"[\"http\",\"https\"]"`
	MaxURLLength    int      `yaml:"max_url_length" default:"2048" validate:"gt=0"`
	BlockPrivateIPs bool     `yaml:"block_private_ips"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	PlayTimeoutMs int `yaml:"play_timeout_ms" default:"10000" validate:"gte=0,lte=60000"`
}

// SessionConfig represents session tracking configuration.
type SessionConfig struct {
	MinDurationMs int `yaml:"min_duration_ms" default:"100" validate:"gte=0"`
}

// DeliveryConfig represents session record delivery configuration.
type DeliveryConfig struct {
	TimeoutMs    int        `yaml:"timeout_ms" default:"5000" validate:"gt=0"`
	DrainGraceMs int        `yaml:"drain_grace_ms" default:"2000" validate:"gte=0"`
	Sink         SinkConfig `yaml:"sink"`
}

// SinkConfig represents a delivery sink configuration.
type SinkConfig struct {
	Type     string         `yaml:"type" default:"log"`
	Settings map[string]any `yaml:"settings"`
}

// CheckerConfig represents the diagnostics backend configuration.
// An empty base URL disables check submission.
type CheckerConfig struct {
	BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
	TimeoutMs int    `yaml:"timeout_ms" default:"30000" validate:"gt=0"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SESSION_LOG_ENDPOINT"); v != "" {
		c.Delivery.Sink.Type = "http"
		if c.Delivery.Sink.Settings == nil {
			c.Delivery.Sink.Settings = make(map[string]any)
		}
		c.Delivery.Sink.Settings["endpoint"] = v
	}
	if v := os.Getenv("SESSION_LOG_TOKEN"); v != "" {
		if c.Delivery.Sink.Settings == nil {
			c.Delivery.Sink.Settings = make(map[string]any)
		}
		c.Delivery.Sink.Settings["auth_token"] = v
	}
	if v := os.Getenv("CHECKER_BASE_URL"); v != "" {
		c.Checker.BaseURL = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	switch c.Delivery.Sink.Type {
	case "http", "log":
	default:
		return errors.Newf("unsupported delivery sink type: %s", c.Delivery.Sink.Type)
	}

	return nil
}
