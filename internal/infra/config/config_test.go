package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "player.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfigFile(t, "server:\n  addr: \":9090\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"http", "https"}, cfg.Stream.AllowedSchemes)
	assert.Equal(t, 2048, cfg.Stream.MaxURLLength)
	assert.Equal(t, 10000, cfg.Playback.PlayTimeoutMs)
	assert.Equal(t, 100, cfg.Session.MinDurationMs)
	assert.Equal(t, 5000, cfg.Delivery.TimeoutMs)
	assert.Equal(t, 2000, cfg.Delivery.DrainGraceMs)
	assert.Equal(t, "log", cfg.Delivery.Sink.Type)
	assert.Equal(t, 30000, cfg.Checker.TimeoutMs)
	assert.Empty(t, cfg.Checker.BaseURL)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfigFile(t, `
session:
  min_duration_ms: 250
delivery:
  sink:
    type: http
    settings:
      endpoint: https://logs.example.com/api/sessions
checker:
  base_url: https://checker.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Session.MinDurationMs)
	assert.Equal(t, "http", cfg.Delivery.Sink.Type)
	assert.Equal(t, "https://logs.example.com/api/sessions", cfg.Delivery.Sink.Settings["endpoint"])
	assert.Equal(t, "https://checker.example.com", cfg.Checker.BaseURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SESSION_LOG_ENDPOINT", "https://env.example.com/sessions")
	t.Setenv("SESSION_LOG_TOKEN", "secret-token")
	t.Setenv("CHECKER_BASE_URL", "https://env-checker.example.com")

	path := writeConfigFile(t, `
delivery:
  sink:
    type: log
checker:
  base_url: https://file-checker.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Delivery.Sink.Type)
	assert.Equal(t, "https://env.example.com/sessions", cfg.Delivery.Sink.Settings["endpoint"])
	assert.Equal(t, "secret-token", cfg.Delivery.Sink.Settings["auth_token"])
	assert.Equal(t, "https://env-checker.example.com", cfg.Checker.BaseURL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "unknown sink type",
			content: "delivery:\n  sink:\n    type: carrier_pigeon\n",
		},
		{
			name:    "checker base_url not a URL",
			content: "checker:\n  base_url: not-a-url\n",
		},
		{
			name:    "play timeout out of range",
			content: "playback:\n  play_timeout_ms: 600000\n",
		},
		{
			name:    "malformed yaml",
			content: "server: [\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
