// Package telemetry provides the HTTP client for the session-logging endpoint.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/strmkit/aircheck/internal/domain/session"
)

// Config represents telemetry client configuration.
type Config struct {
	Endpoint  string        // Logging endpoint URL
	AuthToken string        // Optional bearer token
	Timeout   time.Duration // HTTP client timeout
}

// Client posts completed session records to the logging endpoint.
// Implements delivery.Sink.
type Client struct {
	endpoint   string
	authToken  string
	httpClient *http.Client
}

// logEntry is the logging endpoint's wire format.
type logEntry struct {
	StreamURL            string  `json:"stream_url"`
	StartTimestamp       string  `json:"start_timestamp"`
	EndTimestamp         string  `json:"end_timestamp"`
	ListeningTimeSeconds float64 `json:"listening_time_seconds"`
	ActionType           string  `json:"action_type"`
}

// ackResponse is the endpoint's acknowledgement body.
type ackResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// New creates a new telemetry client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("telemetry endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		authToken:  cfg.AuthToken,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the sink name.
func (c *Client) Name() string { return "http" }

// Post sends one session record. Non-2xx responses are errors; the caller
// decides whether to drop the record.
func (c *Client) Post(ctx context.Context, rec session.Record) error {
	entry := logEntry{
		StreamURL:            rec.Source,
		StartTimestamp:       rec.StartedAt.UTC().Format(time.RFC3339),
		EndTimestamp:         rec.EndedAt.UTC().Format(time.RFC3339),
		ListeningTimeSeconds: rec.Seconds(),
		ActionType:           rec.Reason.ActionType(),
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "failed to encode session record")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Newf("logging endpoint returned status %d", resp.StatusCode)
	}

	// The acknowledgement body is informational only.
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	var ack ackResponse
	_ = json.Unmarshal(respBody, &ack)

	return nil
}
