// Package checker provides a client for the stream diagnostics backend.
package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrRateLimited is returned when the backend rejects a submission because
// the client exceeded its request budget.
var ErrRateLimited = errors.New("rate limit exceeded")

// Config represents checker client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the diagnostics backend. The checks themselves run on the
// backend; this client only submits URLs and reads results.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// TestSelection selects which diagnostic tests to run.
type TestSelection struct {
	Connectivity  bool `json:"connectivity"`
	StreamInfo    bool `json:"stream_info"`
	Metadata      bool `json:"metadata"`
	PlayerTest    bool `json:"player_test"`
	AudioAnalysis bool `json:"audio_analysis"`
	AdDetection   bool `json:"ad_detection"`
}

// AllTests selects every diagnostic test.
func AllTests() TestSelection {
	return TestSelection{
		Connectivity:  true,
		StreamInfo:    true,
		Metadata:      true,
		PlayerTest:    true,
		AudioAnalysis: true,
		AdDetection:   true,
	}
}

// Any reports whether at least one test is selected.
func (s TestSelection) Any() bool {
	return s.Connectivity || s.StreamInfo || s.Metadata || s.PlayerTest || s.AudioAnalysis || s.AdDetection
}

// CheckResponse is the backend's response to a check submission.
type CheckResponse struct {
	TestRunID string         `json:"test_run_id"`
	StreamID  string         `json:"stream_id"`
	Status    string         `json:"status"`
	Results   map[string]any `json:"results"`
}

// JobStatus is the status of a previously submitted check.
type JobStatus struct {
	TestRunID        string `json:"test_run_id"`
	Status           string `json:"status"`
	RequestTimestamp string `json:"request_timestamp"`
}

// JobResults holds the stored results of a completed check.
type JobResults struct {
	TestRunID string         `json:"test_run_id"`
	Results   map[string]any `json:"results"`
}

// RequestStats describes the caller's request budget.
type RequestStats struct {
	IPAddress         string `json:"ip_address"`
	RequestsLastHour  int    `json:"requests_last_hour"`
	RequestsLastDay   int    `json:"requests_last_day"`
	RateLimitPerHour  int    `json:"rate_limit_per_hour"`
	RemainingThisHour int    `json:"remaining_this_hour"`
}

// errorResponse is the backend's error body.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// New creates a new checker client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("checker base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, errors.Wrap(err, "invalid checker base URL")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SubmitCheck submits a stream URL for the selected diagnostic tests.
func (c *Client) SubmitCheck(ctx context.Context, streamURL string, tests TestSelection) (*CheckResponse, error) {
	if streamURL == "" {
		return nil, errors.New("stream URL is required")
	}
	if !tests.Any() {
		return nil, errors.New("at least one test must be selected")
	}

	payload := struct {
		URL   string        `json:"url"`
		Tests TestSelection `json:"tests"`
	}{URL: streamURL, Tests: tests}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode check request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/streams/check", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, errors.Newf("check submission failed: %s", apiErr.Error)
		}
		return nil, errors.Newf("check submission failed with status %d", resp.StatusCode)
	}

	var result CheckResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}
	return &result, nil
}

// JobStatus retrieves the status of a submitted check.
func (c *Client) JobStatus(ctx context.Context, testRunID string) (*JobStatus, error) {
	var status JobStatus
	if err := c.get(ctx, "/api/jobs/"+url.PathEscape(testRunID), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// JobResults retrieves the stored results of a completed check.
func (c *Client) JobResults(ctx context.Context, testRunID string) (*JobResults, error) {
	var results JobResults
	if err := c.get(ctx, "/api/jobs/"+url.PathEscape(testRunID)+"/results", &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// RequestStats retrieves the caller's request budget.
func (c *Client) RequestStats(ctx context.Context) (*RequestStats, error) {
	var stats RequestStats
	if err := c.get(ctx, "/api/requests/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health checks the backend's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/api/health", &body); err != nil {
		return err
	}
	if body.Status != "healthy" {
		return errors.Newf("backend reported status %q", body.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
			return errors.Newf("request failed: %s", apiErr.Error)
		}
		return errors.Newf("request failed with status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}
