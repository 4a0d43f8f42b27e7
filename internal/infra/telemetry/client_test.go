package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strmkit/aircheck/internal/domain/session"
)

func testRecord() session.Record {
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return session.Record{
		ID:        "rec-1",
		Source:    "http://x/stream.mp3",
		StartedAt: started,
		EndedAt:   started.Add(10 * time.Second),
		Reason:    session.ReasonUserPause,
	}
}

func TestClient_Post(t *testing.T) {
	var received logEntry
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "logged"})
	}))
	defer server.Close()

	client, err := New(Config{Endpoint: server.URL, AuthToken: "secret"})
	require.NoError(t, err)

	err = client.Post(context.Background(), testRecord())
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", authHeader)
	assert.Equal(t, "http://x/stream.mp3", received.StreamURL)
	assert.Equal(t, "2025-06-01T12:00:00Z", received.StartTimestamp)
	assert.Equal(t, "2025-06-01T12:00:10Z", received.EndTimestamp)
	assert.InDelta(t, 10.0, received.ListeningTimeSeconds, 0.001)
	assert.Equal(t, "pause", received.ActionType)
}

func TestClient_Post_NoAuthHeaderWithoutToken(t *testing.T) {
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(Config{Endpoint: server.URL})
	require.NoError(t, err)

	require.NoError(t, client.Post(context.Background(), testRecord()))
	assert.Empty(t, authHeader)
}

func TestClient_Post_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New(Config{Endpoint: server.URL})
	require.NoError(t, err)

	err = client.Post(context.Background(), testRecord())
	assert.Error(t, err)
}

func TestClient_Post_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client, err := New(Config{Endpoint: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = client.Post(ctx, testRecord())
	assert.Error(t, err)
}

func TestNew_RequiresEndpoint(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
