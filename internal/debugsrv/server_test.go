package debugsrv

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"urlfetcher/internal/fetchqueue"
	"urlfetcher/internal/urlfetcher"
)

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	srv := New(nil, zap.NewNop())
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body["status"])
}

func TestServer_ReadyzReportsQueueDepth(t *testing.T) {
	t.Parallel()

	queue := fetchqueue.New()
	queue.Enqueue(urlfetcher.FetchJob{Ticket: 1, URL: "http://example.com"})
	queue.Enqueue(urlfetcher.FetchJob{Ticket: 2, URL: "http://example.com"})

	srv := New(queue, zap.NewNop())
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ready", body["status"])
	require.Equal(t, float64(2), body["queue_depth"])
}

func TestServer_MetricsExposesPrometheusFormat(t *testing.T) {
	t.Parallel()

	srv := New(nil, zap.NewNop())
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
}
