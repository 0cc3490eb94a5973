package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/concave-dev/cmdq/internal/api/handlers"
	"github.com/concave-dev/cmdq/internal/command"
	"github.com/concave-dev/cmdq/internal/queue"
	"github.com/concave-dev/cmdq/internal/transport"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, q *queue.Queue) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config := DefaultConfig()
	config.Queue = q
	config.Version = "test"
	config.WaitTimeout = 2 * time.Second

	ts := httptest.NewServer(NewServer(config).Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_EnqueueWaitReturnsResult(t *testing.T) {
	ts := newTestServer(t, newTestQueue(t))

	resp := postJSON(t, ts.URL+"/api/v1/queue/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/v1/commands", handlers.EnqueueRequest{
		Name:      "ping",
		QueryData: map[string]string{"host": "db1"},
		Wait:      true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out handlers.EnqueueResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "completed", out.Status)
	assert.Equal(t, "ping", out.Result["name"])
	assert.Equal(t, "db1", out.Result["host"])
	assert.NotEmpty(t, out.Result["processed_at"])
}

func TestServer_ProcessWaitFlushesHeldCommands(t *testing.T) {
	q := newTestQueue(t)
	ts := newTestServer(t, q)

	for _, name := range []string{"a", "b"} {
		resp := postJSON(t, ts.URL+"/api/v1/commands", handlers.EnqueueRequest{Name: name})
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
	}

	resp := postJSON(t, ts.URL+"/api/v1/queue/process?wait=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stats := q.Stats()
	assert.True(t, stats.Started)
	assert.EqualValues(t, 1, stats.BatchesDispatched)
	assert.Equal(t, 2, stats.LastBatchSize)
	assert.Equal(t, 0, stats.Length)
}

// TestServer_HTTPTransportRoundTrip runs a queue whose HTTP transport posts
// to the batch endpoint of a second server
func TestServer_HTTPTransportRoundTrip(t *testing.T) {
	downstream := newTestServer(t, newTestQueue(t))

	tr, err := transport.NewHTTP(transport.DefaultHTTPConfig(downstream.URL + "/api/v1/batch"))
	require.NoError(t, err)

	q, err := queue.New(tr, queue.Options{DebounceTime: time.Hour, MaxProcessedCommands: 10})
	require.NoError(t, err)
	defer q.Close(context.Background())

	var mu sync.Mutex
	got := make(map[string]command.Result)
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("cmd-%d", i)
		q.Enqueue(command.Command{
			Name:      name,
			QueryData: map[string]string{"index": fmt.Sprint(i)},
			Callback: func(r command.Result) {
				mu.Lock()
				defer mu.Unlock()
				got[name] = r
			},
		})
	}
	require.NoError(t, q.Flush(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 3)
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("cmd-%d", i)
		assert.Equal(t, name, got[name]["name"])
		assert.Equal(t, fmt.Sprint(i), got[name]["index"])
	}
	assert.EqualValues(t, 0, q.Stats().BatchesFailed)
}

// TestServer_StartAndShutdown tests binding a real port and shutting down
func TestServer_StartAndShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	config := DefaultConfig()
	config.Queue = newTestQueue(t)
	config.BindPort = port
	server := NewServer(config)

	require.NoError(t, server.Start())

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(fmt.Sprintf("http://%s/api/v1/health", server.Addr()))
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, server.Shutdown(ctx))
}

// TestServer_StartPortInUse tests that bind failures surface from Start
func TestServer_StartPortInUse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	config := DefaultConfig()
	config.Queue = newTestQueue(t)
	config.BindPort = listener.Addr().(*net.TCPAddr).Port

	err = NewServer(config).Start()
	assert.ErrorContains(t, err, "failed to bind")
}
