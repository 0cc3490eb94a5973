// Package client provides the HTTP client cmdqctl uses to talk to a cmdqd
// API server.
//
// APIClient wraps a resty client with the daemon's base URL, JSON headers and
// structured logging. Read-only requests are retried on connection errors;
// requests that change the queue are not, so a flaky connection never
// enqueues a command twice.
package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/concave-dev/cmdq/cmd/cmdqctl/config"
	"github.com/concave-dev/cmdq/internal/logging"
	"github.com/concave-dev/cmdq/internal/netutil"
	"github.com/concave-dev/cmdq/internal/queue"
	"github.com/go-resty/resty/v2"
)

// HealthResponse mirrors GET /api/v1/health
type HealthResponse struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Version      string    `json:"version"`
	Uptime       string    `json:"uptime"`
	QueueStarted bool      `json:"queue_started"`
	QueueLength  int       `json:"queue_length"`
}

// EnqueueRequest is the body of POST /api/v1/commands
type EnqueueRequest struct {
	Name      string            `json:"name"`
	QueryData map[string]string `json:"query_data,omitempty"`
	Wait      bool              `json:"wait"`
}

// EnqueueResponse mirrors the command intake response
type EnqueueResponse struct {
	Status      string            `json:"status"`
	Name        string            `json:"name"`
	QueueLength int               `json:"queue_length"`
	Result      map[string]string `json:"result,omitempty"`
}

// QueueActionResponse mirrors the process and start responses
type QueueActionResponse struct {
	Status      string `json:"status"`
	QueueLength int    `json:"queue_length"`
}

// errorResponse is the body of non-2xx API responses
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// APIClient talks to the cmdqd HTTP API
type APIClient struct {
	client  *resty.Client
	baseURL string
}

// NewAPIClient creates a client for the API server at apiAddr with a request
// timeout in seconds
func NewAPIClient(apiAddr string, timeout int) *APIClient {
	client := resty.New()

	baseURL := fmt.Sprintf("http://%s/api/v1", apiAddr)

	// Route Resty's internal logging through our structured logging system
	client.SetLogger(logging.RestyLogger{})

	client.
		SetTimeout(time.Duration(timeout)*time.Second).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", fmt.Sprintf("cmdqctl/%s", config.Version)).
		SetError(&errorResponse{})

	// Retry only idempotent reads on connection errors
	client.
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil && r != nil && r.Request != nil && r.Request.Method == http.MethodGet
		})

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logging.Debug("Making API request: %s %s", req.Method, req.URL)
		return nil
	})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logging.Debug("API response: %d %s (took %v)",
			resp.StatusCode(), resp.Status(), resp.Time())
		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		logging.Debug("API request failed: %s %s - %v", req.Method, req.URL, err)
	})

	return &APIClient{
		client:  client,
		baseURL: baseURL,
	}
}

// CreateAPIClient creates a client from the global flags
func CreateAPIClient() *APIClient {
	return NewAPIClient(config.Global.APIAddr, config.Global.Timeout)
}

// CreateWaitingAPIClient creates a client whose timeout also covers the
// daemon's wait bound, for --wait requests
func CreateWaitingAPIClient() *APIClient {
	return NewAPIClient(config.Global.APIAddr, config.Global.Timeout+config.WaitGraceSeconds)
}

// GetHealth fetches the daemon health status
func (api *APIClient) GetHealth() (*HealthResponse, error) {
	var response HealthResponse

	resp, err := api.client.R().
		SetResult(&response).
		Get("/health")
	if err != nil {
		return nil, api.connectError(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(resp)
	}

	return &response, nil
}

// Enqueue submits a command. With wait the call returns once the command's
// batch has come back, carrying its result.
func (api *APIClient) Enqueue(name string, queryData map[string]string, wait bool) (*EnqueueResponse, error) {
	var response EnqueueResponse

	resp, err := api.client.R().
		SetBody(EnqueueRequest{Name: name, QueryData: queryData, Wait: wait}).
		SetResult(&response).
		Post("/commands")
	if err != nil {
		return nil, api.connectError(err)
	}

	switch resp.StatusCode() {
	case http.StatusAccepted, http.StatusOK:
		return &response, nil
	case http.StatusGatewayTimeout:
		return nil, fmt.Errorf("no result for %s yet - the batch may still be pending or it failed (see daemon logs)", name)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("daemon is rate limiting command intake, retry later")
	default:
		return nil, statusError(resp)
	}
}

// Process closes the daemon's current buffer. With wait the call returns
// once every batch closed so far has completed.
func (api *APIClient) Process(wait bool) (*QueueActionResponse, error) {
	var response QueueActionResponse

	req := api.client.R().SetResult(&response)
	if wait {
		req.SetQueryParam("wait", "true")
	}

	resp, err := req.Post("/queue/process")
	if err != nil {
		return nil, api.connectError(err)
	}

	switch resp.StatusCode() {
	case http.StatusAccepted, http.StatusOK:
		return &response, nil
	default:
		return nil, statusError(resp)
	}
}

// Start tells the daemon to start processing
func (api *APIClient) Start() (*QueueActionResponse, error) {
	var response QueueActionResponse

	resp, err := api.client.R().
		SetResult(&response).
		Post("/queue/start")
	if err != nil {
		return nil, api.connectError(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(resp)
	}

	return &response, nil
}

// GetStats fetches the queue counters
func (api *APIClient) GetStats() (*queue.Stats, error) {
	var response queue.Stats

	resp, err := api.client.R().
		SetResult(&response).
		Get("/queue/stats")
	if err != nil {
		return nil, api.connectError(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(resp)
	}

	return &response, nil
}

// connectError wraps a transport-level failure, adding a hint when nothing
// listens on the API address
func (api *APIClient) connectError(err error) error {
	if netutil.IsConnectionRefusedError(err) {
		return fmt.Errorf("failed to connect to API server at %s (is cmdqd running?): %w", api.baseURL, err)
	}
	return fmt.Errorf("failed to connect to API server at %s: %w", api.baseURL, err)
}

// statusError builds an error from a non-success response, preferring the
// API's error body over the raw text
func statusError(resp *resty.Response) error {
	if e, ok := resp.Error().(*errorResponse); ok && e.Error != "" {
		if e.Details != "" {
			return fmt.Errorf("API request failed with status %d: %s: %s", resp.StatusCode(), e.Error, e.Details)
		}
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), e.Error)
	}
	return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode(), resp.String())
}
