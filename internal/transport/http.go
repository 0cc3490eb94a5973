package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/concave-dev/cmdq/internal/command"
	"github.com/concave-dev/cmdq/internal/logging"
	"github.com/concave-dev/cmdq/internal/validate"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Endpoint  string        // Batch endpoint URL, e.g. http://127.0.0.1:8008/api/v1/batch
	Timeout   time.Duration // Per-request timeout
	UserAgent string

	// Circuit breaker: open after BreakerFailures consecutive failed batches,
	// probe again after BreakerResetTimeout.
	BreakerFailures     uint32
	BreakerResetTimeout time.Duration
}

// DefaultHTTPConfig returns defaults for endpoint.
func DefaultHTTPConfig(endpoint string) *HTTPConfig {
	return &HTTPConfig{
		Endpoint:            endpoint,
		Timeout:             10 * time.Second,
		UserAgent:           "cmdq",
		BreakerFailures:     5,
		BreakerResetTimeout: 30 * time.Second,
	}
}

// Validate checks the endpoint URL and timing settings.
func (c *HTTPConfig) Validate() error {
	if err := validate.ValidateEndpointURL(c.Endpoint); err != nil {
		return err
	}
	if err := validate.ValidatePositiveTimeout(c.Timeout, "HTTP transport timeout"); err != nil {
		return err
	}
	if c.BreakerFailures == 0 {
		return fmt.Errorf("breaker failure threshold must be positive")
	}
	if err := validate.ValidatePositiveTimeout(c.BreakerResetTimeout, "breaker reset timeout"); err != nil {
		return err
	}
	return nil
}

// HTTP posts batches to a remote batch endpoint.
//
// Failed requests are not retried. A circuit breaker makes Send fail fast with
// ErrUnavailable while the endpoint keeps failing, so a dead endpoint does not
// hold every batch for the full request timeout.
type HTTP struct {
	client   *resty.Client
	endpoint string
	breaker  *gobreaker.CircuitBreaker
}

// NewHTTP creates an HTTP transport from cfg.
func NewHTTP(cfg *HTTPConfig) (*HTTP, error) {
	if cfg == nil {
		return nil, fmt.Errorf("HTTP transport config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid HTTP transport config: %w", err)
	}

	client := resty.New()
	client.SetLogger(logging.RestyLogger{})
	client.
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", cfg.UserAgent)

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logging.Debug("HTTP transport: %s %s", req.Method, req.URL)
		return nil
	})
	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logging.Debug("HTTP transport: response %d (took %v)", resp.StatusCode(), resp.Time())
		return nil
	})

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Endpoint,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cfg.BreakerResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logging.Warn("HTTP transport: circuit breaker for %s changed from %s to %s", name, from, to)
		},
	})

	return &HTTP{
		client:   client,
		endpoint: cfg.Endpoint,
		breaker:  breaker,
	}, nil
}

// Send implements Transport.
func (h *HTTP) Send(ctx context.Context, batch []command.Command) ([]command.Result, error) {
	req := BatchRequest{
		ID:       BatchIDFromContext(ctx),
		Commands: ToWire(batch),
	}

	out, err := h.breaker.Execute(func() (interface{}, error) {
		return h.post(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, h.endpoint, err)
		}
		return nil, err
	}

	return out.([]command.Result), nil
}

// BreakerState reports the circuit breaker state ("closed", "open", "half-open").
func (h *HTTP) BreakerState() string {
	return h.breaker.State().String()
}

func (h *HTTP) post(ctx context.Context, req BatchRequest) ([]command.Result, error) {
	var response BatchResponse

	r := h.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&response)
	if req.ID != "" {
		r.SetHeader(BatchIDHeader, req.ID)
	}

	resp, err := r.Post(h.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to send batch to %s: %w", h.endpoint, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("batch endpoint returned status %d: %s", resp.StatusCode(), resp.String())
	}

	return response.Results, nil
}
