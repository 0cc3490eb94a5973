// Package api provides the HTTP API server configuration for cmdq.
//
// The API server is the network face of one queue: clients enqueue commands,
// trigger or start processing and read counters through it. The same server
// also hosts the batch endpoint that the HTTP transport posts to, so a single
// daemon can act as its own downstream during local runs.
package api

import (
	"fmt"
	"time"

	"github.com/concave-dev/cmdq/internal/config"
	"github.com/concave-dev/cmdq/internal/queue"
	"github.com/concave-dev/cmdq/internal/transport"
	"github.com/concave-dev/cmdq/internal/validate"
)

// Config holds all configuration parameters required for running the HTTP API
// server.
//
// TODO: Add support for TLS/HTTPS configuration (cert/key files)
type Config struct {
	BindAddr  string              // HTTP server bind address (e.g., "0.0.0.0")
	BindPort  int                 // HTTP server bind port
	Queue     *queue.Queue        // Queue served by the command endpoints
	Responder transport.Responder // Answers requests on the batch endpoint
	Version   string              // Reported by /health

	// WaitTimeout bounds requests that wait for a result or a flush
	WaitTimeout time.Duration

	// RateLimit caps command intake in requests per second; 0 disables it.
	// RateBurst is the bucket size used when the limit is on.
	RateLimit float64
	RateBurst int
}

// DefaultConfig creates a Config with loopback binding and the echo responder.
// Queue must be set by the caller.
func DefaultConfig() *Config {
	return &Config{
		BindAddr:    config.DefaultBindAddr,
		BindPort:    config.DefaultAPIPort,
		Queue:       nil, // Must be set by caller
		Responder:   transport.EchoResponder{},
		WaitTimeout: config.DefaultWaitTimeout,
		RateLimit:   0,
		RateBurst:   config.DefaultRateBurst,
	}
}

// Validate checks that the server can start with this configuration.
func (c *Config) Validate() error {
	if err := validate.ValidateRequiredString(c.BindAddr, "bind address"); err != nil {
		return err
	}
	if err := validate.ValidatePortRange(c.BindPort); err != nil {
		return fmt.Errorf("bind port validation failed: %w", err)
	}
	if c.Queue == nil {
		return fmt.Errorf("queue cannot be nil")
	}
	if c.Responder == nil {
		return fmt.Errorf("responder cannot be nil")
	}
	if err := validate.ValidatePositiveTimeout(c.WaitTimeout, "wait timeout"); err != nil {
		return err
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative: %v", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rate burst must be at least 1 when rate limit is set, got %d", c.RateBurst)
	}

	return nil
}
