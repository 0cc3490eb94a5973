// Package config provides default configuration values shared across cmdq
// components (queue engine, HTTP API, daemon and CLI).
package config

import "time"

const (
	// DefaultBindAddr is the default bind address for the HTTP API.
	// Loopback keeps the daemon private unless --api says otherwise.
	DefaultBindAddr = "127.0.0.1"

	// DefaultAPIPort is the default port for the HTTP API
	DefaultAPIPort = 8008

	// DefaultLogLevel is the default log level for all components
	DefaultLogLevel = "INFO"

	// DefaultDebounceTime is how long a buffer may stay idle before it closes
	DefaultDebounceTime = 500 * time.Millisecond

	// DefaultMaxProcessedCommands is the cumulative item cap per buffer
	DefaultMaxProcessedCommands = 10

	// DefaultWaitTimeout bounds how long an API request waits for its
	// command's callback or a flush
	DefaultWaitTimeout = 30 * time.Second

	// DefaultRateBurst is the intake burst allowed when a rate limit is set.
	// The limit itself defaults to 0 (disabled).
	DefaultRateBurst = 20

	// DefaultTransport selects the simulated-latency transport
	DefaultTransport = "stub"
)
