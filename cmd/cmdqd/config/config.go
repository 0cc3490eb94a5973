// Package config provides configuration management for the cmdq daemon.
//
// Flags are parsed by cobra straight into Global. InitializeConfig then
// applies environment overrides and ValidateConfig normalizes the result
// (splitting the API address into host and port, deriving the default
// batch endpoint) before the daemon starts any component.
//
// EXPLICIT OVERRIDE TRACKING:
// Some defaults depend on whether the user set a flag. When --endpoint is not
// given, the HTTP transport posts to this daemon's own batch endpoint, which
// is handy for local runs. Tracking which flags were set keeps environment
// overrides from clobbering explicit flags.
package config

import (
	"time"

	configDefaults "github.com/concave-dev/cmdq/internal/config"
)

// ConfigField represents a configuration field that can be explicitly set
type ConfigField int

const (
	// Configuration field identifiers
	APIAddrField ConfigField = iota
	EndpointField
	LogFileField
)

const (
	DefaultAPI          = configDefaults.DefaultBindAddr + ":8008"   // Default API address
	DefaultLogLevel     = configDefaults.DefaultLogLevel             // Default log level
	DefaultTransport    = configDefaults.DefaultTransport            // Default transport
	DefaultDebounceTime = configDefaults.DefaultDebounceTime         // Default debounce window
	DefaultMaxCommands  = configDefaults.DefaultMaxProcessedCommands // Default cumulative size limit
	DefaultWaitTimeout  = configDefaults.DefaultWaitTimeout          // Default API wait bound
	DefaultRateBurst    = configDefaults.DefaultRateBurst            // Default intake burst
	DefaultStubDelay    = 100 * time.Millisecond                     // Stub transport base latency
	DefaultStubJitter   = 200 * time.Millisecond                     // Stub transport random extra latency
)

// DefaultShutdownTimeout is how long the daemon waits for the queue to drain
// on exit
const DefaultShutdownTimeout = 10 * time.Second

// EndpointEnvVar overrides the HTTP transport endpoint when --endpoint is unset
const EndpointEnvVar = "CMDQ_ENDPOINT"

// Transport names accepted by --transport
const (
	TransportStub = "stub"
	TransportHTTP = "http"
)

// Config holds all daemon configuration values
type Config struct {
	APIAddr string // HTTP API server address
	APIPort int    // HTTP API server port (derived from APIAddr)

	DebounceTime    time.Duration // Idle time before the current buffer closes
	MaxCommands     int           // Cumulative size limit per buffer
	DispatchTimeout time.Duration // Per-batch transport deadline (0 = none)
	Start           bool          // Start processing immediately instead of holding commands

	Transport  string        // stub or http
	Endpoint   string        // Batch endpoint URL for the http transport
	StubDelay  time.Duration // Base latency for the stub transport
	StubJitter time.Duration // Random extra latency for the stub transport

	WaitTimeout time.Duration // Bound on API requests waiting for a result or flush
	RateLimit   float64       // Command intake limit in requests/second (0 = unlimited)
	RateBurst   int           // Token bucket size for RateLimit

	LogLevel string // Log level: DEBUG, INFO, WARN, ERROR
	LogFile  string // Optional log file path

	apiAddrExplicitlySet  bool
	endpointExplicitlySet bool
	logFileExplicitlySet  bool
}

// Global holds the daemon configuration
var Global Config

// SetExplicitlySet records whether a field was set on the command line
func (c *Config) SetExplicitlySet(field ConfigField, value bool) {
	switch field {
	case APIAddrField:
		c.apiAddrExplicitlySet = value
	case EndpointField:
		c.endpointExplicitlySet = value
	case LogFileField:
		c.logFileExplicitlySet = value
	}
}

// IsExplicitlySet reports whether a field was set on the command line
func (c *Config) IsExplicitlySet(field ConfigField) bool {
	switch field {
	case APIAddrField:
		return c.apiAddrExplicitlySet
	case EndpointField:
		return c.endpointExplicitlySet
	case LogFileField:
		return c.logFileExplicitlySet
	}
	return false
}
