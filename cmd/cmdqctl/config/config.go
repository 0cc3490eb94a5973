// Package config holds cmdqctl's global state: flags shared by every command
// plus per-command option structs filled by cobra.
package config

import (
	configDefaults "github.com/concave-dev/cmdq/internal/config"
	"github.com/concave-dev/cmdq/internal/version"
)

const (
	DefaultAPIAddr = "127.0.0.1:8008" // Default API server address (routable)
	DefaultTimeout = 8                // Default request timeout in seconds
)

// WaitGraceSeconds is added to the request timeout for --wait requests so the
// daemon's own wait bound fires first
var WaitGraceSeconds = int(configDefaults.DefaultWaitTimeout.Seconds())

// Version is the cmdqctl version
var Version = version.CmdqctlVersion

// Global holds flags shared by all commands
var Global struct {
	APIAddr  string // Address of cmdqd API server to connect to
	LogLevel string // Log level for CLI operations
	Timeout  int    // Request timeout in seconds
	Verbose  bool   // Show verbose output
	Output   string // Output format: table, json
}

// Enqueue holds flags for the enqueue command
var Enqueue struct {
	Data []string // Query data as key=value pairs
	Wait bool     // Wait for the command's result
}

// Process holds flags for the process command
var Process struct {
	Wait bool // Wait until every closed batch has completed
}

// Stats holds flags for the stats command
var Stats struct {
	Watch bool // Refresh the counters until interrupted
}
