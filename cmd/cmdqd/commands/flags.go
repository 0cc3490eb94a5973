// Package commands contains Cobra CLI command definitions for cmdqd.
package commands

import (
	"github.com/concave-dev/cmdq/cmd/cmdqd/config"
	"github.com/spf13/cobra"
)

// SetupFlags configures all command line flags for the daemon
func SetupFlags(cmd *cobra.Command) {
	// API flags
	cmd.Flags().StringVar(&config.Global.APIAddr, "api", config.DefaultAPI,
		"Address and port for HTTP API server (e.g., "+config.DefaultAPI+")")
	cmd.Flags().DurationVar(&config.Global.WaitTimeout, "wait-timeout", config.DefaultWaitTimeout,
		"Longest time an API request may wait for a command result or a flush")
	cmd.Flags().Float64Var(&config.Global.RateLimit, "rate-limit", 0,
		"Command intake limit in requests per second (0 disables limiting)")
	cmd.Flags().IntVar(&config.Global.RateBurst, "rate-burst", config.DefaultRateBurst,
		"Burst size allowed by --rate-limit")

	// Queue flags
	cmd.Flags().DurationVar(&config.Global.DebounceTime, "debounce", config.DefaultDebounceTime,
		"Close the current batch after this long without a new command")
	cmd.Flags().IntVar(&config.Global.MaxCommands, "max-commands", config.DefaultMaxCommands,
		"Cumulative size limit: the batch closes each time lifetime intake passes a multiple of this")
	cmd.Flags().DurationVar(&config.Global.DispatchTimeout, "dispatch-timeout", 0,
		"Deadline for a single batch round trip (0 means no deadline)")
	cmd.Flags().BoolVar(&config.Global.Start, "start", false,
		"Start processing at boot instead of holding commands until 'cmdqctl start'")

	// Transport flags
	cmd.Flags().StringVar(&config.Global.Transport, "transport", config.DefaultTransport,
		"Batch transport: stub (simulated latency) or http (post to a batch endpoint)")
	cmd.Flags().StringVar(&config.Global.Endpoint, "endpoint", "",
		"Batch endpoint URL for --transport=http (defaults to this daemon's /api/v1/batch)\n"+
			"Can also be set with "+config.EndpointEnvVar)
	cmd.Flags().DurationVar(&config.Global.StubDelay, "stub-delay", config.DefaultStubDelay,
		"Base latency of the stub transport")
	cmd.Flags().DurationVar(&config.Global.StubJitter, "stub-jitter", config.DefaultStubJitter,
		"Random extra latency of the stub transport")

	// Operational flags
	cmd.Flags().StringVar(&config.Global.LogLevel, "log-level", config.DefaultLogLevel,
		"Log level: DEBUG, INFO, WARN, ERROR")
	cmd.Flags().StringVar(&config.Global.LogFile, "log-file", "",
		"Write logs to this file instead of the terminal")
}

// CheckExplicitFlags checks if flags were explicitly set by the user
func CheckExplicitFlags(cmd *cobra.Command) {
	config.Global.SetExplicitlySet(config.APIAddrField, cmd.Flags().Changed("api"))
	config.Global.SetExplicitlySet(config.EndpointField, cmd.Flags().Changed("endpoint"))
	config.Global.SetExplicitlySet(config.LogFileField, cmd.Flags().Changed("log-file"))
}
