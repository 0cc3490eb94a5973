// Package commands defines the cmdqctl command tree. Handlers and flags are
// attached by the main package.
package commands

import (
	"github.com/spf13/cobra"
)

// Root command
var RootCmd = &cobra.Command{
	Use:   "cmdqctl",
	Short: "CLI tool for the cmdq batching command queue",
	Long: `cmdq CLI (cmdqctl) talks to a running cmdqd daemon.

Commands are queued on the daemon, grouped into batches after a quiet
period or when the buffer fills, and sent to the configured transport.
cmdqctl lets you enqueue commands, force or start processing, and inspect
the queue.`,
	SilenceUsage: true,
	Example: `  # Queue a command
  cmdqctl enqueue ping --data host=db1

  # Queue a command and wait for its result
  cmdqctl enqueue ping -d host=db1 --wait

  # Close the current batch now and wait for it to complete
  cmdqctl process --wait

  # Watch queue counters
  cmdqctl stats --watch

  # Connect to a remote daemon with JSON output
  cmdqctl --api=192.168.1.100:8008 -o json stats`,
}

// SetupCommands adds all top-level commands to root
func SetupCommands() {
	RootCmd.AddCommand(enqueueCmd)
	RootCmd.AddCommand(processCmd)
	RootCmd.AddCommand(startCmd)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(healthCmd)
}

// SetupGlobalFlags configures all global persistent flags
func SetupGlobalFlags(rootCmd *cobra.Command, apiAddrPtr *string, logLevelPtr *string,
	timeoutPtr *int, verbosePtr *bool, outputPtr *string, defaultAPIAddr string, defaultTimeout int) {
	rootCmd.PersistentFlags().StringVar(apiAddrPtr, "api", defaultAPIAddr,
		"cmdqd API server address")
	rootCmd.PersistentFlags().StringVar(logLevelPtr, "log-level", "ERROR",
		"Log level: DEBUG, INFO, WARN, ERROR")
	rootCmd.PersistentFlags().IntVar(timeoutPtr, "timeout", defaultTimeout,
		"Request timeout in seconds")
	rootCmd.PersistentFlags().BoolVarP(verbosePtr, "verbose", "v", false,
		"Show verbose output")
	rootCmd.PersistentFlags().StringVarP(outputPtr, "output", "o", "table",
		"Output format: table, json")
}
