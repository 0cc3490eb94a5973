// Package commands provides the CLI command structure for the cmdq daemon.
//
// cmdqd has a single root command. Flags land in config.Global, PreRunE sets
// up logging and validates, and RunE hands over to daemon.Run which blocks
// until SIGINT or SIGTERM.
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/concave-dev/cmdq/cmd/cmdqd/config"
	"github.com/concave-dev/cmdq/cmd/cmdqd/daemon"
	"github.com/concave-dev/cmdq/cmd/cmdqd/utils"
	"github.com/concave-dev/cmdq/internal/logging"
	"github.com/concave-dev/cmdq/internal/version"
	"github.com/spf13/cobra"
)

// Global variable to track log file handle for cleanup
var logFileHandle *os.File

// CleanupLogFile closes the log file handle if it exists
func CleanupLogFile() {
	if logFileHandle != nil {
		if err := logFileHandle.Close(); err != nil {
			// Use fmt.Fprintf since the logger still points at the file
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
		logFileHandle = nil
	}
}

// Root command for the cmdq daemon
var RootCmd = &cobra.Command{
	Use:   "cmdqd",
	Short: "Debounced batching command queue daemon",
	Long: `cmdq daemon (cmdqd) collects commands over HTTP and releases them to a
downstream transport in batches.

A batch closes when no command has arrived for the debounce window, when the
cumulative size limit is reached, or when processing is triggered manually.
Commands received before processing starts are held and replayed in order.`,
	Version:      version.CmdqdVersion,
	SilenceUsage: true, // Don't show usage on errors
	Example: `  # Start with defaults (stub transport, processing starts on 'cmdqctl start')
  cmdqd

  # Start processing immediately with a 200ms debounce and batches of 50
  cmdqd --start --debounce=200ms --max-commands=50

  # Post batches to a remote batch endpoint
  cmdqd --transport=http --endpoint=http://10.0.0.5:8008/api/v1/batch

  # Expose the API on all interfaces with intake rate limiting
  cmdqd --api=0.0.0.0:8008 --rate-limit=100 --rate-burst=200`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Display logo first, before any validation or logging
		utils.DisplayLogo(version.CmdqdVersion)
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Check which flags were explicitly set by user
		CheckExplicitFlags(cmd)

		// Setup log file redirection if --log-file was specified
		if config.Global.IsExplicitlySet(config.LogFileField) && config.Global.LogFile != "" {
			logDir := filepath.Dir(config.Global.LogFile)
			if err := os.MkdirAll(logDir, 0755); err != nil {
				return fmt.Errorf("failed to create log directory %s: %w", logDir, err)
			}

			var err error
			logFileHandle, err = os.OpenFile(config.Global.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fmt.Errorf("failed to open log file %s: %w", config.Global.LogFile, err)
			}

			logging.SetOutput(logFileHandle)
		}

		// Configure logging level before config initialization so its INFO
		// lines respect --log-level, then again for env overrides
		logging.SetLevel(config.Global.LogLevel)
		config.InitializeConfig()
		logging.SetLevel(config.Global.LogLevel)

		if err := config.ValidateConfig(); err != nil {
			CleanupLogFile()
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		defer CleanupLogFile()
		return daemon.Run()
	},
}

// SetupCommands initializes all commands and their relationships
func SetupCommands() {
	SetupFlags(RootCmd)
}
