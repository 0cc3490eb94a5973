package commands

import (
	"github.com/spf13/cobra"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue NAME",
	Short: "Queue a command on the daemon",
	Long: `Queue a named command with optional key=value data.

The command is buffered until the daemon's debounce window elapses or the
buffer fills. With --wait, cmdqctl blocks until the batch holding the
command has come back and prints its result.`,
	Example: `  # Queue a command
  cmdqctl enqueue ping

  # Queue with data and wait for the result
  cmdqctl enqueue lookup -d table=users -d id=42 --wait`,
	Args: cobra.ExactArgs(1),
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Close the current batch immediately",
	Long: `Close the daemon's current buffer without waiting for the debounce
window. Processing is started first if it was not running.

With --wait, cmdqctl blocks until every batch closed so far has completed.`,
	Example: `  # Close the current batch
  cmdqctl process

  # Close it and wait for completion
  cmdqctl process --wait`,
	Args: cobra.NoArgs,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start processing queued commands",
	Long: `Start processing on a daemon launched without --start. Commands queued
before this point are replayed into the first buffers.`,
	Args: cobra.NoArgs,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show queue counters",
	Example: `  # Show counters once
  cmdqctl stats

  # Refresh every two seconds
  cmdqctl stats --watch`,
	Args: cobra.NoArgs,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check daemon health",
	Args:  cobra.NoArgs,
}

// GetQueueCommands returns the queue commands for handler assignment
func GetQueueCommands() (*cobra.Command, *cobra.Command, *cobra.Command, *cobra.Command, *cobra.Command) {
	return enqueueCmd, processCmd, startCmd, statsCmd, healthCmd
}

// SetupQueueFlags configures flags for the queue commands
func SetupQueueFlags(enqueueCmd, processCmd, statsCmd *cobra.Command,
	dataPtr *[]string, enqueueWaitPtr *bool, processWaitPtr *bool, watchPtr *bool) {
	enqueueCmd.Flags().StringArrayVarP(dataPtr, "data", "d", nil,
		"Query data as key=value (repeatable)")
	enqueueCmd.Flags().BoolVar(enqueueWaitPtr, "wait", false,
		"Wait for the command's result")

	processCmd.Flags().BoolVar(processWaitPtr, "wait", false,
		"Wait until every closed batch has completed")

	statsCmd.Flags().BoolVarP(watchPtr, "watch", "w", false,
		"Watch for live updates")
}
