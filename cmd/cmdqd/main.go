// Package main implements the cmdq daemon (cmdqd).
// cmdqd runs a debounced batching command queue behind an HTTP API.
package main

import (
	"os"

	"github.com/concave-dev/cmdq/cmd/cmdqd/commands"
)

// Main entry point
func main() {
	commands.SetupCommands()

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
