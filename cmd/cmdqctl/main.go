// Package main is the entry point for cmdqctl, the cmdq command-line client.
package main

import (
	"os"

	"github.com/concave-dev/cmdq/cmd/cmdqctl/commands"
	"github.com/concave-dev/cmdq/cmd/cmdqctl/config"
	"github.com/concave-dev/cmdq/cmd/cmdqctl/handlers"
)

func init() {
	rootCmd := commands.RootCmd

	rootCmd.Version = config.Version
	rootCmd.PersistentPreRunE = config.ValidateGlobalFlags

	commands.SetupCommands()

	commands.SetupGlobalFlags(rootCmd, &config.Global.APIAddr, &config.Global.LogLevel,
		&config.Global.Timeout, &config.Global.Verbose, &config.Global.Output,
		config.DefaultAPIAddr, config.DefaultTimeout)

	enqueueCmd, processCmd, startCmd, statsCmd, healthCmd := commands.GetQueueCommands()
	commands.SetupQueueFlags(enqueueCmd, processCmd, statsCmd,
		&config.Enqueue.Data, &config.Enqueue.Wait, &config.Process.Wait, &config.Stats.Watch)

	enqueueCmd.RunE = handlers.HandleEnqueue
	processCmd.RunE = handlers.HandleProcess
	startCmd.RunE = handlers.HandleStart
	statsCmd.RunE = handlers.HandleStats
	healthCmd.RunE = handlers.HandleHealth
}

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
