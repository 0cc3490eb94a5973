// Package handlers holds the RunE functions behind cmdqctl commands.
//
// Each handler sets up CLI logging, talks to the daemon through the client
// package and hands the response to the display package. Requests that wait
// on the daemon (enqueue --wait, process --wait) use a client whose timeout
// outlasts the daemon's own wait bound.
package handlers

import (
	"fmt"

	"github.com/concave-dev/cmdq/cmd/cmdqctl/client"
	"github.com/concave-dev/cmdq/cmd/cmdqctl/config"
	"github.com/concave-dev/cmdq/cmd/cmdqctl/display"
	"github.com/concave-dev/cmdq/cmd/cmdqctl/utils"
	"github.com/concave-dev/cmdq/internal/logging"
	"github.com/spf13/cobra"
)

// apiClient picks the client timeout for a request that may wait
func apiClient(wait bool) *client.APIClient {
	if wait {
		return client.CreateWaitingAPIClient()
	}
	return client.CreateAPIClient()
}

// HandleEnqueue submits one command to the daemon
func HandleEnqueue(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	name := args[0]
	data, err := config.ParseQueryData(config.Enqueue.Data)
	if err != nil {
		return err
	}

	logging.Info("Enqueuing command %s on %s", name, config.Global.APIAddr)

	resp, err := apiClient(config.Enqueue.Wait).Enqueue(name, data, config.Enqueue.Wait)
	if err != nil {
		logging.Error("Failed to enqueue command %s: %v", name, err)
		return err
	}

	display.DisplayEnqueue(resp)
	logging.Success("Command %s %s", name, resp.Status)
	return nil
}

// HandleProcess closes the daemon's current buffer
func HandleProcess(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	logging.Info("Requesting immediate processing on %s", config.Global.APIAddr)

	resp, err := apiClient(config.Process.Wait).Process(config.Process.Wait)
	if err != nil {
		logging.Error("Failed to process queue: %v", err)
		return err
	}

	display.DisplayQueueAction("process", resp)
	logging.Success("Queue %s", resp.Status)
	return nil
}

// HandleStart starts processing on the daemon
func HandleStart(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	resp, err := client.CreateAPIClient().Start()
	if err != nil {
		logging.Error("Failed to start queue: %v", err)
		return err
	}

	display.DisplayQueueAction("start", resp)
	logging.Success("Queue %s", resp.Status)
	return nil
}

// HandleStats shows queue counters, optionally refreshing them
func HandleStats(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	apiClient := client.CreateAPIClient()
	fetchAndDisplay := func() error {
		stats, err := apiClient.GetStats()
		if err != nil {
			return fmt.Errorf("failed to fetch queue stats: %w", err)
		}
		display.DisplayStats(stats)
		return nil
	}

	return utils.RunWithWatch(fetchAndDisplay, config.Stats.Watch)
}

// HandleHealth shows daemon health
func HandleHealth(cmd *cobra.Command, args []string) error {
	utils.SetupLogging()

	logging.Info("Checking daemon health on %s", config.Global.APIAddr)

	health, err := client.CreateAPIClient().GetHealth()
	if err != nil {
		logging.Error("Health check failed: %v", err)
		return err
	}

	display.DisplayHealth(health)
	return nil
}
