// Package utils provides logging and watch helpers shared by cmdqctl handlers.
package utils

import (
	"os"

	"github.com/concave-dev/cmdq/cmd/cmdqctl/config"
	"github.com/concave-dev/cmdq/internal/logging"
)

// SetupLogging configures CLI logging. DEBUG=true shows everything, otherwise
// only the configured level is printed and info chatter is suppressed.
func SetupLogging() {
	if os.Getenv("DEBUG") == "true" {
		logging.RestoreOutput()
		logging.SetLevel("DEBUG")
		return
	}

	logging.SetLevel(config.Global.LogLevel)
	logging.SuppressOutput()
}
