package utils

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/concave-dev/cmdq/internal/logging"
)

// WatchInterval is how often watch mode refreshes
const WatchInterval = 2 * time.Second

// RunWithWatch runs fn once, or with watch enabled clears the screen and
// reruns it every WatchInterval until SIGINT or SIGTERM. Errors after the
// first run are logged and the loop keeps going.
func RunWithWatch(fn func() error, enableWatch bool) error {
	if !enableWatch {
		return fn()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ticker := time.NewTicker(WatchInterval)
	defer ticker.Stop()

	fmt.Print("\033[2J\033[H") // Clear screen and move cursor to top
	if err := fn(); err != nil {
		return err
	}

	for {
		select {
		case <-ticker.C:
			fmt.Print("\033[2J\033[H")
			if err := fn(); err != nil {
				logging.Error("Error updating display: %v", err)
			}
		case <-sigChan:
			fmt.Println("\nWatch mode interrupted")
			return nil
		}
	}
}
