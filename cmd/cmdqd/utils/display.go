// Package utils contains utility functions for the cmdq daemon.
package utils

import (
	"fmt"
)

// DisplayLogo prints the cmdq ASCII logo with version information
func DisplayLogo(version string) {
	fmt.Println()
	fmt.Println(` ░░░░░░░░░░░░░░░░░░░░░
 ░█▀▀░█▄█░█▀▄░█▀█░█▀▄░
 ░█░░░█░█░█░█░█░█░█░█░
 ░▀▀▀░▀░▀░▀▀░░▀▀█░▀▀░░
 ░░░░░░░░░░░░░░░░░░░░░`)
	fmt.Printf("\n cmdq v%s - Debounced batching command queue\n", version)
	fmt.Println()
}
