// Package logging provides centralized log level validation for cmdq.
//
// The daemon config, the CLI global flags and the DEBUG environment override
// all validate against the same set defined here.
package logging

import (
	"fmt"
	"strings"
)

// ValidLogLevels is the canonical set of supported log levels.
var ValidLogLevels = map[string]bool{
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
}

// IsValidLogLevel checks if level is supported. Levels are uppercase.
func IsValidLogLevel(level string) bool {
	return ValidLogLevels[level]
}

// ValidateLogLevel returns an error for an unsupported level, listing the
// accepted values.
func ValidateLogLevel(level string) error {
	if !IsValidLogLevel(level) {
		return fmt.Errorf("invalid log level: %s (must be one of %s)", level, strings.Join(LevelNames(), ", "))
	}
	return nil
}

// LevelNames returns the supported levels from most to least verbose.
func LevelNames() []string {
	return []string{"DEBUG", "INFO", "WARN", "ERROR"}
}
