// Package logging provides ID formatting utilities for consistent ID display
// in cmdq logs.
//
// Debug logs keep full identifiers for traceability; every other level uses
// the 12-character short form so INFO output stays readable when batches are
// closing several times per second.
package logging

import (
	"github.com/concave-dev/cmdq/internal/utils"
)

// FormatID formats an ID according to the current log level: the full ID at
// DEBUG, the truncated ID otherwise.
func FormatID(id string) string {
	if IsDebugEnabled() {
		return id
	}
	return utils.TruncateIDSafe(id)
}

// FormatBatchID formats a batch ID for logging.
//
// Usage: logging.Info("Dispatched batch %s", logging.FormatBatchID(batchID))
func FormatBatchID(batchID string) string {
	return FormatID(batchID)
}
