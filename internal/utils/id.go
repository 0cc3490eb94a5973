// Package utils provides common utility functions shared by cmdq components.
//
// This file implements identifier helpers. Batches are identified with random
// UUIDs so that log lines, dispatch errors and the batch endpoint can be
// correlated across the daemon and any remote transport endpoint. Operator-facing
// output uses the 12-character short form, similar to Docker short IDs.
package utils

import (
	"strings"

	"github.com/google/uuid"
)

// ShortIDLength is the number of characters kept when truncating identifiers
// for INFO-level logs and CLI tables.
const ShortIDLength = 12

// GenerateBatchID returns a new random batch identifier in compact form
// (32 hex characters, no dashes).
func GenerateBatchID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// TruncateIDSafe shortens an identifier to ShortIDLength characters. IDs that
// are already short are returned unchanged.
func TruncateIDSafe(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}
