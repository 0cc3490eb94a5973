// Package version provides centralized version information for the cmdq
// daemon and CLI. The two binaries are versioned independently.
// All versions follow semantic versioning (semver) conventions.

package version

// CmdqdVersion holds the current cmdqd daemon version.
const CmdqdVersion = "0.1.0-dev"

// CmdqctlVersion holds the current cmdqctl CLI version.
const CmdqctlVersion = "0.1.0-dev"
