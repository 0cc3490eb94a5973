// Package command defines the unit of work handled by the batching queue.
//
// A Command names an operation, carries an optional string payload for the
// transport and an optional callback that receives the transport's result for
// that command. Request and response data are kept to flat string maps so they
// cross the HTTP transport without any schema negotiation.
package command

import "fmt"

// Result is the per-command response record produced by a transport.
type Result map[string]string

// Callback receives the result of a command once its batch has round-tripped.
type Callback func(Result)

// Command is one unit of caller work. The queue never inspects Name or
// QueryData; they are forwarded to the transport as-is.
type Command struct {
	Name      string
	QueryData map[string]string
	Callback  Callback
}

// HasCallback reports whether the command expects a result.
func (c Command) HasCallback() bool {
	return c.Callback != nil
}

// Validate rejects commands that cannot be addressed by a remote endpoint.
// The queue itself accepts any command; this is used at the API boundary.
func (c Command) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	return nil
}

// String returns a short description for logs.
func (c Command) String() string {
	return fmt.Sprintf("%s(%d keys)", c.Name, len(c.QueryData))
}
