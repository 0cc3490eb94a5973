package transport

import "github.com/concave-dev/cmdq/internal/command"

// BatchIDHeader carries the batch ID on HTTP batch requests.
const BatchIDHeader = "X-Cmdq-Batch-ID"

// WireCommand is the JSON form of a command. Callbacks never leave the
// process.
type WireCommand struct {
	Name      string            `json:"name" binding:"required"`
	QueryData map[string]string `json:"query_data,omitempty"`
}

// BatchRequest is the body posted to a batch endpoint.
type BatchRequest struct {
	ID       string        `json:"id,omitempty"`
	Commands []WireCommand `json:"commands" binding:"required,min=1,dive"`
}

// BatchResponse carries one result per command, in request order.
type BatchResponse struct {
	ID      string           `json:"id,omitempty"`
	Results []command.Result `json:"results"`
}

// ToWire converts a batch to its JSON form, preserving order.
func ToWire(batch []command.Command) []WireCommand {
	out := make([]WireCommand, len(batch))
	for i, cmd := range batch {
		out[i] = WireCommand{Name: cmd.Name, QueryData: cmd.QueryData}
	}
	return out
}

// FromWire converts a wire command back into a Command without a callback.
func FromWire(wc WireCommand) command.Command {
	return command.Command{Name: wc.Name, QueryData: wc.QueryData}
}
