package transport

import (
	"time"

	"github.com/concave-dev/cmdq/internal/command"
)

// Responder produces the result for a single command on the serving side of
// a batch endpoint.
type Responder interface {
	Respond(cmd command.Command) command.Result
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(cmd command.Command) command.Result

// Respond calls f(cmd).
func (f ResponderFunc) Respond(cmd command.Command) command.Result {
	return f(cmd)
}

// EchoResponder answers each command with its own name and query data plus a
// processed_at timestamp.
type EchoResponder struct {
	// Now is used for processed_at; defaults to time.Now
	Now func() time.Time
}

// Respond implements Responder.
func (e EchoResponder) Respond(cmd command.Command) command.Result {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	result := make(command.Result, len(cmd.QueryData)+2)
	for k, v := range cmd.QueryData {
		result[k] = v
	}
	result["name"] = cmd.Name
	result["processed_at"] = now().UTC().Format(time.RFC3339Nano)
	return result
}

// Answer builds the response for a whole batch request, one result per
// command in request order.
func Answer(req BatchRequest, r Responder) BatchResponse {
	results := make([]command.Result, len(req.Commands))
	for i, wc := range req.Commands {
		results[i] = r.Respond(FromWire(wc))
	}
	return BatchResponse{ID: req.ID, Results: results}
}
