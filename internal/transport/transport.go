// Package transport defines how closed batches leave the queue.
//
// The queue depends only on the Transport interface: one call per batch that
// returns one result per command, in the same order as the batch. Two
// implementations ship with cmdq:
//   - Stub: in-process, simulates network latency, used for local runs and tests
//   - HTTP: posts the batch as JSON to a batch endpoint (see internal/api)
//
// The wire types in wire.go and the Responder in responder.go are shared by the
// HTTP transport and the server-side batch endpoint so both ends agree on the
// payload shape.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/concave-dev/cmdq/internal/command"
)

var (
	// ErrResultCount is returned when a transport answers a batch with a
	// different number of results than commands sent.
	ErrResultCount = errors.New("result count does not match batch size")

	// ErrUnavailable is returned while the remote batch endpoint is
	// considered down and calls are failing fast.
	ErrUnavailable = errors.New("batch endpoint unavailable")
)

// Transport sends a batch and returns the per-command results.
//
// Implementations must return exactly len(batch) results, ordered like the
// batch, or an error. Send may block for the duration of a network round trip
// and should return early when ctx is done.
type Transport interface {
	Send(ctx context.Context, batch []command.Command) ([]command.Result, error)
}

// CheckResults verifies that a transport answered every command of a batch.
func CheckResults(batchSize int, results []command.Result) error {
	if len(results) != batchSize {
		return fmt.Errorf("%w: sent %d commands, got %d results", ErrResultCount, batchSize, len(results))
	}
	return nil
}

type batchIDKey struct{}

// WithBatchID attaches the queue's batch ID to ctx so transports can forward
// it for correlation.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, batchIDKey{}, batchID)
}

// BatchIDFromContext returns the batch ID attached by WithBatchID, or "".
func BatchIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(batchIDKey{}).(string)
	return id
}
