package transport

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/concave-dev/cmdq/internal/command"
	"github.com/concave-dev/cmdq/internal/logging"
)

// Stub is an in-process transport that simulates a network round trip.
// Each Send waits MinDelay plus a random share of Jitter, then answers every
// command through DataFunc.
type Stub struct {
	MinDelay time.Duration
	Jitter   time.Duration

	// DataFunc builds the result for one command. Nil returns an empty result.
	DataFunc func(cmd command.Command) command.Result

	// Err, when set, makes every Send fail after the simulated delay.
	Err error

	calls atomic.Int64
}

// NewStub returns a stub with 100-300ms of simulated latency.
func NewStub() *Stub {
	return &Stub{
		MinDelay: 100 * time.Millisecond,
		Jitter:   200 * time.Millisecond,
	}
}

// Send implements Transport.
func (s *Stub) Send(ctx context.Context, batch []command.Command) ([]command.Result, error) {
	s.calls.Add(1)

	delay := s.MinDelay
	if s.Jitter > 0 {
		delay += rand.N(s.Jitter)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if s.Err != nil {
		return nil, s.Err
	}

	results := make([]command.Result, len(batch))
	for i, cmd := range batch {
		results[i] = s.resultFor(cmd)
	}

	logging.Debug("Stub transport: answered %d commands after %s", len(batch), delay)
	return results, nil
}

// Calls returns how many times Send has been called.
func (s *Stub) Calls() int64 {
	return s.calls.Load()
}

func (s *Stub) resultFor(cmd command.Command) command.Result {
	if s.DataFunc == nil {
		return command.Result{}
	}
	return s.DataFunc(cmd)
}
