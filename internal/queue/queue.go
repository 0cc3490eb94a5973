// Package queue implements the debounced batching command queue.
//
// Callers enqueue commands at any time. The queue groups them into batches and
// hands each batch to a transport in a single call, then feeds every command's
// callback the result at the same position in the transport's answer.
//
// BATCH CLOSING:
// The current buffer closes on whichever happens first:
//   - Debounce: no command enqueued for Options.DebounceTime
//   - Manual: Process or Flush was called
//   - Size limit: the lifetime intake count passed a multiple of
//     Options.MaxProcessedCommands (the counter is never reset per batch)
//
// Empty buffers close without touching the transport.
//
// START AND REPLAY:
// Until StartProcessing (or the first Process) nothing closes. Commands
// enqueued before that wait in a replay list and enter the live buffer, in
// order, at the moment processing starts.
//
// CONCURRENCY:
// One event-loop goroutine owns the buffer, the replay list, the counter and
// the debounce timer; Enqueue, StartProcessing and Process post events to it
// over a single unbuffered channel so their relative order is kept. Closed
// batches go to one dispatcher goroutine that sends them one at a time in the
// order they closed. The loop never waits on the dispatcher, so callbacks may
// safely enqueue follow-up commands.
package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/concave-dev/cmdq/internal/command"
	"github.com/concave-dev/cmdq/internal/logging"
	"github.com/concave-dev/cmdq/internal/transport"
	"github.com/concave-dev/cmdq/internal/utils"
)

// Trigger names the event that closed a batch.
type Trigger int

const (
	TriggerDebounce Trigger = iota
	TriggerManual
	TriggerSizeLimit
	TriggerShutdown
)

func (t Trigger) String() string {
	switch t {
	case TriggerDebounce:
		return "debounce"
	case TriggerManual:
		return "manual"
	case TriggerSizeLimit:
		return "size_limit"
	case TriggerShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("trigger(%d)", int(t))
	}
}

type eventKind int

const (
	eventEnqueue eventKind = iota
	eventStart
	eventProcess
)

type event struct {
	kind eventKind
	cmd  command.Command

	// barrier is closed by the dispatcher once every batch closed before
	// this event has finished dispatching (Flush only)
	barrier chan struct{}
}

// batch is a closed buffer waiting for dispatch, or a flush barrier when
// barrier is set.
type batch struct {
	id       string
	commands []command.Command
	trigger  Trigger
	barrier  chan struct{}
}

// Queue is a debounced batching command queue. Create one with New.
type Queue struct {
	transport transport.Transport
	opts      Options

	events       chan event
	quit         chan struct{}
	closeOnce    sync.Once
	dispatchDone chan struct{}

	// Event loop state, only touched by run()
	started   bool
	replay    []command.Command
	buffer    []command.Command
	intake    int
	debounce  *time.Timer
	debounceC <-chan time.Time

	// Closed batches handed from the loop to the dispatcher
	mu         sync.Mutex
	pending    []*batch
	loopExited bool
	wake       chan struct{}

	// Counters readable from any goroutine
	length        atomic.Int64
	startedFlag   atomic.Bool
	enqueued      atomic.Int64
	dispatched    atomic.Int64
	failed        atomic.Int64
	delivered     atomic.Int64
	statsMu       sync.Mutex
	lastDispatch  time.Time
	lastError     string
	lastBatchSize int
}

// New validates opts and starts the queue's goroutines. The queue accepts
// commands immediately but closes no batch until processing starts.
func New(t transport.Transport, opts Options) (*Queue, error) {
	if t == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	q := &Queue{
		transport:    t,
		opts:         opts,
		events:       make(chan event),
		quit:         make(chan struct{}),
		dispatchDone: make(chan struct{}),
		wake:         make(chan struct{}, 1),
	}

	go q.run()
	go q.dispatchLoop()

	return q, nil
}

// Enqueue adds a command to the queue. It never fails; after Close the
// command is dropped with a warning.
func (q *Queue) Enqueue(cmd command.Command) {
	q.length.Add(1)
	if !q.send(event{kind: eventEnqueue, cmd: cmd}) {
		q.length.Add(-1)
		logging.Warn("Queue: dropping command %s enqueued after close", cmd.Name)
		return
	}
	q.enqueued.Add(1)
}

// StartProcessing enables batch closing. Commands enqueued earlier are moved
// into the live buffer, in order, before any later command. Calling it again
// has no effect.
func (q *Queue) StartProcessing() {
	q.send(event{kind: eventStart})
}

// Process closes the current buffer immediately, starting processing first
// if needed. An empty buffer closes as a no-op.
func (q *Queue) Process() {
	q.send(event{kind: eventProcess})
}

// Flush is Process followed by waiting until every batch closed so far,
// including the one Process closed, has finished its round trip.
func (q *Queue) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	if !q.send(event{kind: eventProcess, barrier: barrier}) {
		return ErrClosed
	}

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Length returns the number of commands enqueued whose batch has not yet
// completed its round trip.
func (q *Queue) Length() int {
	return int(q.length.Load())
}

// Started reports whether processing has started.
func (q *Queue) Started() bool {
	return q.startedFlag.Load()
}

// Close stops accepting events. If processing had started, the current
// buffer is closed and dispatched; commands still waiting for a start are
// dropped. Close waits for the dispatcher to drain or for ctx to expire.
func (q *Queue) Close(ctx context.Context) error {
	q.closeOnce.Do(func() {
		close(q.quit)
	})

	select {
	case <-q.dispatchDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// send hands ev to the event loop. It returns false once the queue is closed.
func (q *Queue) send(ev event) bool {
	select {
	case <-q.quit:
		return false
	default:
	}

	select {
	case q.events <- ev:
		return true
	case <-q.quit:
		return false
	}
}

// ============================================================================
// EVENT LOOP
// ============================================================================

func (q *Queue) run() {
	for {
		select {
		case ev := <-q.events:
			q.handle(ev)

		case <-q.debounceC:
			q.debounceC = nil
			q.closeBuffer(TriggerDebounce)

		case <-q.quit:
			q.shutdown()
			return
		}
	}
}

func (q *Queue) handle(ev event) {
	switch ev.kind {
	case eventEnqueue:
		if !q.started {
			q.replay = append(q.replay, ev.cmd)
			logging.Debug("Queue: holding %s until processing starts (%d held)", ev.cmd.Name, len(q.replay))
			return
		}
		q.accept(ev.cmd)

	case eventStart:
		q.start()

	case eventProcess:
		q.start()
		q.closeBuffer(TriggerManual)
		if ev.barrier != nil {
			q.push(&batch{barrier: ev.barrier})
		}
	}
}

// start moves the replay list into the live buffer on the first call.
func (q *Queue) start() {
	if q.started {
		return
	}
	q.started = true
	q.startedFlag.Store(true)

	replay := q.replay
	q.replay = nil

	logging.Info("Queue: processing started (replaying %d held commands)", len(replay))
	for _, cmd := range replay {
		q.accept(cmd)
	}
}

// accept adds a command to the live buffer, closing the buffer first when
// the lifetime intake count crosses the size limit.
func (q *Queue) accept(cmd command.Command) {
	q.intake++
	limit := q.opts.MaxProcessedCommands
	if q.intake > limit && (q.intake-1)%limit == 0 {
		q.closeBuffer(TriggerSizeLimit)
	}

	q.buffer = append(q.buffer, cmd)
	q.resetDebounce()
}

// closeBuffer turns the current buffer into a batch and opens a new one.
func (q *Queue) closeBuffer(trigger Trigger) {
	q.stopDebounce()

	if len(q.buffer) == 0 {
		logging.Debug("Queue: %s trigger on empty buffer, nothing to dispatch", trigger)
		return
	}

	b := &batch{
		id:       utils.GenerateBatchID(),
		commands: q.buffer,
		trigger:  trigger,
	}
	q.buffer = nil

	logging.Debug("Queue: closed batch %s with %d commands (%s)", logging.FormatBatchID(b.id), len(b.commands), trigger)
	q.push(b)
}

func (q *Queue) resetDebounce() {
	if q.debounce == nil {
		q.debounce = time.NewTimer(q.opts.DebounceTime)
	} else {
		q.stopDebounce()
		q.debounce.Reset(q.opts.DebounceTime)
	}
	q.debounceC = q.debounce.C
}

func (q *Queue) stopDebounce() {
	if q.debounce != nil && !q.debounce.Stop() {
		select {
		case <-q.debounce.C:
		default:
		}
	}
	q.debounceC = nil
}

func (q *Queue) shutdown() {
	if q.started {
		q.closeBuffer(TriggerShutdown)
	} else if len(q.replay) > 0 {
		logging.Warn("Queue: closing before processing started, dropping %d held commands", len(q.replay))
		q.length.Add(-int64(len(q.replay)))
		q.replay = nil
	}
	q.stopDebounce()

	q.mu.Lock()
	q.loopExited = true
	q.mu.Unlock()
	q.signal()
}

// ============================================================================
// DISPATCH
// ============================================================================

func (q *Queue) push(b *batch) {
	q.mu.Lock()
	q.pending = append(q.pending, b)
	q.mu.Unlock()
	q.signal()
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// next blocks until a batch is available. It returns false once the loop
// has exited and every pending batch was handed out.
func (q *Queue) next() (*batch, bool) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			b := q.pending[0]
			q.pending[0] = nil
			q.pending = q.pending[1:]
			q.mu.Unlock()
			return b, true
		}
		exited := q.loopExited
		q.mu.Unlock()

		if exited {
			return nil, false
		}
		<-q.wake
	}
}

func (q *Queue) dispatchLoop() {
	defer close(q.dispatchDone)

	for {
		b, ok := q.next()
		if !ok {
			return
		}
		if b.barrier != nil {
			close(b.barrier)
			continue
		}
		q.dispatch(b)
	}
}

// dispatch sends one batch and pairs the results with its commands by
// position.
func (q *Queue) dispatch(b *batch) {
	ctx := transport.WithBatchID(context.Background(), b.id)
	if q.opts.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.opts.DispatchTimeout)
		defer cancel()
	}

	start := time.Now()
	results, err := q.transport.Send(ctx, b.commands)
	if err == nil {
		err = transport.CheckResults(len(b.commands), results)
	}
	q.length.Add(-int64(len(b.commands)))

	if err != nil {
		q.fail(b, err)
		return
	}

	q.dispatched.Add(1)
	q.statsMu.Lock()
	q.lastDispatch = time.Now()
	q.lastBatchSize = len(b.commands)
	q.statsMu.Unlock()

	logging.Info("Queue: dispatched batch %s with %d commands (%s, took %v)",
		logging.FormatBatchID(b.id), len(b.commands), b.trigger, time.Since(start))

	for i, cmd := range b.commands {
		if cmd.Callback == nil {
			continue
		}
		q.invoke(b, cmd, results[i])
	}
}

func (q *Queue) fail(b *batch, err error) {
	q.failed.Add(1)
	derr := &DispatchError{BatchID: b.id, Size: len(b.commands), Err: err}

	q.statsMu.Lock()
	q.lastError = derr.Error()
	q.statsMu.Unlock()

	logging.Error("Queue: %v", derr)
	if q.opts.ErrorHandler != nil {
		q.opts.ErrorHandler(derr)
	}
}

// invoke runs one callback. A panicking callback is logged and does not stop
// the rest of the batch.
func (q *Queue) invoke(b *batch, cmd command.Command, result command.Result) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Queue: callback for %s in batch %s panicked: %v", cmd.Name, logging.FormatBatchID(b.id), r)
		}
	}()

	cmd.Callback(result)
	q.delivered.Add(1)
}
