package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/concave-dev/cmdq/internal/command"
	"github.com/concave-dev/cmdq/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
	never   = time.Hour
)

// recordingTransport answers each command with its name and batch position
// and records every batch it receives
type recordingTransport struct {
	mu      sync.Mutex
	batches [][]string
	sentAt  []time.Time

	delay time.Duration
	err   error
	short bool
}

func (r *recordingTransport) Send(ctx context.Context, batch []command.Command) ([]command.Result, error) {
	names := make([]string, len(batch))
	for i, cmd := range batch {
		names[i] = cmd.Name
	}

	r.mu.Lock()
	r.batches = append(r.batches, names)
	r.sentAt = append(r.sentAt, time.Now())
	r.mu.Unlock()

	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.err != nil {
		return nil, r.err
	}

	results := make([]command.Result, len(batch))
	for i, cmd := range batch {
		results[i] = command.Result{"name": cmd.Name, "pos": strconv.Itoa(i)}
	}
	if r.short {
		results = results[:len(results)-1]
	}
	return results, nil
}

func (r *recordingTransport) Batches() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([][]string, len(r.batches))
	copy(out, r.batches)
	return out
}

func (r *recordingTransport) SentAt(i int) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sentAt[i]
}

func newTestQueue(t *testing.T, tr transport.Transport, debounce time.Duration, max int) *Queue {
	t.Helper()

	q, err := New(tr, Options{DebounceTime: debounce, MaxProcessedCommands: max})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = q.Close(ctx)
	})
	return q
}

func names(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

func enqueueAll(q *Queue, ns []string) {
	for _, n := range ns {
		q.Enqueue(command.Command{Name: n})
	}
}

// resultRecorder collects callback results by command name
type resultRecorder struct {
	mu      sync.Mutex
	results map[string]command.Result
	order   []string
}

func newResultRecorder() *resultRecorder {
	return &resultRecorder{results: make(map[string]command.Result)}
}

func (r *resultRecorder) callback(name string) command.Callback {
	return func(res command.Result) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.results[name] = res
		r.order = append(r.order, name)
	}
}

func (r *resultRecorder) called(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.results[name]
	return ok
}

func (r *resultRecorder) get(name string) command.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[name]
}

func (r *resultRecorder) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func TestNewValidation(t *testing.T) {
	tr := &recordingTransport{}

	tests := []struct {
		name    string
		tr      transport.Transport
		opts    Options
		wantErr bool
	}{
		{name: "defaults", tr: tr, opts: DefaultOptions()},
		{name: "zero debounce allowed", tr: tr, opts: Options{MaxProcessedCommands: 1}},
		{name: "nil transport", tr: nil, opts: DefaultOptions(), wantErr: true},
		{name: "zero max", tr: tr, opts: Options{DebounceTime: time.Second}, wantErr: true},
		{name: "negative debounce", tr: tr, opts: Options{DebounceTime: -time.Second, MaxProcessedCommands: 1}, wantErr: true},
		{name: "negative dispatch timeout", tr: tr, opts: Options{MaxProcessedCommands: 1, DispatchTimeout: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := New(tt.tr, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, q)
				return
			}
			require.NoError(t, err)
			require.NoError(t, q.Close(context.Background()))
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 500*time.Millisecond, opts.DebounceTime)
	assert.Equal(t, 10, opts.MaxProcessedCommands)
}

func TestEnqueueLength(t *testing.T) {
	q := newTestQueue(t, &recordingTransport{}, never, 10)

	q.Enqueue(command.Command{Name: "ping"})
	assert.Equal(t, 1, q.Length())

	q.Enqueue(command.Command{Name: "ping"})
	q.Enqueue(command.Command{Name: "time"})
	assert.Equal(t, 3, q.Length())
}

func TestProcessDeliversImmediately(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, never, 10)
	rec := newResultRecorder()

	q.Enqueue(command.Command{Name: "ping", Callback: rec.callback("ping")})
	q.Enqueue(command.Command{Name: "time", Callback: rec.callback("time")})
	q.Process()

	require.Eventually(t, func() bool {
		return rec.called("ping") && rec.called("time")
	}, waitFor, tick)

	assert.Equal(t, [][]string{{"ping", "time"}}, tr.Batches())
	assert.True(t, q.Started(), "Process starts processing implicitly")
	assert.Equal(t, 0, q.Length())
}

func TestProcessExcludesLaterCommands(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, never, 10)
	rec := newResultRecorder()

	q.Enqueue(command.Command{Name: "ping", Callback: rec.callback("ping")})
	q.Process()
	q.Enqueue(command.Command{Name: "time", Callback: rec.callback("time")})

	require.Eventually(t, func() bool { return rec.called("ping") }, waitFor, tick)
	time.Sleep(50 * time.Millisecond)
	assert.False(t, rec.called("time"))
	assert.Equal(t, 1, q.Length())

	require.NoError(t, q.Flush(context.Background()))
	assert.True(t, rec.called("time"))
	assert.Equal(t, [][]string{{"ping"}, {"time"}}, tr.Batches())
}

func TestProcessSingleCommand(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, never, 10)
	q.StartProcessing()

	q.Enqueue(command.Command{Name: "only"})
	q.Process()

	require.Eventually(t, func() bool { return len(tr.Batches()) == 1 }, waitFor, tick)
	assert.Equal(t, [][]string{{"only"}}, tr.Batches())
}

func TestProcessOnEmptyBufferIsNoop(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, never, 10)

	q.Process()
	require.NoError(t, q.Flush(context.Background()))

	assert.Empty(t, tr.Batches())
	assert.True(t, q.Started())
	assert.EqualValues(t, 0, q.Stats().BatchesDispatched)
}

func TestStartProcessingDebounce(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, 50*time.Millisecond, 10)
	rec := newResultRecorder()

	q.StartProcessing()
	q.Enqueue(command.Command{Name: "test", Callback: rec.callback("test")})

	assert.False(t, rec.called("test"))
	require.Eventually(t, func() bool { return rec.called("test") }, waitFor, tick)
	assert.Equal(t, [][]string{{"test"}}, tr.Batches())
}

func TestNothingClosesBeforeStart(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, 10*time.Millisecond, 2)

	enqueueAll(q, names("c", 5))
	time.Sleep(60 * time.Millisecond)

	assert.Empty(t, tr.Batches(), "no batch may close before processing starts")
	assert.Equal(t, 5, q.Length())
	assert.False(t, q.Started())
}

func TestReplayBeforeStart(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, 20*time.Millisecond, 100)

	enqueueAll(q, names("c", 5))
	q.StartProcessing()
	q.Enqueue(command.Command{Name: "after"})

	require.Eventually(t, func() bool { return len(tr.Batches()) == 1 }, waitFor, tick)
	assert.Equal(t, [][]string{append(names("c", 5), "after")}, tr.Batches())
}

func TestStartProcessingIdempotent(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, never, 100)

	enqueueAll(q, names("c", 3))
	q.StartProcessing()
	q.StartProcessing()
	q.Process()
	q.StartProcessing()

	require.NoError(t, q.Flush(context.Background()))
	assert.Equal(t, [][]string{names("c", 3)}, tr.Batches(), "replayed commands must not be duplicated")
}

func TestSizeLimitClosesBuffer(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, never, 3)
	q.StartProcessing()

	enqueueAll(q, names("c", 4))

	require.Eventually(t, func() bool { return len(tr.Batches()) == 1 }, waitFor, tick)
	assert.Equal(t, [][]string{{"c0", "c1", "c2"}}, tr.Batches())
	require.Eventually(t, func() bool { return q.Length() == 1 }, waitFor, tick)

	require.NoError(t, q.Flush(context.Background()))
	assert.Equal(t, [][]string{{"c0", "c1", "c2"}, {"c3"}}, tr.Batches())
}

func TestSizeLimitExactlyMaxDoesNotClose(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, never, 3)
	q.StartProcessing()

	enqueueAll(q, names("c", 3))
	time.Sleep(30 * time.Millisecond)

	assert.Empty(t, tr.Batches())
}

func TestSizeLimitCounterIsCumulative(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, 30*time.Millisecond, 3)
	q.StartProcessing()

	enqueueAll(q, []string{"c1", "c2"})
	require.Eventually(t, func() bool { return len(tr.Batches()) == 1 }, waitFor, tick)

	// Lifetime intake is now 2: the 4th command overall closes the buffer
	// holding only c3
	enqueueAll(q, []string{"c3", "c4", "c5"})
	require.Eventually(t, func() bool { return len(tr.Batches()) == 3 }, waitFor, tick)

	assert.Equal(t, [][]string{{"c1", "c2"}, {"c3"}, {"c4", "c5"}}, tr.Batches())
}

func TestDebounceResetsOnEnqueue(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, 200*time.Millisecond, 100)
	q.StartProcessing()

	q.Enqueue(command.Command{Name: "a"})
	time.Sleep(120 * time.Millisecond)
	q.Enqueue(command.Command{Name: "b"})
	time.Sleep(120 * time.Millisecond)

	assert.Empty(t, tr.Batches(), "debounce window must restart on every enqueue")

	require.Eventually(t, func() bool { return len(tr.Batches()) == 1 }, waitFor, tick)
	assert.Equal(t, [][]string{{"a", "b"}}, tr.Batches())
}

func TestReplayScenarioSizeThenDebounce(t *testing.T) {
	const debounce = 100 * time.Millisecond

	tr := &recordingTransport{}
	q := newTestQueue(t, tr, debounce, 10)

	all := names("c", 15)
	enqueueAll(q, all)
	started := time.Now()
	q.StartProcessing()

	require.Eventually(t, func() bool { return len(tr.Batches()) == 2 }, waitFor, tick)

	batches := tr.Batches()
	assert.Equal(t, all[:10], batches[0], "first ten close on the size limit")
	assert.Equal(t, all[10:], batches[1], "remaining five close on debounce")
	assert.GreaterOrEqual(t, tr.SentAt(1).Sub(started), debounce)
}

func TestCallbacksReceivePositionalResults(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, never, 10)
	rec := newResultRecorder()

	for _, n := range []string{"a", "b", "c"} {
		q.Enqueue(command.Command{Name: n, Callback: rec.callback(n)})
	}
	require.NoError(t, q.Flush(context.Background()))

	for i, n := range []string{"a", "b", "c"} {
		res := rec.get(n)
		assert.Equal(t, n, res["name"])
		assert.Equal(t, strconv.Itoa(i), res["pos"])
	}
	assert.Equal(t, []string{"a", "b", "c"}, rec.Order())
}

func TestCommandsWithoutCallbackAreSent(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, never, 10)
	rec := newResultRecorder()

	q.Enqueue(command.Command{Name: "fire-and-forget"})
	q.Enqueue(command.Command{Name: "wanted", Callback: rec.callback("wanted")})
	require.NoError(t, q.Flush(context.Background()))

	assert.Equal(t, [][]string{{"fire-and-forget", "wanted"}}, tr.Batches())
	assert.Equal(t, "1", rec.get("wanted")["pos"])
	assert.EqualValues(t, 1, q.Stats().CallbacksDelivered)
}

func TestBatchesDispatchInCloseOrder(t *testing.T) {
	tr := &recordingTransport{delay: 20 * time.Millisecond}
	q := newTestQueue(t, tr, never, 10)
	rec := newResultRecorder()

	for _, n := range []string{"a", "b", "c"} {
		q.Enqueue(command.Command{Name: n, Callback: rec.callback(n)})
		q.Process()
	}
	require.NoError(t, q.Flush(context.Background()))

	assert.Equal(t, []string{"a", "b", "c"}, rec.Order())
	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, tr.Batches())
}

func TestTransportFailure(t *testing.T) {
	boom := errors.New("network down")
	tr := &recordingTransport{err: boom}
	errCh := make(chan error, 1)

	q, err := New(tr, Options{
		DebounceTime:         never,
		MaxProcessedCommands: 10,
		ErrorHandler:         func(err error) { errCh <- err },
	})
	require.NoError(t, err)
	defer q.Close(context.Background())

	rec := newResultRecorder()
	q.Enqueue(command.Command{Name: "a", Callback: rec.callback("a")})
	q.Enqueue(command.Command{Name: "b", Callback: rec.callback("b")})
	require.NoError(t, q.Flush(context.Background()))

	select {
	case got := <-errCh:
		var derr *DispatchError
		require.True(t, errors.As(got, &derr))
		assert.Equal(t, 2, derr.Size)
		assert.NotEmpty(t, derr.BatchID)
		assert.ErrorIs(t, got, boom)
	case <-time.After(waitFor):
		t.Fatal("error handler was not called")
	}

	assert.False(t, rec.called("a"))
	assert.False(t, rec.called("b"))
	assert.Equal(t, 0, q.Length())

	stats := q.Stats()
	assert.EqualValues(t, 1, stats.BatchesFailed)
	assert.EqualValues(t, 0, stats.BatchesDispatched)
	assert.Contains(t, stats.LastError, "network down")
}

func TestResultCountMismatchFailsBatch(t *testing.T) {
	tr := &recordingTransport{short: true}
	errCh := make(chan error, 1)

	q, err := New(tr, Options{
		DebounceTime:         never,
		MaxProcessedCommands: 10,
		ErrorHandler:         func(err error) { errCh <- err },
	})
	require.NoError(t, err)
	defer q.Close(context.Background())

	rec := newResultRecorder()
	q.Enqueue(command.Command{Name: "a", Callback: rec.callback("a")})
	q.Enqueue(command.Command{Name: "b", Callback: rec.callback("b")})
	require.NoError(t, q.Flush(context.Background()))

	require.Len(t, errCh, 1)
	assert.ErrorIs(t, <-errCh, transport.ErrResultCount)
	assert.False(t, rec.called("a"))
}

func TestDispatchTimeout(t *testing.T) {
	errCh := make(chan error, 1)
	q, err := New(&transport.Stub{MinDelay: time.Minute}, Options{
		DebounceTime:         never,
		MaxProcessedCommands: 10,
		DispatchTimeout:      20 * time.Millisecond,
		ErrorHandler:         func(err error) { errCh <- err },
	})
	require.NoError(t, err)
	defer q.Close(context.Background())

	q.Enqueue(command.Command{Name: "slow"})
	require.NoError(t, q.Flush(context.Background()))

	require.Len(t, errCh, 1)
	assert.ErrorIs(t, <-errCh, context.DeadlineExceeded)
}

func TestCallbackPanicDoesNotAffectSiblings(t *testing.T) {
	q := newTestQueue(t, &recordingTransport{}, never, 10)
	rec := newResultRecorder()

	q.Enqueue(command.Command{Name: "bad", Callback: func(command.Result) { panic("boom") }})
	q.Enqueue(command.Command{Name: "good", Callback: rec.callback("good")})
	require.NoError(t, q.Flush(context.Background()))

	assert.True(t, rec.called("good"))
}

func TestCallbackCanEnqueue(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, 20*time.Millisecond, 10)
	rec := newResultRecorder()

	q.Enqueue(command.Command{Name: "first", Callback: func(command.Result) {
		q.Enqueue(command.Command{Name: "second", Callback: rec.callback("second")})
	}})
	q.StartProcessing()

	require.Eventually(t, func() bool { return rec.called("second") }, waitFor, tick)
	assert.Equal(t, [][]string{{"first"}, {"second"}}, tr.Batches())
}

func TestFlushWaitsForDispatch(t *testing.T) {
	tr := &recordingTransport{delay: 50 * time.Millisecond}
	q := newTestQueue(t, tr, never, 10)

	var called atomic.Bool
	q.Enqueue(command.Command{Name: "a", Callback: func(command.Result) { called.Store(true) }})

	require.NoError(t, q.Flush(context.Background()))
	assert.True(t, called.Load())
}

func TestFlushHonoursContext(t *testing.T) {
	tr := &recordingTransport{delay: 200 * time.Millisecond}
	q := newTestQueue(t, tr, never, 10)

	q.Enqueue(command.Command{Name: "a"})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, q.Flush(ctx), context.DeadlineExceeded)
}

func TestCloseDrainsStartedBuffer(t *testing.T) {
	tr := &recordingTransport{}
	q, err := New(tr, Options{DebounceTime: never, MaxProcessedCommands: 10})
	require.NoError(t, err)

	rec := newResultRecorder()
	q.StartProcessing()
	q.Enqueue(command.Command{Name: "a", Callback: rec.callback("a")})

	require.NoError(t, q.Close(context.Background()))
	assert.True(t, rec.called("a"))
	assert.Equal(t, [][]string{{"a"}}, tr.Batches())

	// Misuse after close never panics
	q.Enqueue(command.Command{Name: "late"})
	q.Process()
	q.StartProcessing()
	assert.Equal(t, 0, q.Length())
	assert.ErrorIs(t, q.Flush(context.Background()), ErrClosed)
	assert.NoError(t, q.Close(context.Background()))
}

func TestCloseDropsUnstartedCommands(t *testing.T) {
	tr := &recordingTransport{}
	q, err := New(tr, Options{DebounceTime: never, MaxProcessedCommands: 10})
	require.NoError(t, err)

	enqueueAll(q, names("c", 2))
	require.NoError(t, q.Close(context.Background()))

	assert.Empty(t, tr.Batches())
	assert.Equal(t, 0, q.Length())
}

func TestStats(t *testing.T) {
	tr := &recordingTransport{}
	q := newTestQueue(t, tr, 250*time.Millisecond, 4)

	stats := q.Stats()
	assert.False(t, stats.Started)
	assert.Equal(t, "250ms", stats.DebounceTime)
	assert.Equal(t, 4, stats.MaxProcessedCommands)

	enqueueAll(q, names("c", 3))
	require.NoError(t, q.Flush(context.Background()))

	stats = q.Stats()
	assert.True(t, stats.Started)
	assert.EqualValues(t, 3, stats.Enqueued)
	assert.EqualValues(t, 1, stats.BatchesDispatched)
	assert.Equal(t, 3, stats.LastBatchSize)
	assert.False(t, stats.LastDispatchAt.IsZero())
	assert.Equal(t, 0, stats.Length)
}

func TestTriggerString(t *testing.T) {
	assert.Equal(t, "debounce", TriggerDebounce.String())
	assert.Equal(t, "manual", TriggerManual.String())
	assert.Equal(t, "size_limit", TriggerSizeLimit.String())
	assert.Equal(t, "shutdown", TriggerShutdown.String())
	assert.Equal(t, "trigger(9)", Trigger(9).String())
}
