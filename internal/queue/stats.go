package queue

import "time"

// Stats is a point-in-time snapshot of queue counters.
type Stats struct {
	Started              bool      `json:"started"`
	Length               int       `json:"length"`
	Enqueued             int64     `json:"enqueued"`
	BatchesDispatched    int64     `json:"batches_dispatched"`
	BatchesFailed        int64     `json:"batches_failed"`
	CallbacksDelivered   int64     `json:"callbacks_delivered"`
	LastBatchSize        int       `json:"last_batch_size,omitempty"`
	LastDispatchAt       time.Time `json:"last_dispatch_at,omitempty"`
	LastError            string    `json:"last_error,omitempty"`
	DebounceTime         string    `json:"debounce_time"`
	MaxProcessedCommands int       `json:"max_processed_commands"`
}

// Stats returns current counters. Values are read independently and may be
// momentarily inconsistent with each other while batches are in flight.
func (q *Queue) Stats() Stats {
	q.statsMu.Lock()
	lastDispatch := q.lastDispatch
	lastError := q.lastError
	lastBatchSize := q.lastBatchSize
	q.statsMu.Unlock()

	return Stats{
		Started:              q.Started(),
		Length:               q.Length(),
		Enqueued:             q.enqueued.Load(),
		BatchesDispatched:    q.dispatched.Load(),
		BatchesFailed:        q.failed.Load(),
		CallbacksDelivered:   q.delivered.Load(),
		LastBatchSize:        lastBatchSize,
		LastDispatchAt:       lastDispatch,
		LastError:            lastError,
		DebounceTime:         q.opts.DebounceTime.String(),
		MaxProcessedCommands: q.opts.MaxProcessedCommands,
	}
}
