package queue

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by blocking operations on a closed queue.
var ErrClosed = errors.New("queue is closed")

// DispatchError reports a batch whose transport round trip failed. None of
// the batch's callbacks were invoked.
type DispatchError struct {
	BatchID string
	Size    int
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch of batch %s (%d commands) failed: %v", e.BatchID, e.Size, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
