package queue

import (
	"fmt"
	"time"

	"github.com/concave-dev/cmdq/internal/config"
	"github.com/concave-dev/cmdq/internal/validate"
)

// Options is the configuration captured when a Queue is created.
type Options struct {
	// DebounceTime closes the current buffer once no command has been
	// enqueued for this long. Zero closes it as soon as intake goes idle.
	DebounceTime time.Duration

	// MaxProcessedCommands is the cumulative item cap. Every time the
	// lifetime intake count passes a multiple of it, the current buffer
	// closes before the next command is added.
	MaxProcessedCommands int `validate:"min=1"`

	// DispatchTimeout bounds a single Send call. Zero means no deadline.
	DispatchTimeout time.Duration

	// ErrorHandler observes failed dispatches. It runs on the dispatcher
	// goroutine and receives a *DispatchError. Failures are always logged.
	ErrorHandler func(err error) `validate:"-"`
}

// DefaultOptions returns a 500ms debounce window and a cap of 10 commands.
func DefaultOptions() Options {
	return Options{
		DebounceTime:         config.DefaultDebounceTime,
		MaxProcessedCommands: config.DefaultMaxProcessedCommands,
	}
}

// Validate checks the options before a queue is built.
func (o Options) Validate() error {
	if err := validate.ValidateNonNegativeDuration(o.DebounceTime, "debounce time"); err != nil {
		return err
	}
	if err := validate.ValidateNonNegativeDuration(o.DispatchTimeout, "dispatch timeout"); err != nil {
		return err
	}
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid queue options: %w", err)
	}
	return nil
}
