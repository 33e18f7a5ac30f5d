package sync

import (
	"context"
	"sync"
	"time"

	"compass/internal/log"
)

const defaultTaskTimeout = 10 * time.Second

// Detached runs background reconciliation tasks. Tasks get a fresh
// context detached from the caller so an unmounted request cannot cancel
// a remote write mid-flight. Failures are logged and swallowed; the local
// cache is already the record of truth by the time a task runs.
type Detached struct {
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *log.Logger
}

// NewDetached creates a runner whose tasks are each bounded by timeout.
// A zero timeout falls back to the default.
func NewDetached(timeout time.Duration, logger *log.Logger) *Detached {
	if timeout <= 0 {
		timeout = defaultTaskTimeout
	}
	return &Detached{
		timeout: timeout,
		logger:  logger.WithComponent(log.ComponentSync),
	}
}

// Go launches fn on its own goroutine with a fresh, time-bounded context.
// Errors and panics are logged with the task name and never propagated.
func (d *Detached) Go(name string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("Background task panicked",
					log.FieldTask, name,
					"panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			d.logger.Warn("Background task failed",
				log.FieldTask, name,
				log.FieldError, err.Error())
		}
	}()
}

// Wait blocks until all launched tasks have finished. Used at shutdown
// and by tests to make background effects observable.
func (d *Detached) Wait() {
	d.wg.Wait()
}
