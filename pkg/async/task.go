package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PanicError is returned from Task.Wait when the task function panicked.
type PanicError struct {
	TaskName string
	Value    interface{}
	Stack    []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.TaskName, e.Value)
}

// TaskOption configures a Task.
type TaskOption func(*taskOptions)

type taskOptions struct {
	timeout time.Duration
	log     logrus.FieldLogger
}

// WithTimeout bounds the task's context. Zero means no timeout.
func WithTimeout(timeout time.Duration) TaskOption {
	return func(o *taskOptions) {
		o.timeout = timeout
	}
}

// WithLogger sets the logger used to report task failures.
func WithLogger(log logrus.FieldLogger) TaskOption {
	return func(o *taskOptions) {
		o.log = log
	}
}

// Task is a single background function whose result can be joined.
type Task struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Go starts fn on a new goroutine and returns immediately.
//
// The task's context is derived from parentCtx, so cancelling the parent
// cancels the task. Errors and recovered panics are logged and kept for Wait.
//
// Example:
//
//	task := Go(ctx, "worker", func(ctx context.Context) error {
//	    return work(ctx)
//	}, WithTimeout(30*time.Second))
//	defer task.Cancel()
func Go(parentCtx context.Context, taskName string, fn func(context.Context) error, opts ...TaskOption) *Task {
	o := &taskOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logrus.StandardLogger()
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if o.timeout > 0 {
		ctx, cancel = context.WithTimeout(parentCtx, o.timeout)
	} else {
		ctx, cancel = context.WithCancel(parentCtx)
	}

	t := &Task{
		name:   taskName,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		defer cancel()

		err := run(ctx, taskName, fn)
		if err != nil {
			entry := o.log.WithField("task", taskName).WithError(err)
			if p, ok := err.(*PanicError); ok {
				entry.Errorf("PANIC in task\nStack trace:\n%s", p.Stack)
			} else {
				entry.Warn("task failed")
			}
		}

		t.mu.Lock()
		t.err = err
		t.mu.Unlock()
	}()

	return t
}

// run calls fn, converting a panic into a *PanicError.
func run(ctx context.Context, taskName string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				TaskName: taskName,
				Value:    r,
				Stack:    debug.Stack(),
			}
		}
	}()

	return fn(ctx)
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

// Done returns a channel closed when the task function has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Cancel cancels the task's context. It does not wait for the task to return.
func (t *Task) Cancel() {
	t.cancel()
}

// Err returns the task's error, or nil if it has not finished or succeeded.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the task finishes or ctx is done, whichever comes first.
// If ctx ends first its error is returned and the task keeps running.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
