// Package async provides joinable background tasks for blocking work.
//
// # Overview
//
// A Task runs one function on its own goroutine with panic recovery, optional
// timeout enforcement and context cancellation. Unlike a bare `go func()`, the
// function's error is kept and handed back to whoever calls Wait.
//
// # Usage
//
//	task := async.Go(ctx, "fifo bridge worker", func(ctx context.Context) error {
//		return serve(ctx)
//	}, async.WithLogger(log))
//
//	// ... later, once the peer process has exited
//	if err := task.Wait(ctx); err != nil {
//		return err
//	}
//
// # Features
//
// Panic Recovery: panics become a *PanicError carrying the stack
// Timeout Enforcement: WithTimeout bounds the task's context
// Cancellation: Cancel cancels the task's context; Wait never blocks past its own ctx
//
// Blocking system calls (FIFO opens, pipe reads) park only the goroutine's
// thread, so a Task is safe to use for them.
package async
