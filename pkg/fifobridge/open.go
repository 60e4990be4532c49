package fifobridge

import (
	"context"
	"os"
)

type openResult struct {
	file *os.File
	err  error
}

// openFIFO opens a named pipe, blocking until the peer opens the other end
// or ctx is done.
//
// A pending FIFO open cannot be interrupted directly. On cancellation the
// pipe is opened O_RDWR, which always succeeds immediately and completes the
// blocked open; both handles are then closed and ctx.Err() is returned.
func openFIFO(ctx context.Context, path string, flag int) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make(chan openResult, 1)
	go func() {
		f, err := os.OpenFile(path, flag, 0)
		result <- openResult{file: f, err: err}
	}()

	select {
	case r := <-result:
		return r.file, r.err
	case <-ctx.Done():
	}

	unblock, unblockErr := os.OpenFile(path, os.O_RDWR, 0)
	if unblockErr != nil {
		// The path is gone or unreadable; the pending open may never return.
		return nil, ctx.Err()
	}
	r := <-result
	unblock.Close()
	if r.file != nil {
		r.file.Close()
	}
	return nil, ctx.Err()
}
