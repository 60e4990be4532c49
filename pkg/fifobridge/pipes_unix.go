//go:build unix

package fifobridge

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"
)

// allocatePipes creates a private temp directory holding the request and
// response FIFOs.
func allocatePipes(parentDir, invocationID string) (*pipePair, error) {
	dir, err := os.MkdirTemp(parentDir, dirPrefix+invocationID+"-*")
	if err != nil {
		return nil, fmt.Errorf("%w: temp directory: %w", ErrCreate, err)
	}

	pair := &pipePair{
		dir:      dir,
		request:  filepath.Join(dir, requestPipeName),
		response: filepath.Join(dir, responsePipeName),
	}

	for _, path := range []string{pair.request, pair.response} {
		if err := mkfifo(path); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("%w: fifo %s: %w", ErrCreate, path, err)
		}
	}

	return pair, nil
}

// mkfifo creates a FIFO with pipeMode regardless of the process umask.
func mkfifo(path string) error {
	if err := unix.Mkfifo(path, pipeMode); err != nil {
		return err
	}
	return os.Chmod(path, pipeMode)
}

// holdForks blocks os/exec from forking until the returned func is called.
// Descriptors opened and closed in between are never inherited by a child.
func holdForks() (release func()) {
	syscall.ForkLock.RLock()
	return syscall.ForkLock.RUnlock
}
