package fifobridge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCreate is returned by Prepare when the temp directory, a FIFO or
	// the script cannot be created. No bridge exists after this error.
	ErrCreate = errors.New("failed to create bridge resources")

	// ErrUnsupported is returned by Prepare on platforms without named pipes.
	ErrUnsupported = errors.New("named pipes are not supported on this platform")

	// ErrPlugin wraps an error returned by the in-process generator.
	ErrPlugin = errors.New("in-process plugin failed")
)

// CleanupError lists the bridge resources that could not be removed.
// Paths that were already gone are not reported.
type CleanupError struct {
	Failures []error
}

func (e *CleanupError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, err := range e.Failures {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("failed to remove %d bridge resource(s): %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *CleanupError) Unwrap() []error {
	return e.Failures
}
