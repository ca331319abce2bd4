package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ApplyError is a kubectl apply that did not exit cleanly.
type ApplyError struct {
	Path string
	// ExitCode is -1 when the process could not be started or was killed
	// by the timeout.
	ExitCode int
	// Stderr is kept verbatim; Error trims it for the message.
	Stderr string
	Err    error
}

func (e *ApplyError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	switch {
	case e.ExitCode < 0:
		return fmt.Sprintf("kubectl apply -f %s: %v", e.Path, e.Err)
	case stderr != "":
		return fmt.Sprintf("kubectl apply -f %s: exit status %d: %s", e.Path, e.ExitCode, stderr)
	default:
		return fmt.Sprintf("kubectl apply -f %s: exit status %d", e.Path, e.ExitCode)
	}
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Timeout reports whether kubectl was killed by the deadline.
func (e *ApplyError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}
