package runner

import (
	"errors"
	"fmt"
)

// ErrMeasureNotConfigured is returned by Run when Measure was never called.
var ErrMeasureNotConfigured = errors.New("measure operation is not configured")

// SetupError reports a fault in the one-time setup operation.
type SetupError struct {
	Action string
	Err    error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup failed for %q: %v", e.Action, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// WarmupError reports a fault in a warmup invocation.
type WarmupError struct {
	Action string
	Index  int
	Err    error
}

func (e *WarmupError) Error() string {
	return fmt.Sprintf("warmup %d failed for %q: %v", e.Index, e.Action, e.Err)
}

func (e *WarmupError) Unwrap() error { return e.Err }

// PanicError carries a value recovered from a panicking operation.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("operation panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
