package core

import (
	"fmt"
	"time"
)

// MalformedResultError indicates the engine produced output that does not
// decode into the domain model. Path names the offending JSON field when
// known.
type MalformedResultError struct {
	Path   string
	Reason string
	Err    error
}

func (e *MalformedResultError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed engine result: %s", e.Reason)
	}
	return fmt.Sprintf("malformed engine result at %s: %s", e.Path, e.Reason)
}

func (e *MalformedResultError) Unwrap() error { return e.Err }

// EngineExecutionError indicates the engine ran and signaled failure, or
// violated its output contract. Output carries the captured combined
// stdout/stderr text verbatim.
type EngineExecutionError struct {
	ExitCode int
	Output   string
	// Reason is set when the failure is a contract violation rather than a
	// non-zero exit, e.g. a missing output file.
	Reason string
}

func (e *EngineExecutionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("engine execution failed: %s: %s", e.Reason, e.Output)
	}
	return fmt.Sprintf("engine execution failed (exit %d): %s", e.ExitCode, e.Output)
}

// Detail returns the client-facing failure text: the raw engine output when
// present, otherwise the error description.
func (e *EngineExecutionError) Detail() string {
	if e.Output != "" {
		return e.Output
	}
	return e.Error()
}

// EngineTimeoutError indicates the engine exceeded its wall-clock budget and
// was terminated.
type EngineTimeoutError struct {
	Timeout time.Duration
}

func (e *EngineTimeoutError) Error() string {
	return fmt.Sprintf("Timeout exceeded (%g s)", e.Timeout.Seconds())
}
