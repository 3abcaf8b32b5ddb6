// Package sandbox executes candidate test suites in isolated throwaway
// workspaces.
//
// This file defines sentinel errors and an error wrapper for classifying
// sandbox failures. Callers use errors.Is/errors.As for typed assertions
// rather than string matching.
package sandbox

import (
	"errors"
	"fmt"
)

// Sentinel errors for sandbox failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrTimeout indicates the run was terminated by the wall-clock limit.
	ErrTimeout = errors.New("sandbox timed out")

	// ErrIO indicates the workspace could not be materialized or read back.
	ErrIO = errors.New("sandbox i/o failure")

	// ErrInterpreter indicates the configured interpreter could not be started.
	ErrInterpreter = errors.New("interpreter not runnable")
)

// Error wraps an underlying error with sandbox classification.
// It preserves the original error in the chain for inspection via errors.As.
type Error struct {
	// Kind is the sentinel error for classification (e.g., ErrTimeout).
	Kind error
	// Op is the operation that failed (e.g., "materialize", "exec").
	Op string
	// Path is the workspace path involved, if any.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func newError(kind error, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
