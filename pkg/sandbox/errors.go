package sandbox

import "errors"

var (
	// ErrEmptyCommand is returned when the request names no program
	ErrEmptyCommand = errors.New("command is required")

	// ErrProcessStart is returned when the process could not be started
	ErrProcessStart = errors.New("failed to start process")

	// ErrExecutionTimeout is returned when execution times out
	ErrExecutionTimeout = errors.New("execution timed out")

	// ErrExecutionCanceled is returned when the caller's context is canceled
	ErrExecutionCanceled = errors.New("execution canceled")
)
