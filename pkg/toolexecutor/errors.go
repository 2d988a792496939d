package toolexecutor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrManifestMissing is returned when functions.json does not exist
	ErrManifestMissing = errors.New("manifest not found")

	// ErrManifestMalformed is returned when the manifest is not valid JSON or has an unexpected shape
	ErrManifestMalformed = errors.New("manifest malformed")

	// ErrToolExcluded is returned when a tool is removed by the security policy
	ErrToolExcluded = errors.New("tool excluded by policy")

	// ErrScriptNotFound is returned when no script file exists for a tool
	ErrScriptNotFound = errors.New("tool script not found")

	// ErrValidation is returned when call arguments do not satisfy the parameter schema
	ErrValidation = errors.New("parameter validation failed")

	// ErrProcessLaunch is returned when the tool process could not be started
	ErrProcessLaunch = errors.New("tool process launch failed")

	// ErrExecution is returned when the tool process exits non-zero
	ErrExecution = errors.New("tool execution failed")

	// ErrTimeout is returned when the tool process exceeds its wall-clock limit
	ErrTimeout = errors.New("tool execution timed out")

	// ErrCanceled is returned when the caller cancels the invocation
	ErrCanceled = errors.New("tool execution canceled")
)

// ValidationError lists the parameters that failed validation
type ValidationError struct {
	Tool    string
	Missing []string
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("tool '%s': required parameter(s) missing: %s", e.Tool, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("tool '%s': invalid parameters: %s", e.Tool, strings.Join(e.Details, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ProcessLaunchError wraps the OS error that prevented the tool from starting
type ProcessLaunchError struct {
	Tool string
	Err  error
}

func (e *ProcessLaunchError) Error() string {
	return fmt.Sprintf("tool '%s': failed to launch: %v", e.Tool, e.Err)
}

func (e *ProcessLaunchError) Unwrap() []error { return []error{ErrProcessLaunch, e.Err} }

// ExecutionError reports a non-zero exit status
type ExecutionError struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("tool '%s' failed with exit code %d", e.Tool, e.ExitCode)
	if e.Stderr != "" {
		msg += "\nStderr: " + e.Stderr
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return ErrExecution }

// TimeoutError reports a forced termination. Stdout holds what the tool
// printed before it was killed.
type TimeoutError struct {
	Tool    string
	Timeout time.Duration
	Stdout  string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("tool '%s' timed out after %v", e.Tool, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }
