package sandbox

import (
	"context"
	"time"
)

const (
	// DefaultTimeout bounds a process when the request sets none
	DefaultTimeout = 30 * time.Second

	// DefaultMaxOutputBytes caps stdout and stderr when the request sets no cap
	DefaultMaxOutputBytes = 1024 * 1024

	// DefaultWaitDelay is how long output pipes stay open after the process is killed
	DefaultWaitDelay = 500 * time.Millisecond
)

// ExecuteRequest represents a sandbox execution request
type ExecuteRequest struct {
	// Command is the program to execute
	Command string `json:"command"`

	// Args are the command arguments
	Args []string `json:"args"`

	// BaseEnv is the inherited environment in KEY=VALUE form, os.Environ() when nil
	BaseEnv []string `json:"-"`

	// Env are environment variables added on top of BaseEnv
	Env map[string]string `json:"env"`

	// WorkingDir is the working directory
	WorkingDir string `json:"working_dir"`

	// Timeout is the wall-clock limit
	Timeout time.Duration `json:"timeout"`

	// MaxOutputBytes caps stdout and stderr independently
	MaxOutputBytes int `json:"max_output_bytes"`
}

// ExecuteResult represents a sandbox execution result
type ExecuteResult struct {
	// Stdout is the captured standard output, at most MaxOutputBytes
	Stdout []byte `json:"stdout"`

	// Stderr is the captured standard error, at most MaxOutputBytes
	Stderr []byte `json:"stderr"`

	// ExitCode is the process exit code, -1 if it never exited normally
	ExitCode int `json:"exit_code"`

	// Duration is the execution duration
	Duration time.Duration `json:"duration"`

	// Truncated is set when either stream exceeded MaxOutputBytes
	Truncated bool `json:"truncated"`
}

// Sandbox runs a single command to completion
type Sandbox interface {
	// Execute runs a command and blocks until it exits, times out or fails to start
	Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error)
}
