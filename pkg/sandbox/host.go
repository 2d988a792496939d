package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// HostSandbox runs commands as plain host subprocesses. Isolation is limited
// to what the OS gives a child process: its own process group, a working
// directory, a wall-clock limit and capped output.
type HostSandbox struct {
	waitDelay time.Duration
}

// NewHostSandbox creates a new host-based sandbox
func NewHostSandbox() *HostSandbox {
	return &HostSandbox{waitDelay: DefaultWaitDelay}
}

// Execute runs a command and waits for it. On timeout the whole process
// group is killed and the output captured so far is returned together with
// ErrExecutionTimeout. A start failure returns ErrProcessStart.
func (h *HostSandbox) Execute(ctx context.Context, req ExecuteRequest) (ExecuteResult, error) {
	if req.Command == "" {
		return ExecuteResult{ExitCode: -1}, ErrEmptyCommand
	}

	// Apply timeout
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Create command
	cmd := exec.CommandContext(execCtx, req.Command, req.Args...)
	configureProcess(cmd)
	cmd.WaitDelay = h.waitDelay

	// Set working directory
	if req.WorkingDir != "" {
		cmd.Dir = req.WorkingDir
	}

	// Set environment variables
	base := req.BaseEnv
	if base == nil {
		base = os.Environ()
	}
	cmd.Env = buildEnvironment(base, req.Env)

	stdout := NewBoundedBuffer(req.MaxOutputBytes)
	stderr := NewBoundedBuffer(req.MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return ExecuteResult{
			ExitCode: -1,
			Duration: time.Since(start),
		}, fmt.Errorf("%w: %w", ErrProcessStart, err)
	}

	waitErr := cmd.Wait()
	duration := time.Since(start)

	result := ExecuteResult{
		Stdout:    stdout.Bytes(),
		Stderr:    stderr.Bytes(),
		ExitCode:  0,
		Duration:  duration,
		Truncated: stdout.Truncated() || stderr.Truncated(),
	}

	if err := interruption(waitErr, cmd.ProcessState, execCtx, ctx); err != nil {
		result.ExitCode = -1
		if errors.Is(err, ErrExecutionTimeout) {
			log.Debug().
				Str("command", req.Command).
				Dur("timeout", timeout).
				Msg("Command killed after timeout")
		}
		return result, err
	}

	switch {
	case cmd.ProcessState != nil:
		result.ExitCode = cmd.ProcessState.ExitCode()
	case waitErr != nil:
		result.ExitCode = -1
		log.Warn().Err(waitErr).Str("command", req.Command).Msg("Command wait failed")
	}

	log.Debug().
		Str("command", req.Command).
		Strs("args", req.Args).
		Int("exit_code", result.ExitCode).
		Dur("duration", duration).
		Bool("truncated", result.Truncated).
		Msg("Command executed in sandbox")

	return result, nil
}

// interruption reports whether a finished command was cut short by its own
// deadline or by the caller. A process that exited on its own is never an
// interruption, even when a context expired after it was reaped.
func interruption(waitErr error, state *os.ProcessState, execCtx, parent context.Context) error {
	if waitErr == nil {
		return nil
	}
	if state != nil && state.ExitCode() != -1 {
		return nil
	}

	switch {
	case parent.Err() != nil:
		return fmt.Errorf("%w: %w", ErrExecutionCanceled, parent.Err())
	case errors.Is(execCtx.Err(), context.DeadlineExceeded):
		return ErrExecutionTimeout
	}
	return nil
}

// buildEnvironment appends extra variables to the inherited environment.
// Keys in extra replace inherited entries with the same name.
func buildEnvironment(base []string, extra map[string]string) []string {
	result := make([]string, 0, len(base)+len(extra))
	for _, kv := range base {
		key := kv
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				key = kv[:i]
				break
			}
		}
		if _, overridden := extra[key]; overridden {
			continue
		}
		result = append(result, kv)
	}

	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		result = append(result, fmt.Sprintf("%s=%s", key, extra[key]))
	}

	return result
}
