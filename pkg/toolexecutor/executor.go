package toolexecutor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/harun/llmfunctions/internal/observability"
	"github.com/harun/llmfunctions/internal/tracing"
	"github.com/harun/llmfunctions/pkg/sandbox"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "github.com/harun/llmfunctions/pkg/toolexecutor"

// Environment variables handed to every tool process
const (
	// EnvOutputFile points at the per-invocation primary output file
	EnvOutputFile = "LLM_OUTPUT"

	// EnvRootDir points at the functions root
	EnvRootDir = "ROOT_DIR"
)

// Limits bounds a single tool invocation
type Limits struct {
	Timeout        time.Duration `json:"timeout" yaml:"timeout"`
	MaxOutputBytes int           `json:"max_output_bytes" yaml:"max_output_bytes"`
}

// DefaultLimits returns a 30 second timeout and a 1 MiB output cap
func DefaultLimits() Limits {
	return Limits{
		Timeout:        sandbox.DefaultTimeout,
		MaxOutputBytes: sandbox.DefaultMaxOutputBytes,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.Timeout <= 0 {
		l.Timeout = d.Timeout
	}
	if l.MaxOutputBytes <= 0 {
		l.MaxOutputBytes = d.MaxOutputBytes
	}
	return l
}

// ExecutionRequest is everything needed to run one invocation. It is built
// fresh for every call.
type ExecutionRequest struct {
	Script     Script
	Args       []string
	RootDir    string
	OutputPath string
	Limits     Limits
}

// ExecutionResult is the outcome of one invocation. Failed invocations
// still return a result carrying whatever was captured.
type ExecutionResult struct {
	ExitCode   int           `json:"exit_code"`
	Stdout     string        `json:"stdout"`
	Stderr     string        `json:"stderr"`
	OutputFile string        `json:"output_file,omitempty"`
	Truncated  bool          `json:"truncated,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Output returns the primary output: the output file contents when the
// tool wrote any, stdout otherwise.
func (r *ExecutionResult) Output() string {
	if r == nil {
		return ""
	}
	if r.OutputFile != "" {
		return r.OutputFile
	}
	return r.Stdout
}

// Executor runs resolved tool scripts as subprocesses of the host
type Executor struct {
	root     string
	resolver *Resolver
	limits   Limits
	sandbox  sandbox.Sandbox
	environ  func() []string
	tempDir  string
}

// Option configures an Executor
type Option func(*Executor)

// WithSandbox replaces the host subprocess runner
func WithSandbox(sb sandbox.Sandbox) Option {
	return func(e *Executor) {
		e.sandbox = sb
	}
}

// WithEnviron replaces os.Environ as the source of the inherited environment
func WithEnviron(environ func() []string) Option {
	return func(e *Executor) {
		e.environ = environ
	}
}

// WithTempDir sets where output files are created
func WithTempDir(dir string) Option {
	return func(e *Executor) {
		e.tempDir = dir
	}
}

// NewExecutor creates an executor for scripts under root
func NewExecutor(root string, limits Limits, opts ...Option) *Executor {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	e := &Executor{
		root:     root,
		resolver: NewResolver(root),
		limits:   limits.withDefaults(),
		sandbox:  sandbox.NewHostSandbox(),
		environ:  os.Environ,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Root returns the functions root used as working directory
func (e *Executor) Root() string {
	return e.root
}

// Limits returns the effective limits
func (e *Executor) Limits() Limits {
	return e.limits
}

// Execute runs script with args and waits for it. The returned result is
// never nil. The error wraps ErrScriptNotFound when the script no longer
// exists, or is one of *ProcessLaunchError, *ExecutionError, *TimeoutError
// or an error wrapping ErrCanceled.
func (e *Executor) Execute(ctx context.Context, toolName string, script Script, args []string) (*ExecutionResult, error) {
	ctx = tracing.NewInvocationContext(ctx)
	ctx, span := tracing.StartSpan(ctx, tracerName, "tool.execute",
		attribute.String("tool.name", toolName),
		attribute.String("tool.script", script.Path),
	)
	logger := tracing.LoggerFromContext(ctx, log.Logger).With().Str("tool", toolName).Logger()

	result, err := e.execute(ctx, logger, toolName, script, args)
	tracing.EndSpan(span, err,
		attribute.Int("tool.exit_code", result.ExitCode),
		attribute.Bool("tool.truncated", result.Truncated),
	)
	return result, err
}

func (e *Executor) execute(ctx context.Context, logger zerolog.Logger, toolName string, script Script, args []string) (*ExecutionResult, error) {
	start := time.Now()
	result := &ExecutionResult{ExitCode: -1}

	script, err := e.current(logger, toolName, script)
	if err != nil {
		return e.finish(logger, toolName, start, result, err)
	}

	outFile, err := os.CreateTemp(e.tempDir, "llm-output-*.txt")
	if err != nil {
		return e.finish(logger, toolName, start, result,
			&ProcessLaunchError{Tool: toolName, Err: fmt.Errorf("create output file: %w", err)})
	}
	outPath := outFile.Name()
	_ = outFile.Close()
	defer func() {
		if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", outPath).Msg("Failed to remove output file")
		}
	}()

	req := ExecutionRequest{
		Script:     script,
		Args:       args,
		RootDir:    e.root,
		OutputPath: outPath,
		Limits:     e.limits,
	}

	return e.run(ctx, logger, toolName, start, result, req)
}

func (e *Executor) run(ctx context.Context, logger zerolog.Logger, toolName string, start time.Time, result *ExecutionResult, req ExecutionRequest) (*ExecutionResult, error) {
	program, argv, err := req.Script.Command(req.Args)
	if err != nil {
		return e.finish(logger, toolName, start, result, &ProcessLaunchError{Tool: toolName, Err: err})
	}

	logger.Debug().
		Str("script", req.Script.Path).
		Str("interpreter", string(req.Script.Interpreter)).
		Strs("args", req.Args).
		Msg("Executing tool")

	res, runErr := e.sandbox.Execute(ctx, sandbox.ExecuteRequest{
		Command: program,
		Args:    argv,
		BaseEnv: e.environ(),
		Env: map[string]string{
			EnvOutputFile: req.OutputPath,
			EnvRootDir:    req.RootDir,
		},
		WorkingDir:     req.RootDir,
		Timeout:        req.Limits.Timeout,
		MaxOutputBytes: req.Limits.MaxOutputBytes,
	})

	result.ExitCode = res.ExitCode
	result.Stdout = string(res.Stdout)
	result.Stderr = string(res.Stderr)
	result.Truncated = res.Truncated

	output, truncated, readErr := readBounded(req.OutputPath, req.Limits.MaxOutputBytes)
	if readErr != nil {
		logger.Warn().Err(readErr).Msg("Failed to read output file")
	}
	result.OutputFile = string(output)
	result.Truncated = result.Truncated || truncated

	switch {
	case errors.Is(runErr, sandbox.ErrExecutionTimeout):
		return e.finish(logger, toolName, start, result, &TimeoutError{
			Tool:    toolName,
			Timeout: req.Limits.Timeout,
			Stdout:  result.Stdout,
		})
	case errors.Is(runErr, sandbox.ErrExecutionCanceled):
		return e.finish(logger, toolName, start, result, fmt.Errorf("tool '%s': %w: %w", toolName, ErrCanceled, runErr))
	case runErr != nil:
		return e.finish(logger, toolName, start, result, &ProcessLaunchError{Tool: toolName, Err: runErr})
	case result.ExitCode != 0:
		return e.finish(logger, toolName, start, result, &ExecutionError{
			Tool:     toolName,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		})
	}

	return e.finish(logger, toolName, start, result, nil)
}

// current returns script if it still exists, otherwise the tool is
// resolved again under the root. Nothing is spawned for a tool whose
// script is gone.
func (e *Executor) current(logger zerolog.Logger, toolName string, script Script) (Script, error) {
	if info, err := os.Stat(script.Path); err == nil && !info.IsDir() {
		return script, nil
	}

	resolved, err := e.resolver.Resolve(toolName)
	if err != nil {
		return Script{}, err
	}
	if resolved.Path != script.Path {
		logger.Debug().
			Str("previous", script.Path).
			Str("script", resolved.Path).
			Msg("Tool script moved since registration")
	}
	return resolved, nil
}

// finish stamps the duration, records metrics and logs the outcome
func (e *Executor) finish(logger zerolog.Logger, toolName string, start time.Time, result *ExecutionResult, err error) (*ExecutionResult, error) {
	result.Duration = time.Since(start)

	status := observability.StatusSuccess
	var timeoutErr *TimeoutError
	switch {
	case errors.As(err, &timeoutErr):
		status = observability.StatusTimeout
	case errors.Is(err, ErrCanceled):
		status = observability.StatusCanceled
	case err != nil:
		status = observability.StatusError
	}
	observability.RecordToolExecution(toolName, result.Duration, status, result.Truncated)

	event := logger.Debug()
	if err != nil {
		event = logger.Warn().Err(err)
	}
	event.
		Int("exit_code", result.ExitCode).
		Dur("duration", result.Duration).
		Bool("truncated", result.Truncated).
		Str("status", status).
		Msg("Tool execution finished")

	return result, err
}

// readBounded reads at most limit bytes of path and reports whether more
// were available.
func readBounded(path string, limit int) ([]byte, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(limit)+1))
	if err != nil {
		return nil, false, err
	}
	if len(data) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}
