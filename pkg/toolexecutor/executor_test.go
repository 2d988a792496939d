package toolexecutor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestTool writes an executable shell tool under root/tools and resolves it
func newTestTool(t *testing.T, root, name, body string) Script {
	t.Helper()
	writeFile(t, filepath.Join(root, "tools", name+".sh"), "#!/bin/sh\n"+body+"\n", 0o755)
	script, err := NewResolver(root).Resolve(name)
	require.NoError(t, err)
	return script
}

// newTestExecutor creates an executor whose output files land in a
// dedicated directory so cleanup can be asserted.
func newTestExecutor(t *testing.T, root string, limits Limits) (*Executor, string) {
	t.Helper()
	tmp := t.TempDir()
	return NewExecutor(root, limits, WithTempDir(tmp)), tmp
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary output files were left behind")
}

func TestExecutor_Execute_Stdout(t *testing.T) {
	root := t.TempDir()
	script := newTestTool(t, root, "greet", `echo "hello $2"`)
	executor, tmp := newTestExecutor(t, root, DefaultLimits())

	result, err := executor.Execute(context.Background(), "greet", script, []string{"--name", "world"})

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello world\n", result.Stdout)
	assert.Empty(t, result.OutputFile)
	assert.Equal(t, "hello world\n", result.Output())
	assert.False(t, result.Truncated)
	assertEmptyDir(t, tmp)
}

func TestExecutor_Execute_OutputFileWins(t *testing.T) {
	root := t.TempDir()
	script := newTestTool(t, root, "writer", `echo "to stdout"; printf 'primary' > "$LLM_OUTPUT"`)
	executor, tmp := newTestExecutor(t, root, DefaultLimits())

	result, err := executor.Execute(context.Background(), "writer", script, nil)

	require.NoError(t, err)
	assert.Equal(t, "to stdout\n", result.Stdout)
	assert.Equal(t, "primary", result.OutputFile)
	assert.Equal(t, "primary", result.Output())
	assertEmptyDir(t, tmp)
}

func TestExecutor_Execute_Environment(t *testing.T) {
	root := t.TempDir()
	script := newTestTool(t, root, "env", `echo "$ROOT_DIR"; pwd -P; echo "$INHERITED"; test -f "$LLM_OUTPUT" && echo exists`)
	executor := NewExecutor(root, DefaultLimits(), WithEnviron(func() []string {
		return []string{"PATH=" + os.Getenv("PATH"), "INHERITED=from-parent"}
	}))

	result, err := executor.Execute(context.Background(), "env", script, nil)

	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, root, lines[0])
	assert.Equal(t, resolved, lines[1])
	assert.Equal(t, "from-parent", lines[2])
	assert.Equal(t, "exists", lines[3])
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	root := t.TempDir()
	script := newTestTool(t, root, "fail", `echo "partial"; echo "bad things" >&2; exit 3`)
	executor, tmp := newTestExecutor(t, root, DefaultLimits())

	result, err := executor.Execute(context.Background(), "fail", script, nil)

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr), "got %v", err)
	assert.ErrorIs(t, err, ErrExecution)
	assert.Equal(t, 3, execErr.ExitCode)
	assert.Equal(t, "bad things\n", execErr.Stderr)
	assert.Contains(t, err.Error(), "exit code 3")
	require.NotNil(t, result)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "partial\n", result.Stdout)
	assertEmptyDir(t, tmp)
}

func TestExecutor_Execute_Timeout(t *testing.T) {
	root := t.TempDir()
	script := newTestTool(t, root, "slow", `echo "$LLM_OUTPUT"; echo "partial"; sleep 10`)
	executor, tmp := newTestExecutor(t, root, Limits{Timeout: 300 * time.Millisecond})

	start := time.Now()
	result, err := executor.Execute(context.Background(), "slow", script, nil)

	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr), "got %v", err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 300*time.Millisecond, timeoutErr.Timeout)
	assert.Less(t, time.Since(start), 5*time.Second)

	lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "partial", lines[1])
	assert.Equal(t, result.Stdout, timeoutErr.Stdout)

	_, statErr := os.Stat(lines[0])
	assert.True(t, os.IsNotExist(statErr), "output file %s still exists", lines[0])
	assertEmptyDir(t, tmp)
}

func TestExecutor_Execute_Canceled(t *testing.T) {
	root := t.TempDir()
	script := newTestTool(t, root, "wait", `sleep 10`)
	executor, tmp := newTestExecutor(t, root, DefaultLimits())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := executor.Execute(ctx, "wait", script, nil)

	assert.ErrorIs(t, err, ErrCanceled)
	assert.NotErrorIs(t, err, ErrTimeout)
	assertEmptyDir(t, tmp)
}

func TestExecutor_Execute_Truncation(t *testing.T) {
	root := t.TempDir()
	const maxOutput = 1024
	script := newTestTool(t, root, "chatty", `yes a | head -c 10240`)
	executor, _ := newTestExecutor(t, root, Limits{MaxOutputBytes: maxOutput})

	result, err := executor.Execute(context.Background(), "chatty", script, nil)

	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.LessOrEqual(t, len(result.Stdout), maxOutput)
}

func TestExecutor_Execute_OutputFileTruncation(t *testing.T) {
	root := t.TempDir()
	const maxOutput = 512
	script := newTestTool(t, root, "bigfile", `yes b | head -c 4096 > "$LLM_OUTPUT"`)
	executor, _ := newTestExecutor(t, root, Limits{MaxOutputBytes: maxOutput})

	result, err := executor.Execute(context.Background(), "bigfile", script, nil)

	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.Len(t, result.OutputFile, maxOutput)
}

func TestExecutor_Execute_LaunchFailure(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tools", "noperm"), "#!/bin/sh\necho hi\n", 0o644)
	script, err := NewResolver(root).Resolve("noperm")
	require.NoError(t, err)
	require.Equal(t, InterpreterDirect, script.Interpreter)

	executor, tmp := newTestExecutor(t, root, DefaultLimits())

	result, err := executor.Execute(context.Background(), "noperm", script, nil)

	var launchErr *ProcessLaunchError
	require.True(t, errors.As(err, &launchErr), "got %v", err)
	assert.ErrorIs(t, err, ErrProcessLaunch)
	require.NotNil(t, result)
	assert.Equal(t, -1, result.ExitCode)
	assertEmptyDir(t, tmp)
}

func TestExecutor_Execute_MissingInterpreter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tools", "app.js"), "console.log('hi')\n", 0o644)
	script, err := NewResolver(root).Resolve("app")
	require.NoError(t, err)

	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(string) (string, error) { return "", errors.New("not found") }

	executor, tmp := newTestExecutor(t, root, DefaultLimits())
	_, err = executor.Execute(context.Background(), "app", script, nil)

	assert.ErrorIs(t, err, ErrProcessLaunch)
	assertEmptyDir(t, tmp)
}

func TestExecutor_Execute_InterpreterForPlainScript(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tools", "plain.sh"), "echo \"args: $*\"\n", 0o644)
	script, err := NewResolver(root).Resolve("plain")
	require.NoError(t, err)

	executor := NewExecutor(root, DefaultLimits())
	result, err := executor.Execute(context.Background(), "plain", script, []string{"--x", "1"})

	require.NoError(t, err)
	assert.Equal(t, "args: --x 1\n", result.Stdout)
}

func TestExecutor_Execute_ScriptRemoved(t *testing.T) {
	root := t.TempDir()
	script := newTestTool(t, root, "gone", `echo "should not run"`)
	require.NoError(t, os.Remove(script.Path))

	executor, tmp := newTestExecutor(t, root, DefaultLimits())
	result, err := executor.Execute(context.Background(), "gone", script, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScriptNotFound), "got %v", err)
	require.NotNil(t, result)
	assert.Equal(t, -1, result.ExitCode)
	assert.Empty(t, result.Stdout)
	assertEmptyDir(t, tmp)
}

func TestExecutor_Execute_ScriptMoved(t *testing.T) {
	root := t.TempDir()
	script := newTestTool(t, root, "moved", `echo "old"`)
	require.NoError(t, os.Remove(script.Path))
	writeFile(t, filepath.Join(root, "tools", "moved"), "#!/bin/sh\necho \"new $*\"\n", 0o755)

	executor, tmp := newTestExecutor(t, root, DefaultLimits())
	result, err := executor.Execute(context.Background(), "moved", script, []string{"--x", "1"})

	require.NoError(t, err)
	assert.Equal(t, "new --x 1\n", result.Stdout)
	assertEmptyDir(t, tmp)
}

func TestExecutor_Execute_Idempotent(t *testing.T) {
	root := t.TempDir()
	script := newTestTool(t, root, "det", `echo "out $*"; echo "err" >&2; printf 'file' > "$LLM_OUTPUT"`)
	executor := NewExecutor(root, DefaultLimits())
	args := []string{"--a", "1"}

	first, err := executor.Execute(context.Background(), "det", script, args)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		next, err := executor.Execute(context.Background(), "det", script, args)
		require.NoError(t, err)

		next.Duration = first.Duration
		assert.Equal(t, first, next)
	}
}

func TestExecutor_Limits(t *testing.T) {
	executor := NewExecutor(t.TempDir(), Limits{})

	assert.Equal(t, DefaultLimits(), executor.Limits())
	assert.True(t, filepath.IsAbs(executor.Root()))
}

func TestExecutionResult_Output(t *testing.T) {
	var nilResult *ExecutionResult
	assert.Empty(t, nilResult.Output())

	assert.Equal(t, "out", (&ExecutionResult{Stdout: "out"}).Output())
	assert.Equal(t, "file", (&ExecutionResult{Stdout: "out", OutputFile: "file"}).Output())
}
