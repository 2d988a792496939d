package toolexecutor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Interpreter identifies how a resolved script is launched
type Interpreter string

const (
	InterpreterShell  Interpreter = "shell"
	InterpreterNode   Interpreter = "node"
	InterpreterPython Interpreter = "python"
	InterpreterDirect Interpreter = "direct"
)

// candidate extensions in resolution order
var scriptExtensions = []struct {
	ext         string
	interpreter Interpreter
}{
	{".sh", InterpreterShell},
	{".js", InterpreterNode},
	{".py", InterpreterPython},
	{"", InterpreterDirect},
}

// interpreter binaries tried in order when a script is not executable itself
var interpreterBinaries = map[Interpreter][]string{
	InterpreterShell:  {"bash", "sh"},
	InterpreterNode:   {"node"},
	InterpreterPython: {"python3", "python"},
}

// lookPath is swapped in tests
var lookPath = exec.LookPath

// Script is a resolved tool script
type Script struct {
	Path        string
	Interpreter Interpreter
}

// Command returns the program and argv used to launch the script with args.
// Executable scripts, and all extensionless ones, are started directly;
// otherwise the interpreter for the extension is looked up on PATH.
func (s Script) Command(args []string) (string, []string, error) {
	if s.Interpreter == InterpreterDirect || isExecutable(s.Path) {
		return s.Path, args, nil
	}

	binaries, ok := interpreterBinaries[s.Interpreter]
	if !ok {
		return "", nil, fmt.Errorf("unknown interpreter %q", s.Interpreter)
	}

	for _, bin := range binaries {
		if path, err := lookPath(bin); err == nil {
			argv := make([]string, 0, len(args)+1)
			argv = append(argv, s.Path)
			argv = append(argv, args...)
			return path, argv, nil
		}
	}

	return "", nil, fmt.Errorf("interpreter for %s not found in PATH (tried %s)", s.Interpreter, strings.Join(binaries, ", "))
}

// Resolver locates tool scripts beneath a functions root
type Resolver struct {
	root string
}

// NewResolver creates a resolver for the given functions root. Relative
// roots are made absolute so resolved paths survive a change of working
// directory.
func NewResolver(root string) *Resolver {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Resolver{root: root}
}

// Root returns the functions root directory
func (r *Resolver) Root() string {
	return r.root
}

// Candidates lists the paths Resolve checks for name, in order:
// tools/{name}.sh, .js, .py, tools/{name}, then the same four directly
// under the root.
func (r *Resolver) Candidates(name string) []Script {
	candidates := make([]Script, 0, 2*len(scriptExtensions))
	for _, dir := range []string{filepath.Join(r.root, "tools"), r.root} {
		for _, c := range scriptExtensions {
			candidates = append(candidates, Script{
				Path:        filepath.Join(dir, name+c.ext),
				Interpreter: c.interpreter,
			})
		}
	}
	return candidates
}

// Resolve returns the first existing candidate script for name.
// It returns ErrScriptNotFound when none exists; callers drop the tool.
func (r *Resolver) Resolve(name string) (Script, error) {
	if !isSafeToolName(name) {
		return Script{}, fmt.Errorf("%w: invalid tool name %q", ErrScriptNotFound, name)
	}

	for _, c := range r.Candidates(name) {
		info, err := os.Stat(c.Path)
		if err != nil || info.IsDir() {
			continue
		}
		return c, nil
	}

	return Script{}, fmt.Errorf("%w: '%s' in %s", ErrScriptNotFound, name, r.root)
}

// isSafeToolName rejects names that would escape the functions root
func isSafeToolName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return name != "." && name != ".."
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
