// Package registrar is the entry point a host calls to obtain the tool
// callables. A missing or broken functions directory yields zero tools and
// never an error.
package registrar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harun/llmfunctions/internal/observability"
	"github.com/harun/llmfunctions/pkg/toolexecutor"
	"github.com/rs/zerolog"
)

// Options carries the resolved configuration for a registration pass
type Options struct {
	// FunctionsDir is the functions root. Empty means no tools.
	FunctionsDir string

	// ManifestPath overrides <FunctionsDir>/functions.json
	ManifestPath string

	// Policy selects which tools may be registered. Nil allows all.
	Policy *toolexecutor.ToolPolicy

	// Limits bound every invocation of the registered tools
	Limits toolexecutor.Limits

	// ExecutorOptions are passed to the shared executor
	ExecutorOptions []toolexecutor.Option
}

// Registrar builds ToolWrappers from a functions directory
type Registrar struct {
	opts   Options
	logger zerolog.Logger
}

// New creates a registrar
func New(opts Options, logger zerolog.Logger) *Registrar {
	return &Registrar{
		opts:   opts,
		logger: logger.With().Str("component", "registrar").Logger(),
	}
}

// FunctionsDir returns the configured functions root
func (r *Registrar) FunctionsDir() string {
	return r.opts.FunctionsDir
}

// ManifestPath returns the manifest location used by Tools
func (r *Registrar) ManifestPath() string {
	if r.opts.ManifestPath != "" {
		return r.opts.ManifestPath
	}
	if r.opts.FunctionsDir == "" {
		return ""
	}
	return filepath.Join(r.opts.FunctionsDir, toolexecutor.ManifestFileName)
}

// Tools runs a registration pass and returns one wrapper per eligible tool
// whose script resolves, in manifest order. The result is never nil.
// Failures are logged and result in fewer (possibly zero) tools.
func (r *Registrar) Tools() (tools []*toolexecutor.ToolWrapper) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Interface("panic", rec).
				Msg("Recovered from panic during tool registration")
			observability.RecordRegistrationPass(0, false)
			tools = []*toolexecutor.ToolWrapper{}
		}
	}()

	tools, err := r.load()
	if err != nil {
		r.logger.Debug().Err(err).Msg("No tools registered")
		observability.RecordRegistrationPass(0, false)
		return []*toolexecutor.ToolWrapper{}
	}

	observability.RecordRegistrationPass(len(tools), true)
	r.logger.Info().
		Int("tools", len(tools)).
		Str("functions_dir", r.opts.FunctionsDir).
		Msg("Tools registered")

	return tools
}

func (r *Registrar) load() ([]*toolexecutor.ToolWrapper, error) {
	root := r.opts.FunctionsDir
	if root == "" {
		return nil, errors.New("functions directory not configured")
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("functions directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("functions directory %s is not a directory", root)
	}

	defs, err := toolexecutor.LoadManifest(r.ManifestPath())
	if err != nil {
		if errors.Is(err, toolexecutor.ErrManifestMalformed) {
			r.logger.Warn().Err(err).Msg("Ignoring malformed manifest")
		}
		return nil, err
	}

	defs = r.opts.Policy.Filter(defs)

	resolver := toolexecutor.NewResolver(root)
	executor := toolexecutor.NewExecutor(root, r.opts.Limits, r.opts.ExecutorOptions...)

	tools := make([]*toolexecutor.ToolWrapper, 0, len(defs))
	for _, def := range defs {
		script, err := resolver.Resolve(def.Name)
		if err != nil {
			r.logger.Debug().
				Err(err).
				Str("tool", def.Name).
				Msg("Dropping tool without script")
			continue
		}
		tools = append(tools, toolexecutor.NewToolWrapper(def, script, executor))
	}

	return tools, nil
}

// Register runs a registration pass and hands each tool to register.
// A panic inside register skips that tool. It returns the number of tools
// handed over successfully.
func (r *Registrar) Register(register func(*toolexecutor.ToolWrapper)) int {
	if register == nil {
		return 0
	}

	count := 0
	for _, tool := range r.Tools() {
		if r.registerOne(register, tool) {
			count++
		}
	}
	return count
}

func (r *Registrar) registerOne(register func(*toolexecutor.ToolWrapper), tool *toolexecutor.ToolWrapper) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Interface("panic", rec).
				Str("tool", tool.Name()).
				Msg("Host registration callback panicked")
			ok = false
		}
	}()

	register(tool)
	return true
}

// Find returns the tool with the given name from a registration result
func Find(tools []*toolexecutor.ToolWrapper, name string) (*toolexecutor.ToolWrapper, bool) {
	for _, tool := range tools {
		if tool.Name() == name {
			return tool, true
		}
	}
	return nil, false
}
