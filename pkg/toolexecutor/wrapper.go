package toolexecutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/harun/llmfunctions/internal/observability"
	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// ToolWrapper binds a tool definition and its resolved script to an
// Executor. It is the unit handed to the host.
type ToolWrapper struct {
	def      ToolDefinition
	script   Script
	executor *Executor
	schema   *gojsonschema.Schema
}

// NewToolWrapper creates a wrapper. A parameter schema that does not
// compile disables type validation; the required check still applies.
func NewToolWrapper(def ToolDefinition, script Script, executor *Executor) *ToolWrapper {
	w := &ToolWrapper{
		def:      def,
		script:   script,
		executor: executor,
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(def.Parameters.Schema()))
	if err != nil {
		log.Warn().
			Err(err).
			Str("tool", def.Name).
			Msg("Parameter schema does not compile, type validation disabled")
	} else {
		w.schema = schema
	}

	return w
}

// Name returns the tool name
func (w *ToolWrapper) Name() string { return w.def.Name }

// Description returns the tool description, possibly empty
func (w *ToolWrapper) Description() string { return w.def.Description }

// Parameters returns the declared parameter schema
func (w *ToolWrapper) Parameters() Parameters { return w.def.Parameters }

// Definition returns the underlying tool definition
func (w *ToolWrapper) Definition() ToolDefinition { return w.def }

// Script returns the resolved script
func (w *ToolWrapper) Script() Script { return w.script }

// Doc renders the description followed by an Args block listing each
// declared parameter.
func (w *ToolWrapper) Doc() string {
	var b strings.Builder

	if w.def.Description != "" {
		b.WriteString(w.def.Description)
	} else {
		b.WriteString("No description available")
	}

	if len(w.def.Parameters.Properties) == 0 {
		return b.String()
	}

	b.WriteString("\n\nArgs:")
	for _, prop := range w.def.Parameters.Properties {
		fmt.Fprintf(&b, "\n    %s (%s)", prop.Name, prop.Type)
		if prop.Description != "" {
			b.WriteString(": " + prop.Description)
		}
		if w.def.Parameters.IsRequired(prop.Name) {
			b.WriteString(" (required)")
		}
	}

	return b.String()
}

// Validate checks args against the parameter schema: required parameters
// first, then the declared types. Nil values count as absent.
func (w *ToolWrapper) Validate(args map[string]interface{}) error {
	if err := CheckRequired(w.def.Name, w.def.Parameters, args); err != nil {
		return err
	}

	if w.schema == nil {
		return nil
	}

	present := make(map[string]interface{}, len(args))
	for k, v := range args {
		if v != nil {
			present[k] = v
		}
	}

	result, err := w.schema.Validate(gojsonschema.NewGoLoader(present))
	if err != nil {
		return &ValidationError{Tool: w.def.Name, Details: []string{err.Error()}}
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return &ValidationError{Tool: w.def.Name, Details: details}
	}

	return nil
}

// Invoke validates args, runs the tool and returns the full result.
// Validation failures return a nil result; nothing is spawned.
func (w *ToolWrapper) Invoke(ctx context.Context, args map[string]interface{}) (result *ExecutionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("tool", w.def.Name).
				Interface("panic", r).
				Msg("Recovered from panic during tool invocation")
			err = &ProcessLaunchError{Tool: w.def.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := w.Validate(args); err != nil {
		log.Debug().Err(err).Str("tool", w.def.Name).Msg("Parameter validation failed")
		observability.RecordValidationFailure(w.def.Name)
		return nil, err
	}

	return w.executor.Execute(ctx, w.def.Name, w.script, BuildArgs(w.def.Parameters, args))
}

// Call is the host calling convention: it returns the primary output of a
// successful run, or the typed failure.
func (w *ToolWrapper) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	result, err := w.Invoke(ctx, args)
	if err != nil {
		return "", err
	}
	return result.Output(), nil
}
