package config

import (
	"path/filepath"
	"time"

	"github.com/harun/llmfunctions/pkg/registrar"
	"github.com/harun/llmfunctions/pkg/toolexecutor"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxOutputSize is the per-stream output cap in bytes
	DefaultMaxOutputSize = 1024 * 1024

	// DefaultTimeoutSeconds is the per-invocation wall-clock limit
	DefaultTimeoutSeconds = 30
)

// Config represents the llm-functions configuration
type Config struct {
	// Functions root containing functions.json and tools/
	FunctionsDirectory string `json:"functions_directory" yaml:"functions_directory" mapstructure:"functions_directory"`

	// Manifest path, defaults to <functions_directory>/functions.json
	FunctionsJSON string `json:"functions_json" yaml:"functions_json" mapstructure:"functions_json"`

	// Tool names that may be registered, empty for all
	ToolAllowlist []string `json:"tool_allowlist" yaml:"tool_allowlist" mapstructure:"tool_allowlist"`

	// Tool names that are never registered
	ToolDenylist []string `json:"tool_denylist" yaml:"tool_denylist" mapstructure:"tool_denylist"`

	// Per-stream output cap in bytes
	MaxOutputSize int `json:"max_output_size" yaml:"max_output_size" mapstructure:"max_output_size"`

	// Timeout in seconds
	Timeout float64 `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// Logging
	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" yaml:"level" mapstructure:"level"`
	File      string `json:"file" yaml:"file" mapstructure:"file"`
	Pretty    bool   `json:"pretty" yaml:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" yaml:"redaction" mapstructure:"redaction"`

	// Extra regular expressions scrubbed from log output
	RedactPatterns []string `json:"redact_patterns" yaml:"redact_patterns" mapstructure:"redact_patterns"`
}

// DefaultConfig returns a config with default values. home is used for the
// default functions directory.
func DefaultConfig(home string) *Config {
	return &Config{
		FunctionsDirectory: filepath.Join(home, "llm-functions"),
		ToolAllowlist:      []string{},
		ToolDenylist:       []string{},
		MaxOutputSize:      DefaultMaxOutputSize,
		Timeout:            DefaultTimeoutSeconds,
		Logging: LoggingConfig{
			Level:     "info",
			Pretty:    true,
			Redaction: true,
		},
	}
}

// ManifestPath returns the manifest location
func (c *Config) ManifestPath() string {
	if c.FunctionsJSON != "" {
		return c.FunctionsJSON
	}
	return filepath.Join(c.FunctionsDirectory, toolexecutor.ManifestFileName)
}

// Policy returns the security policy for registration
func (c *Config) Policy() *toolexecutor.ToolPolicy {
	return &toolexecutor.ToolPolicy{
		Allow: append([]string(nil), c.ToolAllowlist...),
		Deny:  append([]string(nil), c.ToolDenylist...),
	}
}

// Limits returns the per-invocation execution limits
func (c *Config) Limits() toolexecutor.Limits {
	return toolexecutor.Limits{
		Timeout:        time.Duration(c.Timeout * float64(time.Second)),
		MaxOutputBytes: c.MaxOutputSize,
	}
}

// RegistrarOptions threads the resolved values into a registrar
func (c *Config) RegistrarOptions() registrar.Options {
	return registrar.Options{
		FunctionsDir: c.FunctionsDirectory,
		ManifestPath: c.ManifestPath(),
		Policy:       c.Policy(),
		Limits:       c.Limits(),
	}
}

// Validate checks the configuration and restores defaults for invalid
// values. The returned errors describe what was replaced.
func (c *Config) Validate() []error {
	v := NewValidator()
	var errs []error

	if err := v.ValidateTimeout(c.Timeout); err != nil {
		errs = append(errs, err)
		c.Timeout = DefaultTimeoutSeconds
	}
	if err := v.ValidateMaxOutputSize(c.MaxOutputSize); err != nil {
		errs = append(errs, err)
		c.MaxOutputSize = DefaultMaxOutputSize
	}
	if err := v.ValidateLogLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
		c.Logging.Level = "info"
	}
	var patterns []string
	for _, pattern := range c.Logging.RedactPatterns {
		if err := v.ValidateRedactPattern(pattern); err != nil {
			errs = append(errs, err)
			continue
		}
		patterns = append(patterns, pattern)
	}
	c.Logging.RedactPatterns = patterns

	for _, name := range append(append([]string(nil), c.ToolAllowlist...), c.ToolDenylist...) {
		if err := v.ValidateToolName(name); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// String returns a YAML representation of the config
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return ""
	}
	return string(data)
}
