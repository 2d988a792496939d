package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateTimeout validates the timeout in seconds
func (v *Validator) ValidateTimeout(seconds float64) error {
	if seconds <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", seconds)
	}
	return nil
}

// ValidateMaxOutputSize validates the output cap in bytes
func (v *Validator) ValidateMaxOutputSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("max_output_size must be positive, got %d", size)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateToolName flags list entries that can never match a tool
func (v *Validator) ValidateToolName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("tool list entry cannot be empty")
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("tool name %q has surrounding whitespace", name)
	}
	return nil
}

// ValidateRedactPattern checks that a redaction pattern compiles
func (v *Validator) ValidateRedactPattern(pattern string) error {
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("invalid redact pattern %q: %w", pattern, err)
	}
	return nil
}
