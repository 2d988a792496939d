package toolexecutor

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// ToolPolicy defines which discovered tools may be registered
type ToolPolicy struct {
	Allow []string `json:"allow" yaml:"allow"` // Allowed tool names, empty for all
	Deny  []string `json:"deny" yaml:"deny"`   // Denied tool names (overrides allow)
}

// IsToolAllowed checks if a tool is allowed by the policy
func (tp *ToolPolicy) IsToolAllowed(toolName string) bool {
	if tp == nil {
		// No policy means allow all
		return true
	}

	// Deny list is checked first and always wins
	for _, denied := range tp.Deny {
		if denied == toolName {
			return false
		}
	}

	// Empty allow list means no restriction
	if len(tp.Allow) == 0 {
		return true
	}

	for _, allowed := range tp.Allow {
		if allowed == toolName {
			return true
		}
	}

	return false
}

// Check returns ErrToolExcluded when the policy rejects toolName
func (tp *ToolPolicy) Check(toolName string) error {
	if tp.IsToolAllowed(toolName) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrToolExcluded, toolName)
}

// Filter returns the tools eligible for registration, preserving order
func (tp *ToolPolicy) Filter(defs []ToolDefinition) []ToolDefinition {
	filtered := make([]ToolDefinition, 0, len(defs))
	for _, def := range defs {
		if err := tp.Check(def.Name); err != nil {
			log.Debug().
				Err(err).
				Str("tool", def.Name).
				Msg("Tool excluded by policy")
			continue
		}
		filtered = append(filtered, def)
	}

	return filtered
}
