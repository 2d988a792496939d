package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfig_Policy(t *testing.T) {
	cfg := DefaultConfig("/home/u")
	cfg.ToolAllowlist = []string{"a", "b"}
	cfg.ToolDenylist = []string{"b"}

	policy := cfg.Policy()

	assert.True(t, policy.IsToolAllowed("a"))
	assert.False(t, policy.IsToolAllowed("b"))
	assert.False(t, policy.IsToolAllowed("c"))

	policy.Allow[0] = "changed"
	assert.Equal(t, "a", cfg.ToolAllowlist[0])
}

func TestConfig_RegistrarOptions(t *testing.T) {
	cfg := DefaultConfig("/home/u")
	cfg.Timeout = 2
	cfg.MaxOutputSize = 100

	opts := cfg.RegistrarOptions()

	assert.Equal(t, "/home/u/llm-functions", opts.FunctionsDir)
	assert.Equal(t, "/home/u/llm-functions/functions.json", opts.ManifestPath)
	assert.Equal(t, 2*time.Second, opts.Limits.Timeout)
	assert.Equal(t, 100, opts.Limits.MaxOutputBytes)
	require.NotNil(t, opts.Policy)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig("/home/u")
	assert.Empty(t, cfg.Validate())

	cfg.Timeout = -1
	cfg.ToolDenylist = []string{"", " padded"}
	errs := cfg.Validate()

	assert.Len(t, errs, 3)
	assert.Equal(t, float64(DefaultTimeoutSeconds), cfg.Timeout)
}

func TestConfig_String(t *testing.T) {
	cfg := DefaultConfig("/home/u")
	cfg.ToolDenylist = []string{"rm"}

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(cfg.String()), &decoded))

	assert.Equal(t, "/home/u/llm-functions", decoded["functions_directory"])
	assert.Equal(t, []interface{}{"rm"}, decoded["tool_denylist"])
	assert.Equal(t, DefaultMaxOutputSize, decoded["max_output_size"])
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateLogLevel("warn"))
	assert.Error(t, v.ValidateLogLevel("trace"))
	assert.NoError(t, v.ValidateTimeout(0.1))
	assert.Error(t, v.ValidateTimeout(0))
	assert.Error(t, v.ValidateMaxOutputSize(0))
	assert.NoError(t, v.ValidateToolName("execute_command"))
	assert.Error(t, v.ValidateToolName(" "))
}

func TestConfig_Validate_RedactPatterns(t *testing.T) {
	cfg := DefaultConfig("/home/u")
	cfg.Logging.RedactPatterns = []string{`acct-[0-9]+`, `[unclosed`}

	errs := cfg.Validate()

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "[unclosed")
	assert.Equal(t, []string{`acct-[0-9]+`}, cfg.Logging.RedactPatterns)
}
