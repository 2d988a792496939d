package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolsCommand(t *testing.T) {
	t.Run("command exists", func(t *testing.T) {
		cmd := GetRootCmd()
		toolsCmd, _, err := cmd.Find([]string{"tools"})
		require.NoError(t, err)
		assert.Equal(t, "tools", toolsCmd.Name())

		formatFlag := toolsCmd.Flags().Lookup("format")
		require.NotNil(t, formatFlag)
		assert.Equal(t, "text", formatFlag.DefValue)
	})

	t.Run("text", func(t *testing.T) {
		createFunctionsDir(t)

		stdout, _, err := executeCommand(t, context.Background(), "", "tools")
		require.NoError(t, err)

		assert.Contains(t, stdout, "echo_args\n  Echo the arguments\n")
		assert.Contains(t, stdout, "text (string): Text to echo (required)")
		assert.Contains(t, stdout, "fail\n  Always fails")
		assert.NotContains(t, stdout, "missing_script")
	})

	t.Run("json", func(t *testing.T) {
		createFunctionsDir(t)

		stdout, _, err := executeCommand(t, context.Background(), "", "tools", "--format", "json")
		require.NoError(t, err)

		var tools []map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(stdout), &tools))
		require.Len(t, tools, 2)
		assert.Equal(t, "echo_args", tools[0]["name"])
		assert.Equal(t, "fail", tools[1]["name"])

		schema, ok := tools[0]["input_schema"].(map[string]interface{})
		require.True(t, ok)
		assert.Contains(t, schema, "properties")
	})

	t.Run("openai", func(t *testing.T) {
		createFunctionsDir(t)

		stdout, _, err := executeCommand(t, context.Background(), "", "tools", "--format", "openai")
		require.NoError(t, err)

		var tools []map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(stdout), &tools))
		require.Len(t, tools, 2)

		fn, ok := tools[0]["function"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "echo_args", fn["name"])
	})

	t.Run("anthropic", func(t *testing.T) {
		createFunctionsDir(t)

		stdout, _, err := executeCommand(t, context.Background(), "", "tools", "--format", "anthropic")
		require.NoError(t, err)

		var tools []map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(stdout), &tools))
		require.Len(t, tools, 2)
		assert.Equal(t, "fail", tools[1]["name"])
	})

	t.Run("denylist", func(t *testing.T) {
		createFunctionsDir(t)

		stdout, _, err := executeCommand(t, context.Background(), "", "tools", "--format", "json", "--config", writeConfigFile(t, "tool_denylist: [echo_args]\n"))
		require.NoError(t, err)

		var tools []map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(stdout), &tools))
		require.Len(t, tools, 1)
		assert.Equal(t, "fail", tools[0]["name"])
	})

	t.Run("invalid format", func(t *testing.T) {
		createFunctionsDir(t)

		_, _, err := executeCommand(t, context.Background(), "", "tools", "--format", "xml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid format")
	})
}
