package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/harun/llmfunctions/pkg/hostschema"
	"github.com/harun/llmfunctions/pkg/toolexecutor"
	"github.com/spf13/cobra"
)

var toolsFormat string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered tools",
	Long: `List the tools that pass the allowlist and denylist and whose scripts resolve.
Formats: text (documentation), json (provider-neutral), openai, anthropic.`,
	Args: cobra.NoArgs,
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().StringVar(&toolsFormat, "format", "text", "output format (text, json, openai, anthropic)")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	reg := newRegistrar()
	tools := reg.Tools()
	out := cmd.OutOrStdout()

	switch toolsFormat {
	case "text":
		if len(tools) == 0 {
			fmt.Fprintf(out, "No tools registered (functions directory: %s)\n", reg.FunctionsDir())
			return nil
		}
		writeToolsText(out, tools)
		return nil
	case "json":
		return writeJSON(out, hostschema.Definitions(tools))
	case "openai":
		return writeJSON(out, hostschema.OpenAITools(tools))
	case "anthropic":
		return writeJSON(out, hostschema.AnthropicTools(tools))
	default:
		return fmt.Errorf("invalid format: %s (must be one of: text, json, openai, anthropic)", toolsFormat)
	}
}

func writeToolsText(out io.Writer, tools []*toolexecutor.ToolWrapper) {
	for i, tool := range tools {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, tool.Name())
		for _, line := range strings.Split(tool.Doc(), "\n") {
			if line == "" {
				fmt.Fprintln(out)
				continue
			}
			fmt.Fprintf(out, "  %s\n", line)
		}
	}
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode tools: %w", err)
	}
	return nil
}
