package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/harun/llmfunctions/pkg/registrar"
	"github.com/spf13/cobra"
)

var (
	callArgs       string
	callShowStderr bool
)

var callCmd = &cobra.Command{
	Use:   "call NAME",
	Short: "Invoke a registered tool",
	Long: `Invoke a registered tool with a JSON object of arguments and print its
primary output. Use --args - to read the arguments from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callArgs, "args", "", "tool arguments as a JSON object, or - for stdin")
	callCmd.Flags().BoolVar(&callShowStderr, "show-stderr", false, "copy the tool's stderr to stderr")
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	name := args[0]

	input := callArgs
	if input == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read arguments: %w", err)
		}
		input = string(data)
	}

	toolArgs, err := parseArguments(input)
	if err != nil {
		return err
	}

	tool, ok := registrar.Find(newRegistrar().Tools(), name)
	if !ok {
		return fmt.Errorf("tool not registered: %s", name)
	}

	result, err := tool.Invoke(cmd.Context(), toolArgs)
	if callShowStderr && result != nil && result.Stderr != "" {
		fmt.Fprint(cmd.ErrOrStderr(), result.Stderr)
	}
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), result.Output())
	return nil
}

// parseArguments decodes a JSON object. Numbers keep their literal form so
// large integers reach the tool unchanged.
func parseArguments(input string) (map[string]interface{}, error) {
	values := map[string]interface{}{}
	if strings.TrimSpace(input) == "" {
		return values, nil
	}

	dec := json.NewDecoder(strings.NewReader(input))
	dec.UseNumber()
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if values == nil {
		return nil, errors.New("arguments must be a JSON object, got null")
	}
	if dec.More() {
		return nil, errors.New("arguments must be a single JSON object")
	}
	return values, nil
}
