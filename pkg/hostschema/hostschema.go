// Package hostschema renders registered tools into the function-calling
// schemas of LLM host APIs.
package hostschema

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/harun/llmfunctions/pkg/toolexecutor"
	"github.com/openai/openai-go"
)

// Tool is the provider-neutral form of a registered tool
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// Definitions converts tools into the provider-neutral form
func Definitions(tools []*toolexecutor.ToolWrapper) []Tool {
	out := make([]Tool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, Tool{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.Parameters().SchemaMap(),
		})
	}
	return out
}

// OpenAITools builds chat completion tool params
func OpenAITools(tools []*toolexecutor.ToolWrapper) []openai.ChatCompletionToolParam {
	params := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, tool := range Definitions(tools) {
		fn := openai.FunctionDefinitionParam{
			Name:       tool.Name,
			Parameters: openai.FunctionParameters(tool.InputSchema),
		}
		if tool.Description != "" {
			fn.Description = openai.String(tool.Description)
		}

		params = append(params, openai.ChatCompletionToolParam{
			Type:     "function",
			Function: fn,
		})
	}
	return params
}

// AnthropicTools builds message tool params
func AnthropicTools(tools []*toolexecutor.ToolWrapper) []anthropic.ToolUnionParam {
	params := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range Definitions(tools) {
		toolParam := anthropic.ToolParam{
			Name: tool.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: tool.InputSchema["properties"],
			},
		}
		if tool.Description != "" {
			toolParam.Description = anthropic.String(tool.Description)
		}
		toolParam.InputSchema.Required = requiredNames(tool.InputSchema["required"])

		params = append(params, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return params
}

func requiredNames(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			names = append(names, s)
		}
	}
	return names
}
