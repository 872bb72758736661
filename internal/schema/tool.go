// Package schema contains the core contracts shared across referralgraph
// packages. Concrete implementations live in their respective packages; this
// package is the single canonical source of truth for every shared type.
package schema

import "context"

// ToolFunc is the contract every registered tool callable must satisfy.
// Arguments arrive as a decoded JSON object keyed by the parameter names
// declared in the tool's definition. The returned value must be
// JSON-serializable (map, slice, or scalar).
type ToolFunc func(ctx context.Context, args map[string]any) (any, error)

// ToolDefinition describes one tool for LLM function calling.
// Parameters holds a JSON Schema object ({"type":"object","properties":...}).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// OpenAITool wraps def in the OpenAI function-calling envelope.
func OpenAITool(def ToolDefinition) map[string]any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        def.Name,
			"description": def.Description,
			"parameters":  def.Parameters,
		},
	}
}

// OpenAITools wraps every definition in the OpenAI function-calling envelope,
// preserving order.
func OpenAITools(defs []ToolDefinition) []map[string]any {
	out := make([]map[string]any, 0, len(defs))
	for _, def := range defs {
		out = append(out, OpenAITool(def))
	}
	return out
}
