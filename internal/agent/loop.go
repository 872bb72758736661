// Package agent runs the LLM / tool iteration loop over the registry's
// tools.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/referralgraph/referralgraph/internal/prompts"
	"github.com/referralgraph/referralgraph/internal/registry"
	"github.com/referralgraph/referralgraph/internal/schema"
)

// Settings bound one agent run.
type Settings struct {
	Model        string
	MaxTokens    int
	Temperature  float64
	MaxIter      int
	SystemPrompt string
}

// DefaultSettings returns the settings the CLI and server use unless
// overridden.
func DefaultSettings() Settings {
	return Settings{
		MaxIter:      10,
		MaxTokens:    4096,
		SystemPrompt: prompts.System,
	}
}

// Agent executes the LLM loop, dispatching tool calls through the registry.
type Agent struct {
	provider schema.LLMProvider
	registry *registry.Registry
	settings Settings
}

// New creates an agent. Zero-value settings fields fall back to defaults.
func New(provider schema.LLMProvider, reg *registry.Registry, settings Settings) *Agent {
	def := DefaultSettings()
	if settings.MaxIter <= 0 {
		settings.MaxIter = def.MaxIter
	}
	if settings.MaxTokens <= 0 {
		settings.MaxTokens = def.MaxTokens
	}
	if settings.SystemPrompt == "" {
		settings.SystemPrompt = def.SystemPrompt
	}
	return &Agent{provider: provider, registry: reg, settings: settings}
}

// Result is the outcome of one Ask call.
type Result struct {
	Content   string
	ToolsUsed []string
}

// Ask runs a single-question conversation: system prompt, question, then
// the tool loop until the model stops calling tools or MaxIter is hit.
func (a *Agent) Ask(ctx context.Context, question string) (Result, error) {
	conversation := schema.NewMessages()
	conversation.AddSystem(a.settings.SystemPrompt)
	conversation.AddUser(question)
	return a.run(ctx, conversation)
}

// Continue runs the loop over an existing conversation, appending the next
// user turn. The conversation is mutated in place.
func (a *Agent) Continue(ctx context.Context, conversation *schema.Messages, question string) (Result, error) {
	conversation.AddUser(question)
	result, err := a.run(ctx, *conversation)
	if err != nil {
		return result, err
	}
	conversation.AddAssistant(&result.Content, nil)
	return result, nil
}

func (a *Agent) run(ctx context.Context, conversation schema.Messages) (Result, error) {
	tools, err := a.registry.OpenAITools()
	if err != nil {
		return Result{}, fmt.Errorf("load tools: %w", err)
	}

	var toolsUsed []string
	for i := 0; i < a.settings.MaxIter; i++ {
		resp, err := a.provider.Chat(ctx, conversation, tools, schema.ChatOptions{
			Model:       a.settings.Model,
			MaxTokens:   a.settings.MaxTokens,
			Temperature: a.settings.Temperature,
		})
		if err != nil {
			return Result{}, fmt.Errorf("chat: %w", err)
		}

		if !resp.HasToolCalls() {
			content := ""
			if resp.Content != nil {
				content = *resp.Content
			}
			return Result{Content: content, ToolsUsed: toolsUsed}, nil
		}

		conversation.AddAssistant(resp.Content, resp.ToolCalls)

		for _, tc := range resp.ToolCalls {
			toolsUsed = append(toolsUsed, tc.Name)
			conversation.AddToolResult(tc.ID, tc.Name, a.executeTool(ctx, tc))
		}
	}

	return Result{
		Content:   "Reached the maximum number of tool iterations without a final answer.",
		ToolsUsed: toolsUsed,
	}, nil
}

// executeTool dispatches one tool call and serialises the result for the
// model. Failures are reported back to the model as content rather than
// aborting the loop.
func (a *Agent) executeTool(ctx context.Context, tc schema.ToolCall) string {
	slog.Info("tool call", "name", tc.Name, "args", truncateArgs(tc.Arguments))

	fn, err := a.registry.Tool(tc.Name)
	if err != nil {
		var notFound *registry.ToolNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Sprintf("Error: Tool '%s' not found", tc.Name)
		}
		return "Error: " + err.Error()
	}

	result, err := fn(ctx, tc.Arguments)
	if err != nil {
		slog.Error("tool failed", "name", tc.Name, "err", err)
		return "Error: " + err.Error()
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "Error: could not serialise tool result: " + err.Error()
	}
	return string(data)
}

func truncateArgs(args map[string]any) string {
	data, _ := json.Marshal(args)
	s := string(data)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
