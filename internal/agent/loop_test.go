package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/referralgraph/referralgraph/internal/registry"
	"github.com/referralgraph/referralgraph/internal/schema"
)

// fakeProvider replays a scripted sequence of responses and records the
// conversations it received.
type fakeProvider struct {
	responses     []schema.LLMResponse
	err           error
	calls         int
	conversations []schema.Messages
}

func (p *fakeProvider) Chat(_ context.Context, msgs schema.Messages, _ []map[string]any, _ schema.ChatOptions) (schema.LLMResponse, error) {
	p.conversations = append(p.conversations, msgs.Clone())
	if p.err != nil {
		return schema.LLMResponse{}, p.err
	}
	resp := p.responses[p.calls]
	if p.calls < len(p.responses)-1 {
		p.calls++
	}
	return resp, nil
}

func (p *fakeProvider) DefaultModel() string { return "fake-model" }

type fakeModule struct {
	tools map[string]schema.ToolFunc
	defs  []schema.ToolDefinition
}

func (m *fakeModule) Tools() map[string]schema.ToolFunc    { return m.tools }
func (m *fakeModule) Definitions() []schema.ToolDefinition { return m.defs }

func testRegistry(t *testing.T, tools map[string]schema.ToolFunc) *registry.Registry {
	t.Helper()

	doc := "domains:\n  net:\n    enabled: true\n    module: net\n    tools: ["
	var names []string
	for name := range tools {
		names = append(names, name)
	}
	doc += strings.Join(names, ", ") + "]\n"

	set, err := registry.ParseDomains("test.yaml", []byte(doc))
	if err != nil {
		t.Fatalf("parse domains: %v", err)
	}

	mod := &fakeModule{tools: tools}
	for name := range tools {
		mod.defs = append(mod.defs, schema.ToolDefinition{
			Name:       name,
			Parameters: map[string]any{"type": "object", "properties": map[string]any{}},
		})
	}
	return registry.NewFromSet(set, registry.WithModuleLookup(func(ref string) (registry.ModuleFactory, bool) {
		if ref != "net" {
			return nil, false
		}
		return func(schema.GraphStore) registry.Module { return mod }, true
	}))
}

func text(s string) *string { return &s }

func TestAskDirectAnswer(t *testing.T) {
	provider := &fakeProvider{responses: []schema.LLMResponse{
		{Content: text("There are 8 hospitals."), FinishReason: "stop"},
	}}
	reg := testRegistry(t, map[string]schema.ToolFunc{
		"find_hospital": func(context.Context, map[string]any) (any, error) { return nil, nil },
	})

	a := New(provider, reg, Settings{})
	result, err := a.Ask(context.Background(), "How many hospitals?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if result.Content != "There are 8 hospitals." {
		t.Errorf("content = %q", result.Content)
	}
	if len(result.ToolsUsed) != 0 {
		t.Errorf("tools used = %v", result.ToolsUsed)
	}

	first := provider.conversations[0]
	if first.Messages[0].Role != "system" {
		t.Errorf("first message role = %q", first.Messages[0].Role)
	}
	if !strings.Contains(first.Messages[0].Content.(string), "healthcare analytics assistant") {
		t.Error("default system prompt not applied")
	}
}

func TestAskExecutesToolAndFeedsResultBack(t *testing.T) {
	provider := &fakeProvider{responses: []schema.LLMResponse{
		{
			ToolCalls: []schema.ToolCall{
				{ID: "call_1", Name: "find_hospital", Arguments: map[string]any{"name": "KU"}},
			},
			FinishReason: "tool_calls",
		},
		{Content: text("Found it."), FinishReason: "stop"},
	}}

	var gotArgs map[string]any
	reg := testRegistry(t, map[string]schema.ToolFunc{
		"find_hospital": func(_ context.Context, args map[string]any) (any, error) {
			gotArgs = args
			return map[string]any{"name": "KU Medical Center"}, nil
		},
	})

	a := New(provider, reg, Settings{})
	result, err := a.Ask(context.Background(), "Find KU")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if result.Content != "Found it." {
		t.Errorf("content = %q", result.Content)
	}
	if len(result.ToolsUsed) != 1 || result.ToolsUsed[0] != "find_hospital" {
		t.Errorf("tools used = %v", result.ToolsUsed)
	}
	if gotArgs["name"] != "KU" {
		t.Errorf("tool args = %v", gotArgs)
	}

	// Second call must carry the assistant tool-call turn and the JSON
	// serialised tool result.
	second := provider.conversations[1]
	last := second.Messages[len(second.Messages)-1]
	if last.Role != "tool" || last.ToolCallID != "call_1" {
		t.Errorf("last message = %+v", last)
	}
	if !strings.Contains(last.Content.(string), `"KU Medical Center"`) {
		t.Errorf("tool result not serialised: %v", last.Content)
	}
}

func TestAskToolErrorReportedToModel(t *testing.T) {
	provider := &fakeProvider{responses: []schema.LLMResponse{
		{
			ToolCalls:    []schema.ToolCall{{ID: "c1", Name: "find_hospital", Arguments: map[string]any{}}},
			FinishReason: "tool_calls",
		},
		{Content: text("done"), FinishReason: "stop"},
	}}
	reg := testRegistry(t, map[string]schema.ToolFunc{
		"find_hospital": func(context.Context, map[string]any) (any, error) {
			return nil, errors.New("query failed")
		},
	})

	a := New(provider, reg, Settings{})
	if _, err := a.Ask(context.Background(), "q"); err != nil {
		t.Fatalf("Ask: %v", err)
	}

	second := provider.conversations[1]
	last := second.Messages[len(second.Messages)-1]
	if !strings.Contains(last.Content.(string), "Error: query failed") {
		t.Errorf("tool error not surfaced: %v", last.Content)
	}
}

func TestAskUnknownToolReportedToModel(t *testing.T) {
	provider := &fakeProvider{responses: []schema.LLMResponse{
		{
			ToolCalls:    []schema.ToolCall{{ID: "c1", Name: "ghost_tool", Arguments: map[string]any{}}},
			FinishReason: "tool_calls",
		},
		{Content: text("done"), FinishReason: "stop"},
	}}
	reg := testRegistry(t, map[string]schema.ToolFunc{
		"find_hospital": func(context.Context, map[string]any) (any, error) { return nil, nil },
	})

	a := New(provider, reg, Settings{})
	if _, err := a.Ask(context.Background(), "q"); err != nil {
		t.Fatalf("Ask: %v", err)
	}

	second := provider.conversations[1]
	last := second.Messages[len(second.Messages)-1]
	if !strings.Contains(last.Content.(string), "Tool 'ghost_tool' not found") {
		t.Errorf("missing not-found message: %v", last.Content)
	}
}

func TestAskStopsAtMaxIterations(t *testing.T) {
	provider := &fakeProvider{responses: []schema.LLMResponse{
		{
			ToolCalls:    []schema.ToolCall{{ID: "c1", Name: "find_hospital", Arguments: map[string]any{}}},
			FinishReason: "tool_calls",
		},
	}}
	reg := testRegistry(t, map[string]schema.ToolFunc{
		"find_hospital": func(context.Context, map[string]any) (any, error) { return "x", nil },
	})

	a := New(provider, reg, Settings{MaxIter: 3})
	result, err := a.Ask(context.Background(), "q")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(result.Content, "maximum number of tool iterations") {
		t.Errorf("content = %q", result.Content)
	}
	if len(result.ToolsUsed) != 3 {
		t.Errorf("tools used = %v", result.ToolsUsed)
	}
	if len(provider.conversations) != 3 {
		t.Errorf("provider calls = %d", len(provider.conversations))
	}
}

func TestAskProviderErrorPropagates(t *testing.T) {
	provider := &fakeProvider{err: errors.New("rate limited")}
	reg := testRegistry(t, map[string]schema.ToolFunc{
		"find_hospital": func(context.Context, map[string]any) (any, error) { return nil, nil },
	})

	a := New(provider, reg, Settings{})
	if _, err := a.Ask(context.Background(), "q"); err == nil {
		t.Fatal("expected error")
	}
}

func TestContinueAppendsAssistantTurn(t *testing.T) {
	provider := &fakeProvider{responses: []schema.LLMResponse{
		{Content: text("first answer"), FinishReason: "stop"},
	}}
	reg := testRegistry(t, map[string]schema.ToolFunc{
		"find_hospital": func(context.Context, map[string]any) (any, error) { return nil, nil },
	})

	a := New(provider, reg, Settings{})
	conversation := schema.NewMessages()
	conversation.AddSystem("sys")

	result, err := a.Continue(context.Background(), &conversation, "first question")
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if result.Content != "first answer" {
		t.Errorf("content = %q", result.Content)
	}

	// sys, user, assistant
	if len(conversation.Messages) != 3 {
		t.Fatalf("conversation = %+v", conversation.Messages)
	}
	last := conversation.Messages[2]
	if last.Role != "assistant" || *(last.Content.(*string)) != "first answer" {
		t.Errorf("assistant turn = %+v", last)
	}
}
