package registry

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/referralgraph/referralgraph/internal/schema"
)

// fakeModule is a test double for a domain's tool-providing unit.
type fakeModule struct {
	tools map[string]schema.ToolFunc
	defs  []schema.ToolDefinition
}

func (m *fakeModule) Tools() map[string]schema.ToolFunc    { return m.tools }
func (m *fakeModule) Definitions() []schema.ToolDefinition { return m.defs }

// staticTool returns a ToolFunc that always yields result.
func staticTool(result any) schema.ToolFunc {
	return func(context.Context, map[string]any) (any, error) { return result, nil }
}

// moduleWithTools builds a fake module exposing the named tools.
func moduleWithTools(names ...string) Module {
	m := &fakeModule{tools: make(map[string]schema.ToolFunc)}
	for _, n := range names {
		m.tools[n] = staticTool(n)
		m.defs = append(m.defs, schema.ToolDefinition{
			Name:        n,
			Description: "test tool " + n,
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		})
	}
	return m
}

// testLookup builds a module-lookup function over a fixed table, counting
// how often each reference is resolved.
func testLookup(mods map[string]Module, counts map[string]int) func(string) (ModuleFactory, bool) {
	return func(ref string) (ModuleFactory, bool) {
		mod, ok := mods[ref]
		if !ok {
			return nil, false
		}
		return func(schema.GraphStore) Module {
			if counts != nil {
				counts[ref]++
			}
			return mod
		}, true
	}
}

func parseSet(t *testing.T, doc string) *DomainSet {
	t.Helper()
	set, err := ParseDomains("test.yaml", []byte(doc))
	if err != nil {
		t.Fatalf("parse domains: %v", err)
	}
	return set
}

func TestLoadDomains_AllowlistFiltersToolsAndDefinitions(t *testing.T) {
	set := parseSet(t, `
domains:
  x:
    enabled: true
    module: x
    tools: [find_hospital]
`)
	mods := map[string]Module{"x": moduleWithTools("find_hospital", "get_network_statistics")}
	reg := NewFromSet(set, WithModuleLookup(testLookup(mods, nil)))

	if err := reg.LoadDomains(); err != nil {
		t.Fatalf("load: %v", err)
	}

	names, err := reg.ListTools()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"find_hospital"}) {
		t.Errorf("expected only allow-listed tool, got %v", names)
	}

	defs, _ := reg.Definitions()
	if len(defs) != 1 || defs[0].Name != "find_hospital" {
		t.Errorf("expected single definition for find_hospital, got %v", defs)
	}
}

func TestLoadDomains_DisabledDomainContributesNothing(t *testing.T) {
	set := parseSet(t, `
domains:
  y:
    enabled: false
    module: y
    tools: [foo]
`)
	mods := map[string]Module{"y": moduleWithTools("foo")}
	reg := NewFromSet(set, WithModuleLookup(testLookup(mods, nil)))

	names, err := reg.ListTools()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("disabled domain leaked tools: %v", names)
	}
}

func TestLoadDomains_IdempotentAndImportsOnce(t *testing.T) {
	set := parseSet(t, `
domains:
  base:
    enabled: true
    module: base
    tools: [a]
`)
	counts := make(map[string]int)
	mods := map[string]Module{"base": moduleWithTools("a")}
	reg := NewFromSet(set, WithModuleLookup(testLookup(mods, counts)))

	if err := reg.LoadDomains(); err != nil {
		t.Fatalf("first load: %v", err)
	}
	first, _ := reg.ListTools()

	if err := reg.LoadDomains(); err != nil {
		t.Fatalf("second load: %v", err)
	}
	second, _ := reg.ListTools()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("load not idempotent: %v vs %v", first, second)
	}
	if counts["base"] != 1 {
		t.Errorf("module resolved %d times, want 1", counts["base"])
	}
}

func TestLoadDomains_DuplicateToolLastDomainWins(t *testing.T) {
	set := parseSet(t, `
domains:
  first:
    enabled: true
    module: first
    tools: [shared]
  second:
    enabled: true
    module: second
    tools: [shared]
`)
	firstMod := &fakeModule{
		tools: map[string]schema.ToolFunc{"shared": staticTool("from-first")},
		defs:  []schema.ToolDefinition{{Name: "shared", Parameters: map[string]any{}}},
	}
	secondMod := &fakeModule{
		tools: map[string]schema.ToolFunc{"shared": staticTool("from-second")},
		defs:  []schema.ToolDefinition{{Name: "shared", Parameters: map[string]any{}}},
	}
	mods := map[string]Module{"first": firstMod, "second": secondMod}
	reg := NewFromSet(set, WithModuleLookup(testLookup(mods, nil)))

	fn, err := reg.Tool("shared")
	if err != nil {
		t.Fatalf("get tool: %v", err)
	}
	got, _ := fn(context.Background(), nil)
	if got != "from-second" {
		t.Errorf("expected last-loaded domain to win, got %v", got)
	}
}

func TestLoadDomains_UnknownModuleReference(t *testing.T) {
	set := parseSet(t, `
domains:
  broken:
    enabled: true
    module: no_such_module
    tools: [a]
`)
	reg := NewFromSet(set, WithModuleLookup(testLookup(nil, nil)))

	err := reg.LoadDomains()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %v", err)
	}
	if cfgErr.Domain != "broken" {
		t.Errorf("error should name the offending domain, got %q", cfgErr.Domain)
	}

	// A failed load must not leave a partial registry behind.
	set2 := parseSet(t, `
domains:
  ok:
    enabled: true
    module: ok
    tools: [a]
  broken:
    enabled: true
    module: no_such_module
    tools: [b]
`)
	mods := map[string]Module{"ok": moduleWithTools("a")}
	reg2 := NewFromSet(set2, WithModuleLookup(testLookup(mods, nil)))
	if err := reg2.LoadDomains(); err == nil {
		t.Fatal("expected load to fail")
	}
	if len(reg2.tools) != 0 {
		t.Errorf("partial registry after failed load: %v", reg2.tools)
	}
}

func TestTool_NotFound(t *testing.T) {
	set := parseSet(t, `
domains: {}
`)
	reg := NewFromSet(set, WithModuleLookup(testLookup(nil, nil)))

	_, err := reg.Tool("nonexistent")
	var notFound *ToolNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *ToolNotFoundError, got %v", err)
	}
	if notFound.Tool != "nonexistent" {
		t.Errorf("error should carry the tool name, got %q", notFound.Tool)
	}
}

func TestDomainInfo(t *testing.T) {
	set := parseSet(t, `
domains:
  referral_network:
    enabled: true
    name: Referral Network
    module: referral_network
    tools: [find_hospital]
    depends_on: []
`)
	reg := NewFromSet(set, WithModuleLookup(testLookup(nil, nil)))

	// DomainInfo must work without LoadDomains having run, even when the
	// module reference would not resolve.
	info, err := reg.DomainInfo("referral_network")
	if err != nil {
		t.Fatalf("domain info: %v", err)
	}
	if !info.Enabled || info.Label != "Referral Network" {
		t.Errorf("unexpected descriptor: %+v", info)
	}

	// Mutating the copy must not affect registry state.
	info.Tools[0] = "mutated"
	again, _ := reg.DomainInfo("referral_network")
	if again.Tools[0] != "find_hospital" {
		t.Error("DomainInfo returned a shared slice")
	}

	_, err = reg.DomainInfo("nonexistent")
	var notFound *DomainNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *DomainNotFoundError, got %v", err)
	}
}

func TestAllTools_DefensiveCopy(t *testing.T) {
	set := parseSet(t, `
domains:
  d:
    enabled: true
    module: d
    tools: [a]
`)
	mods := map[string]Module{"d": moduleWithTools("a")}
	reg := NewFromSet(set, WithModuleLookup(testLookup(mods, nil)))

	tools, err := reg.AllTools()
	if err != nil {
		t.Fatalf("all tools: %v", err)
	}
	delete(tools, "a")

	if _, err := reg.Tool("a"); err != nil {
		t.Error("mutating AllTools result affected registry state")
	}
}

func TestOpenAITools_MatchesDefinitions(t *testing.T) {
	set := parseSet(t, `
domains:
  d:
    enabled: true
    module: d
    tools: [a, b]
`)
	mods := map[string]Module{"d": moduleWithTools("a", "b")}
	reg := NewFromSet(set, WithModuleLookup(testLookup(mods, nil)))

	defs, err := reg.Definitions()
	if err != nil {
		t.Fatalf("definitions: %v", err)
	}
	wrapped, err := reg.OpenAITools()
	if err != nil {
		t.Fatalf("openai tools: %v", err)
	}
	if len(wrapped) != len(defs) {
		t.Fatalf("length mismatch: %d wrapped vs %d definitions", len(wrapped), len(defs))
	}
	for i, w := range wrapped {
		if w["type"] != "function" {
			t.Errorf("entry %d missing function envelope: %v", i, w)
		}
		fn, ok := w["function"].(map[string]any)
		if !ok || fn["name"] != defs[i].Name {
			t.Errorf("entry %d name mismatch: %v vs %s", i, w, defs[i].Name)
		}
	}
}

func TestDefinitions_FollowAllowlistOrder(t *testing.T) {
	set := parseSet(t, `
domains:
  d:
    enabled: true
    module: d
    tools: [b, a]
`)
	mods := map[string]Module{"d": moduleWithTools("a", "b")}
	reg := NewFromSet(set, WithModuleLookup(testLookup(mods, nil)))

	defs, err := reg.Definitions()
	if err != nil {
		t.Fatalf("definitions: %v", err)
	}
	if len(defs) != 2 || defs[0].Name != "b" || defs[1].Name != "a" {
		t.Errorf("definitions should follow allow-list order, got %v", defs)
	}
}
