// Package registry implements the dynamic tool registry: it loads the
// domain configuration, resolves inter-domain dependencies, and exposes the
// tools contributed by every enabled domain behind one name-keyed façade.
//
// Usage:
//
//	reg, err := registry.New("config/domains.yaml", registry.WithGraphStore(store))
//	if err != nil { ... }
//	if err := reg.LoadDomains(); err != nil { ... }
//	tool, err := reg.Tool("find_hospital")
package registry

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/referralgraph/referralgraph/internal/schema"
)

// DefaultDomainsPath is used when New is called with an empty path.
const DefaultDomainsPath = "config/domains.yaml"

// Registry is the central registry for discovering and loading tools from
// enabled domains. Construct it once per configuration; there is no reload,
// a configuration change requires a new instance.
type Registry struct {
	configPath string
	domains    *DomainSet
	store      schema.GraphStore
	lookup     func(ref string) (ModuleFactory, bool)

	mu     sync.Mutex
	loaded bool
	tools  map[string]schema.ToolFunc
	defs   []schema.ToolDefinition
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithGraphStore injects the graph store handed to every module factory.
func WithGraphStore(store schema.GraphStore) Option {
	return func(r *Registry) { r.store = store }
}

// WithModuleLookup overrides the global module table. Tests use this to
// register fake modules without touching process-wide state.
func WithModuleLookup(fn func(ref string) (ModuleFactory, bool)) Option {
	return func(r *Registry) { r.lookup = fn }
}

// New creates a Registry and eagerly parses the domain configuration at
// configPath (DefaultDomainsPath when empty). Tools are not loaded until
// LoadDomains or the first read operation.
func New(configPath string, opts ...Option) (*Registry, error) {
	if configPath == "" {
		configPath = DefaultDomainsPath
	}
	set, err := LoadDomainsFile(configPath)
	if err != nil {
		return nil, err
	}
	return NewFromSet(set, opts...), nil
}

// NewFromSet creates a Registry from an already-parsed domain set.
func NewFromSet(set *DomainSet, opts ...Option) *Registry {
	r := &Registry{
		domains: set,
		lookup:  lookupModule,
		tools:   make(map[string]schema.ToolFunc),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadDomains resolves the dependency order of every enabled domain, binds
// each domain's module, and merges the allow-listed tools and definitions
// into the registry tables. It runs at most once per instance; repeat calls
// are no-ops. Any error aborts the whole load and leaves the registry
// unloaded with empty tables.
func (r *Registry) LoadDomains() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadDomainsLocked()
}

func (r *Registry) loadDomainsLocked() error {
	if r.loaded {
		return nil
	}

	order, err := r.EnabledDomains()
	if err != nil {
		return err
	}

	tools := make(map[string]schema.ToolFunc)
	var defs []schema.ToolDefinition

	for _, name := range order {
		cfg, _ := r.domains.Get(name)

		ref := cfg.Module
		if ref == "" {
			ref = name
		}
		factory, ok := r.lookup(ref)
		if !ok {
			return &ConfigError{Domain: name, Reason: "unknown module reference " + ref}
		}
		mod := factory(r.store)

		modTools := mod.Tools()
		modDefs := mod.Definitions()

		// Only allow-listed names make it into the registry; a module may
		// define more tools than the domain is configured to expose.
		for _, toolName := range cfg.Tools {
			if fn, ok := modTools[toolName]; ok {
				if _, exists := tools[toolName]; exists {
					slog.Warn("Duplicate tool name, last domain wins",
						"tool", toolName, "domain", name)
				}
				tools[toolName] = fn
			}
			for _, def := range modDefs {
				if def.Name == toolName {
					defs = append(defs, def)
					break
				}
			}
		}

		slog.Debug("Loaded domain", "domain", name, "module", ref)
	}

	r.tools = tools
	r.defs = defs
	r.loaded = true
	slog.Info("Tool registry loaded", "domains", len(order), "tools", len(tools))
	return nil
}

// ensureLoaded triggers a lazy load for read operations.
func (r *Registry) ensureLoaded() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadDomainsLocked()
}

// AllTools returns every loaded tool keyed by name. The returned map is a
// copy; mutating it does not affect the registry.
func (r *Registry) AllTools() (map[string]schema.ToolFunc, error) {
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}
	out := make(map[string]schema.ToolFunc, len(r.tools))
	for k, v := range r.tools {
		out[k] = v
	}
	return out, nil
}

// Tool returns the callable registered under name, or *ToolNotFoundError.
func (r *Registry) Tool(name string) (schema.ToolFunc, error) {
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}
	fn, ok := r.tools[name]
	if !ok {
		return nil, &ToolNotFoundError{Tool: name}
	}
	return fn, nil
}

// Definitions returns the tool definitions in load order: domain dependency
// order first, each domain's allow-list order within it. The slice is a
// copy.
func (r *Registry) Definitions() ([]schema.ToolDefinition, error) {
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}
	return append([]schema.ToolDefinition(nil), r.defs...), nil
}

// OpenAITools returns the definitions wrapped in the OpenAI function-calling
// envelope. Purely a presentation transform over Definitions.
func (r *Registry) OpenAITools() ([]map[string]any, error) {
	defs, err := r.Definitions()
	if err != nil {
		return nil, err
	}
	return schema.OpenAITools(defs), nil
}

// ListTools returns the sorted names of every loaded tool.
func (r *Registry) ListTools() ([]string, error) {
	if err := r.ensureLoaded(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// DomainInfo returns a copy of the descriptor for the named domain. It
// reads the parsed configuration directly and does not trigger a load.
func (r *Registry) DomainInfo(name string) (DomainConfig, error) {
	cfg, ok := r.domains.Get(name)
	if !ok {
		return DomainConfig{}, &DomainNotFoundError{Domain: name}
	}
	return cfg.Clone(), nil
}

// DomainNames returns every configured domain name in document order,
// enabled or not.
func (r *Registry) DomainNames() []string {
	return r.domains.Names()
}

// Version returns the version string of the domains document.
func (r *Registry) Version() string { return r.domains.Version }
