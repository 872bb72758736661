package registry

import (
	"sort"
	"sync"

	"github.com/referralgraph/referralgraph/internal/schema"
)

// Module is the narrow interface a domain's tool-providing unit must
// satisfy. A module may expose only tools or only definitions; the loader
// tolerates either being empty.
type Module interface {
	// Tools maps tool name to callable.
	Tools() map[string]schema.ToolFunc
	// Definitions lists the tool schemas, in the order the domain wants
	// them presented to the LLM.
	Definitions() []schema.ToolDefinition
}

// ModuleFactory constructs a domain module bound to the given graph store.
// The store is injected here so tools never reach for global connection
// state.
type ModuleFactory func(store schema.GraphStore) Module

var (
	modulesMu sync.RWMutex
	modules   = make(map[string]ModuleFactory)
)

// RegisterModule makes a module factory available under the given reference,
// the string used in a domain's "module" config field. It is intended to be
// called from domain package init functions, mirroring database/sql driver
// registration. Registering a duplicate reference panics: that is a
// programming error, not a configuration error.
func RegisterModule(ref string, factory ModuleFactory) {
	modulesMu.Lock()
	defer modulesMu.Unlock()
	if factory == nil {
		panic("registry: RegisterModule with nil factory for " + ref)
	}
	if _, dup := modules[ref]; dup {
		panic("registry: RegisterModule called twice for " + ref)
	}
	modules[ref] = factory
}

// lookupModule resolves a module reference from the global table.
func lookupModule(ref string) (ModuleFactory, bool) {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	f, ok := modules[ref]
	return f, ok
}

// RegisteredModules returns the sorted references of every registered
// module factory.
func RegisteredModules() []string {
	modulesMu.RLock()
	defer modulesMu.RUnlock()
	refs := make([]string, 0, len(modules))
	for ref := range modules {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}
