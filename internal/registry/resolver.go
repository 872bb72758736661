package registry

import "log/slog"

// EnabledDomains returns the enabled domain names in dependency order:
// every domain appears exactly once, strictly after all of its reachable
// enabled dependencies. Order depends only on the document order of the
// domains mapping and each domain's depends_on list, so identical input
// yields identical output.
func (r *Registry) EnabledDomains() ([]string, error) {
	resolved := make(map[string]bool)
	visiting := make(map[string]bool)
	var order []string

	for _, name := range r.domains.Names() {
		cfg, _ := r.domains.Get(name)
		if !cfg.Enabled {
			continue
		}
		part, err := r.resolveDependencies(name, resolved, visiting)
		if err != nil {
			return nil, err
		}
		order = append(order, part...)
	}

	// Deduplicate, keeping the first occurrence of each domain.
	seen := make(map[string]bool, len(order))
	result := order[:0]
	for _, d := range order {
		if !seen[d] {
			seen[d] = true
			result = append(result, d)
		}
	}
	return result, nil
}

// resolveDependencies performs the depth-first walk for one domain.
// resolved holds fully ordered domains; visiting holds the current
// recursion stack for cycle detection.
func (r *Registry) resolveDependencies(name string, resolved, visiting map[string]bool) ([]string, error) {
	if resolved[name] {
		return nil, nil
	}
	if visiting[name] {
		return nil, &DependencyError{Domain: name, Cycle: true}
	}

	cfg, ok := r.domains.Get(name)
	if !ok {
		return nil, &DomainNotFoundError{Domain: name}
	}
	if !cfg.Enabled {
		// A disabled domain contributes nothing, even when depended upon.
		// This can mask a real misconfiguration, so it is surfaced loudly.
		slog.Warn("Skipping disabled domain during resolution", "domain", name)
		return nil, nil
	}

	visiting[name] = true
	var order []string

	for _, dep := range cfg.DependsOn {
		if !r.domains.Has(dep) {
			return nil, &DependencyError{Domain: name, Dep: dep}
		}
		part, err := r.resolveDependencies(dep, resolved, visiting)
		if err != nil {
			return nil, err
		}
		order = append(order, part...)
	}

	delete(visiting, name)
	resolved[name] = true
	order = append(order, name)

	return order, nil
}
