package registry

import "fmt"

// ConfigError reports a missing or malformed domains configuration, or a
// domain whose module reference cannot be resolved. The registry is unusable
// after a ConfigError raised at construction or load time.
type ConfigError struct {
	Path   string // configuration file, when relevant
	Domain string // offending domain, when relevant
	Reason string
	Err    error // underlying cause, when wrapped
}

func (e *ConfigError) Error() string {
	msg := "invalid configuration"
	switch {
	case e.Domain != "" && e.Err != nil:
		msg = fmt.Sprintf("failed to load domain %q: %s", e.Domain, e.Reason)
	case e.Domain != "":
		msg = fmt.Sprintf("invalid configuration for domain %q: %s", e.Domain, e.Reason)
	case e.Path != "":
		msg = fmt.Sprintf("invalid configuration %s: %s", e.Path, e.Reason)
	case e.Reason != "":
		msg = "invalid configuration: " + e.Reason
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DomainNotFoundError reports a lookup of a domain name absent from the
// configured domain map.
type DomainNotFoundError struct {
	Domain string
}

func (e *DomainNotFoundError) Error() string {
	return fmt.Sprintf("domain not found: %s", e.Domain)
}

// DependencyError reports an unresolvable depends_on graph: either a
// circular dependency chain or a dependency naming an unknown domain.
type DependencyError struct {
	Domain string // the domain being resolved
	Dep    string // the offending dependency, empty for cycles
	Cycle  bool
}

func (e *DependencyError) Error() string {
	if e.Cycle {
		return fmt.Sprintf("circular dependency detected: %s", e.Domain)
	}
	return fmt.Sprintf("domain %q depends on unknown domain: %s", e.Domain, e.Dep)
}

// ToolNotFoundError reports a lookup of a tool name absent from every
// enabled domain. It is local to the lookup and does not invalidate the
// registry.
type ToolNotFoundError struct {
	Tool string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Tool)
}
