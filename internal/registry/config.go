package registry

import (
	"os"

	"gopkg.in/yaml.v3"
)

// DomainConfig is the descriptor for one configured domain.
type DomainConfig struct {
	// Label is the optional human-readable name from the config file.
	Label       string   `yaml:"name" json:"name,omitempty"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Enabled     bool     `yaml:"enabled" json:"enabled"`
	Module      string   `yaml:"module" json:"module"`
	Tools       []string `yaml:"tools" json:"tools"`
	DependsOn   []string `yaml:"depends_on" json:"depends_on,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (d DomainConfig) Clone() DomainConfig {
	out := d
	out.Tools = append([]string(nil), d.Tools...)
	out.DependsOn = append([]string(nil), d.DependsOn...)
	return out
}

// DomainSet is the parsed domains.yaml document. It preserves the document
// order of the domains mapping so dependency resolution stays reproducible
// for identical input.
type DomainSet struct {
	Version string

	order   []string
	domains map[string]DomainConfig
}

// domainsDocument mirrors the top-level layout of domains.yaml. The domains
// mapping is kept as a raw node so key order can be recovered.
type domainsDocument struct {
	Version string    `yaml:"version"`
	Domains yaml.Node `yaml:"domains"`
}

// LoadDomainsFile reads and validates the domain configuration at path.
// A missing file, unparseable YAML, or an absent/empty top-level "domains"
// mapping is a *ConfigError.
func LoadDomainsFile(path string) (*DomainSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Reason: "configuration file not found", Err: err}
	}
	return ParseDomains(path, data)
}

// ParseDomains parses a domains.yaml document. path is used for error
// reporting only.
func ParseDomains(path string, data []byte) (*DomainSet, error) {
	var doc domainsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Path: path, Reason: "not valid YAML", Err: err}
	}

	if doc.Domains.Kind == 0 || doc.Domains.Tag == "!!null" {
		return nil, &ConfigError{Path: path, Reason: "'domains' section required"}
	}
	if doc.Domains.Kind != yaml.MappingNode {
		return nil, &ConfigError{Path: path, Reason: "'domains' must be a mapping"}
	}

	set := &DomainSet{
		Version: doc.Version,
		domains: make(map[string]DomainConfig, len(doc.Domains.Content)/2),
	}

	// Mapping node content alternates key, value.
	for i := 0; i+1 < len(doc.Domains.Content); i += 2 {
		keyNode, valNode := doc.Domains.Content[i], doc.Domains.Content[i+1]

		var cfg DomainConfig
		if err := valNode.Decode(&cfg); err != nil {
			return nil, &ConfigError{Path: path, Domain: keyNode.Value, Reason: "malformed domain entry", Err: err}
		}
		set.order = append(set.order, keyNode.Value)
		set.domains[keyNode.Value] = cfg
	}

	return set, nil
}

// Names returns the domain names in document order.
func (s *DomainSet) Names() []string {
	return append([]string(nil), s.order...)
}

// Get returns the descriptor for name.
func (s *DomainSet) Get(name string) (DomainConfig, bool) {
	cfg, ok := s.domains[name]
	return cfg, ok
}

// Has reports whether name is a configured domain.
func (s *DomainSet) Has(name string) bool {
	_, ok := s.domains[name]
	return ok
}

// Len returns the number of configured domains.
func (s *DomainSet) Len() int { return len(s.order) }
