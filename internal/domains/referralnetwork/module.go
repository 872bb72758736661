// Package referralnetwork provides graph analytics tools over the hospital
// referral network: hospital search, referral flows, path finding, and
// Mermaid diagram generation.
package referralnetwork

import (
	"github.com/referralgraph/referralgraph/internal/registry"
	"github.com/referralgraph/referralgraph/internal/schema"
)

// ModuleRef is the module reference domains.yaml uses to load this package.
const ModuleRef = "referral_network"

func init() {
	registry.RegisterModule(ModuleRef, func(store schema.GraphStore) registry.Module {
		return New(store)
	})
}

// Tools implements registry.Module.
func (d *Domain) Tools() map[string]schema.ToolFunc {
	return map[string]schema.ToolFunc{
		"find_hospital":                     d.findHospital,
		"get_referral_sources":              d.getReferralSources,
		"get_referral_destinations":         d.getReferralDestinations,
		"get_network_statistics":            d.getNetworkStatistics,
		"find_referral_path":                d.findReferralPath,
		"get_providers_by_specialty":        d.getProvidersBySpecialty,
		"get_hospitals_by_service":          d.getHospitalsByService,
		"analyze_rural_access":              d.analyzeRuralAccess,
		"generate_referral_network_diagram": d.generateReferralNetworkDiagram,
		"generate_path_diagram":             d.generatePathDiagram,
		"generate_service_network_diagram":  d.generateServiceNetworkDiagram,
	}
}

// Definitions implements registry.Module.
func (d *Domain) Definitions() []schema.ToolDefinition {
	return []schema.ToolDefinition{
		{
			Name:        "find_hospital",
			Description: "Search for hospitals by name, state, type, or rural status. Use partial names like 'Children's Mercy' to find matches.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":          map[string]any{"type": "string", "description": "Hospital name (partial match supported)"},
					"state":         map[string]any{"type": "string", "description": "State abbreviation (e.g., 'MO', 'KS')"},
					"hospital_type": map[string]any{"type": "string", "enum": []string{"tertiary", "community", "regional", "specialty"}},
					"rural":         map[string]any{"type": "boolean", "description": "Whether the hospital is in a rural area"},
				},
			},
		},
		{
			Name:        "get_referral_sources",
			Description: "Find all hospitals that refer patients to a specific hospital",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"hospital_name": map[string]any{"type": "string", "description": "Exact name of the receiving hospital"},
				},
				"required": []string{"hospital_name"},
			},
		},
		{
			Name:        "get_referral_destinations",
			Description: "Find all hospitals that receive referrals from a specific hospital",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"hospital_name": map[string]any{"type": "string", "description": "Exact name of the referring hospital"},
				},
				"required": []string{"hospital_name"},
			},
		},
		{
			Name:        "get_network_statistics",
			Description: "Get overall statistics about the referral network",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "find_referral_path",
			Description: "Find referral paths between two hospitals",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"from_hospital": map[string]any{"type": "string", "description": "Starting hospital name"},
					"to_hospital":   map[string]any{"type": "string", "description": "Destination hospital name"},
					"max_hops":      map[string]any{"type": "integer", "description": "Maximum intermediate hospitals", "default": 3},
				},
				"required": []string{"from_hospital", "to_hospital"},
			},
		},
		{
			Name:        "get_providers_by_specialty",
			Description: "Find providers by medical specialty",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"specialty": map[string]any{"type": "string", "description": "Medical specialty name"},
				},
				"required": []string{"specialty"},
			},
		},
		{
			Name:        "get_hospitals_by_service",
			Description: "Find hospitals offering a specific service line",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"service_name": map[string]any{"type": "string", "description": "Name of the service line"},
				},
				"required": []string{"service_name"},
			},
		},
		{
			Name:        "analyze_rural_access",
			Description: "Analyze how rural hospitals connect to specialized services",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"service_name": map[string]any{"type": "string", "description": "Name of the specialized service"},
				},
				"required": []string{"service_name"},
			},
		},
		{
			Name:        "generate_referral_network_diagram",
			Description: "Generate a Mermaid diagram showing hospital referral relationships",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"hospital_name":   map[string]any{"type": "string", "description": "Optional: focus on specific hospital"},
					"include_volumes": map[string]any{"type": "boolean", "description": "Show referral counts", "default": true},
					"direction":       map[string]any{"type": "string", "enum": []string{"LR", "TB", "RL", "BT"}, "default": "LR"},
				},
			},
		},
		{
			Name:        "generate_path_diagram",
			Description: "Generate a Mermaid diagram showing paths between two hospitals",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"from_hospital": map[string]any{"type": "string", "description": "Starting hospital name"},
					"to_hospital":   map[string]any{"type": "string", "description": "Destination hospital name"},
					"max_hops":      map[string]any{"type": "integer", "description": "Maximum path length", "default": 3},
				},
				"required": []string{"from_hospital", "to_hospital"},
			},
		},
		{
			Name:        "generate_service_network_diagram",
			Description: "Generate a Mermaid diagram showing hospitals that provide a service",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"service_name":     map[string]any{"type": "string", "description": "Name of the service line"},
					"include_rankings": map[string]any{"type": "boolean", "description": "Show hospital rankings", "default": true},
				},
				"required": []string{"service_name"},
			},
		},
	}
}
