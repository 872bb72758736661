package qualityimprovement

import (
	"github.com/referralgraph/referralgraph/internal/registry"
	"github.com/referralgraph/referralgraph/internal/schema"
)

// ModuleRef is the module reference domains.yaml uses to load this package.
const ModuleRef = "quality_improvement"

func init() {
	registry.RegisterModule(ModuleRef, func(store schema.GraphStore) registry.Module {
		return New(store)
	})
}

// Tools implements registry.Module.
func (d *Domain) Tools() map[string]schema.ToolFunc {
	return map[string]schema.ToolFunc{
		"get_protocol_adoption_status":     d.getProtocolAdoptionStatus,
		"find_adoption_gaps":               d.findAdoptionGaps,
		"get_protocol_spread_path":         d.getProtocolSpreadPath,
		"find_quality_champions":           d.findQualityChampions,
		"analyze_outcome_improvement":      d.analyzeOutcomeImprovement,
		"generate_adoption_spread_diagram": d.generateAdoptionSpreadDiagram,
	}
}

// Definitions implements registry.Module.
func (d *Domain) Definitions() []schema.ToolDefinition {
	return []schema.ToolDefinition{
		{
			Name:        "get_protocol_adoption_status",
			Description: "Get adoption status for a quality improvement protocol across all hospitals. Returns adoption rates, compliance levels, and lists of adopters/non-adopters.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"protocol_name": map[string]any{
						"type":        "string",
						"description": "Name of the protocol (e.g., 'Sepsis Bundle v2.0', 'CLABSI Prevention Bundle')",
					},
				},
				"required": []string{"protocol_name"},
			},
		},
		{
			Name:        "find_adoption_gaps",
			Description: "Find non-adopting hospitals that are well-connected to successful adopters. Identifies high-potential outreach targets and isolated hospitals needing intervention.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"protocol_name": map[string]any{
						"type":        "string",
						"description": "Name of the protocol",
					},
					"min_connections": map[string]any{
						"type":        "integer",
						"description": "Minimum connections to adopters to be considered high-potential (default: 2)",
						"default":     2,
					},
				},
				"required": []string{"protocol_name"},
			},
		},
		{
			Name:        "get_protocol_spread_path",
			Description: "Trace how a protocol spread to reach a specific hospital. Shows the chain of influence with interaction types and dates.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"protocol_name": map[string]any{
						"type":        "string",
						"description": "Name of the protocol",
					},
					"hospital_name": map[string]any{
						"type":        "string",
						"description": "Name of the hospital to trace the path to",
					},
				},
				"required": []string{"protocol_name", "hospital_name"},
			},
		},
		{
			Name:        "find_quality_champions",
			Description: "Identify hospitals that have influenced multiple others to adopt quality improvement protocols. Returns ranked list of influential hospitals with their methods and impact.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"protocol_name": map[string]any{
						"type":        "string",
						"description": "Optional: filter to a specific protocol. Leave empty to analyze all protocols.",
					},
				},
				"required": []string{},
			},
		},
		{
			Name:        "analyze_outcome_improvement",
			Description: "Analyze outcome improvements for hospitals that adopted a protocol. Shows baseline vs current metrics, improvement percentages, and top improvers.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"protocol_name": map[string]any{
						"type":        "string",
						"description": "Name of the protocol to analyze",
					},
					"metric_name": map[string]any{
						"type":        "string",
						"description": "Optional: specific outcome metric to analyze",
					},
				},
				"required": []string{"protocol_name"},
			},
		},
		{
			Name:        "generate_adoption_spread_diagram",
			Description: "Generate a Mermaid diagram visualizing how a protocol spread through the hospital network. Color-codes hospitals by adoption timing and shows influence relationships.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"protocol_name": map[string]any{
						"type":        "string",
						"description": "Name of the protocol to visualize",
					},
					"show_timeline": map[string]any{
						"type":        "boolean",
						"description": "Whether to color-code by adoption timing (default: true)",
						"default":     true,
					},
					"max_hospitals": map[string]any{
						"type":        "integer",
						"description": "Maximum hospitals to include in diagram (default: 30)",
						"default":     30,
					},
				},
				"required": []string{"protocol_name"},
			},
		},
	}
}
