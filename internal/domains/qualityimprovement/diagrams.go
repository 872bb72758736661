package qualityimprovement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/referralgraph/referralgraph/internal/diagram"
	"github.com/referralgraph/referralgraph/internal/gremlin"
)

// adoptionColors keys the wave palette used by the spread diagram.
var adoptionColors = map[string]string{
	"early":       "#4CAF50",
	"mid":         "#FFC107",
	"late":        "#FF9800",
	"non_adopter": "#F44336",
}

var interactionAbbrev = map[string]string{
	"site_visit":              "visit",
	"webinar":                 "web",
	"collaborative_meeting":   "collab",
	"peer_consult":            "consult",
	"publication":             "pub",
	"conference_presentation": "conf",
}

// classifyAdoptionWave buckets a hospital by how long after the protocol
// release it adopted: early within 6 months, mid within a year, late after.
// Unparseable dates default to mid.
func classifyAdoptionWave(adoptionDate, releaseDate string) string {
	adopted, err1 := time.Parse("2006-01-02", adoptionDate)
	released, err2 := time.Parse("2006-01-02", releaseDate)
	if err1 != nil || err2 != nil {
		return "mid"
	}
	days := int(adopted.Sub(released).Hours() / 24)
	switch {
	case days <= 180:
		return "early"
	case days <= 365:
		return "mid"
	default:
		return "late"
	}
}

func waveStyle(wave string) string {
	color, ok := adoptionColors[wave]
	if !ok {
		color = adoptionColors["mid"]
	}
	textColor := "#fff"
	if wave == "mid" {
		textColor = "#000"
	}
	return "fill:" + color + ",color:" + textColor
}

// AdoptionEdge is one learned_from influence relationship.
type AdoptionEdge struct {
	From            string
	To              string
	InteractionType string
}

// Adopter is one hospital's adoption record for a protocol.
type Adopter struct {
	Hospital       string
	AdoptionDate   string
	ComplianceRate float64
}

// RenderAdoptionSpread produces a Mermaid diagram of protocol adoption,
// grouping hospitals into wave subgraphs when showTimeline is set.
func RenderAdoptionSpread(protocolName, releaseDate string, adopters []Adopter, influences []AdoptionEdge, showTimeline bool) string {
	if len(adopters) == 0 {
		return diagram.Fence(fmt.Sprintf(`graph LR
    NO_DATA["No adoption data found for %s"]`, diagram.EscapeLabel(protocolName)))
	}

	waves := make(map[string]string)
	compliance := make(map[string]float64)
	var hospitalOrder []string
	for _, a := range adopters {
		if _, seen := waves[a.Hospital]; seen {
			continue
		}
		wave := "mid"
		if showTimeline {
			wave = classifyAdoptionWave(a.AdoptionDate, releaseDate)
		}
		waves[a.Hospital] = wave
		compliance[a.Hospital] = a.ComplianceRate
		hospitalOrder = append(hospitalOrder, a.Hospital)
	}

	lines := []string{"---", fmt.Sprintf("title: %q", "Protocol Spread: "+diagram.EscapeLabel(protocolName)), "---", "graph LR"}

	nodeLine := func(indent, hospital string) string {
		return fmt.Sprintf(`%s%s["%s<br/>%g%%"]`, indent,
			diagram.SanitizeNodeID(hospital), diagram.EscapeLabel(hospital), compliance[hospital])
	}

	if showTimeline {
		waveLabels := []struct{ key, label string }{
			{"early", "Early Adopters (0-6 months)"},
			{"mid", "Mid Adopters (6-12 months)"},
			{"late", "Late Adopters (12+ months)"},
		}
		for _, w := range waveLabels {
			var members []string
			for _, h := range hospitalOrder {
				if waves[h] == w.key {
					members = append(members, h)
				}
			}
			if len(members) == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf(`    subgraph %s["%s"]`, w.key, w.label))
			for _, h := range members {
				lines = append(lines, nodeLine("        ", h))
			}
			lines = append(lines, "    end")
		}
	} else {
		for _, h := range hospitalOrder {
			lines = append(lines, nodeLine("    ", h))
		}
	}

	lines = append(lines, "")
	for _, inf := range influences {
		if _, ok := waves[inf.From]; !ok {
			continue
		}
		if _, ok := waves[inf.To]; !ok {
			continue
		}
		label := interactionAbbrev[inf.InteractionType]
		if label == "" {
			label = inf.InteractionType
			if len(label) > 6 {
				label = label[:6]
			}
		}
		lines = append(lines, fmt.Sprintf(`    %s -->|"%s"| %s`,
			diagram.SanitizeNodeID(inf.From), label, diagram.SanitizeNodeID(inf.To)))
	}

	lines = append(lines, "")
	for _, h := range hospitalOrder {
		lines = append(lines, fmt.Sprintf("    style %s %s", diagram.SanitizeNodeID(h), waveStyle(waves[h])))
	}

	if showTimeline {
		lines = append(lines,
			"",
			`    subgraph Legend["Legend"]`,
			`        LE["Early (0-6 mo)"]`,
			`        LM["Mid (6-12 mo)"]`,
			`        LL["Late (12+ mo)"]`,
			"    end",
			"    style LE fill:"+adoptionColors["early"]+",color:#fff",
			"    style LM fill:"+adoptionColors["mid"]+",color:#000",
			"    style LL fill:"+adoptionColors["late"]+",color:#fff",
		)
	}

	return diagram.Fence(strings.Join(lines, "\n"))
}

// generateAdoptionSpreadDiagram fetches a protocol's adopters and influence
// edges and renders the spread diagram.
func (d *Domain) generateAdoptionSpreadDiagram(ctx context.Context, args map[string]any) (any, error) {
	protocolName := stringArg(args, "protocol_name")
	showTimeline := boolArg(args, "show_timeline", true)
	maxHospitals := intArg(args, "max_hospitals", 30)
	safe := gremlin.EscapeString(protocolName)

	releaseQuery := fmt.Sprintf(
		"g.V().has('protocol', 'name', TextP.containing('%s')).values('release_date')", safe)
	releaseRaw, err := d.store.Submit(ctx, releaseQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("generate_adoption_spread_diagram: %w", err)
	}
	releaseDate := "2024-01-01"
	if len(releaseRaw) > 0 {
		if s, ok := releaseRaw[0].(string); ok {
			releaseDate = s
		}
	}

	adoptersQuery := fmt.Sprintf(`g.V().has('protocol', 'name', TextP.containing('%s'))
  .inE('adopted')
  .project('hospital', 'adoption_date', 'compliance_rate', 'type')
  .by(outV().values('name'))
  .by('adoption_date')
  .by('compliance_rate')
  .by(outV().values('type'))
  .limit(%d)`, safe, maxHospitals)
	adoptersRaw, err := d.store.Submit(ctx, adoptersQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("generate_adoption_spread_diagram: %w", err)
	}
	var adopters []Adopter
	for _, m := range asMaps(adoptersRaw) {
		hospital, _ := m["hospital"].(string)
		date, _ := m["adoption_date"].(string)
		adopters = append(adopters, Adopter{
			Hospital:       hospital,
			AdoptionDate:   date,
			ComplianceRate: toFloat(m["compliance_rate"]),
		})
	}

	influenceQuery := fmt.Sprintf(`g.E().hasLabel('learned_from')
  .has('protocol_context', TextP.containing('%s'))
  .project('from', 'to', 'interaction_type')
  .by(outV().values('name'))
  .by(inV().values('name'))
  .by('interaction_type')`, safe)
	influencesRaw, err := d.store.Submit(ctx, influenceQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("generate_adoption_spread_diagram: %w", err)
	}
	var influences []AdoptionEdge
	for _, m := range asMaps(influencesRaw) {
		from, _ := m["from"].(string)
		to, _ := m["to"].(string)
		it, _ := m["interaction_type"].(string)
		influences = append(influences, AdoptionEdge{From: from, To: to, InteractionType: it})
	}

	mermaid := RenderAdoptionSpread(protocolName, releaseDate, adopters, influences, showTimeline)
	return map[string]any{"diagram": mermaid, "adopter_count": len(adopters)}, nil
}
