package referralnetwork

import (
	"context"
	"fmt"
	"strings"

	"github.com/referralgraph/referralgraph/internal/diagram"
	"github.com/referralgraph/referralgraph/internal/gremlin"
)

// hospitalLookup indexes hospital type and rural status by name for node
// styling.
type hospitalLookup struct {
	types map[string]string
	rural map[string]bool
}

func newHospitalLookup(hospitals []map[string]any) hospitalLookup {
	l := hospitalLookup{types: make(map[string]string), rural: make(map[string]bool)}
	for _, h := range hospitals {
		name, _ := gremlin.Unlist(h["name"]).(string)
		if name == "" {
			continue
		}
		if t, ok := gremlin.Unlist(h["type"]).(string); ok {
			l.types[name] = t
		}
		if r, ok := gremlin.Unlist(h["rural"]).(bool); ok {
			l.rural[name] = r
		}
	}
	return l
}

func (l hospitalLookup) typeOf(name string) string {
	if t, ok := l.types[name]; ok {
		return t
	}
	return "community"
}

func (l hospitalLookup) isRural(name string) bool { return l.rural[name] }

// analyzeComplexity decides whether a diagram needs a title and legend:
// five or more nodes, or three or more distinct visual styles.
func analyzeComplexity(nodeNames []string, lookup hospitalLookup) (complex bool, typesPresent map[string]bool, hasRural bool) {
	typesPresent = make(map[string]bool)
	for _, name := range nodeNames {
		if lookup.isRural(name) {
			hasRural = true
		}
		typesPresent[lookup.typeOf(name)] = true
	}
	styleCount := len(typesPresent)
	if hasRural {
		styleCount++
	}
	complex = len(nodeNames) >= 5 || styleCount >= 3
	return complex, typesPresent, hasRural
}

// legendLines builds a Mermaid subgraph legend for the hospital types
// present, returning the subgraph lines and the matching style lines.
func legendLines(typesPresent map[string]bool, hasRural bool) (legend, styles []string) {
	type entry struct{ nodeID, label, key string }
	entries := []entry{
		{"LT", "Tertiary", "tertiary"},
		{"LC", "Community", "community"},
		{"LR", "Regional", "regional"},
		{"LS", "Specialty", "specialty"},
	}

	legend = append(legend, `    subgraph Legend[" "]`)
	for _, e := range entries {
		if typesPresent[e.key] {
			legend = append(legend, fmt.Sprintf(`        %s["%s"]`, e.nodeID, e.label))
			styles = append(styles, fmt.Sprintf("    style %s fill:%s,color:#fff", e.nodeID, diagram.Colors[e.key]))
		}
	}
	if hasRural {
		legend = append(legend, `        LRural["Rural"]`)
		styles = append(styles, fmt.Sprintf("    style LRural fill:%s,color:#fff", diagram.Colors["rural"]))
	}
	legend = append(legend, "    end")
	return legend, styles
}

// NetworkDiagramOptions controls RenderReferralNetwork output.
type NetworkDiagramOptions struct {
	HospitalName   string // focus hospital, used in the auto-generated title
	IncludeVolumes bool
	Direction      string // LR, TB, RL, BT
	Title          string // empty = auto-generate for complex diagrams
	IncludeLegend  *bool  // nil = auto-detect based on complexity
}

// RenderReferralNetwork produces a Mermaid flowchart of hospital referral
// relationships, styled by hospital type.
func RenderReferralNetwork(referrals, hospitals []map[string]any, opts NetworkDiagramOptions) string {
	if len(referrals) == 0 {
		return diagram.Fence("graph LR\n    NO_DATA[\"No referral data found\"]")
	}

	direction := opts.Direction
	if direction == "" {
		direction = "LR"
	}

	lookup := newHospitalLookup(hospitals)

	nodes := make(map[string]string) // node ID -> hospital name
	var nodeOrder, edges, styles []string

	addNode := func(name string) string {
		id := diagram.SanitizeNodeID(name)
		if _, seen := nodes[id]; !seen {
			nodes[id] = name
			nodeOrder = append(nodeOrder, id)
			styles = append(styles, fmt.Sprintf("    style %s %s",
				id, diagram.HospitalStyle(lookup.typeOf(name), lookup.isRural(name))))
		}
		return id
	}

	for _, ref := range referrals {
		fromName := edgeEndpoint(ref, "from_name", "referring_hospital")
		toName := edgeEndpoint(ref, "to_name", "destination_hospital")
		if fromName == "" || toName == "" {
			continue
		}
		fromID := addNode(fromName)
		toID := addNode(toName)

		count := edgeCount(ref)
		if opts.IncludeVolumes && count > 0 {
			edges = append(edges, fmt.Sprintf(`    %s -->|"%d"| %s`, fromID, count, toID))
		} else {
			edges = append(edges, fmt.Sprintf("    %s --> %s", fromID, toID))
		}
	}

	nodeNames := make([]string, 0, len(nodeOrder))
	for _, id := range nodeOrder {
		nodeNames = append(nodeNames, nodes[id])
	}
	isComplex, typesPresent, hasRural := analyzeComplexity(nodeNames, lookup)

	showLegend := isComplex
	if opts.IncludeLegend != nil {
		showLegend = *opts.IncludeLegend
	}

	title := opts.Title
	if title == "" && isComplex {
		if opts.HospitalName != "" {
			title = "Referrals for " + opts.HospitalName
		} else {
			title = "Hospital Referral Network"
		}
	}

	var lines []string
	if title != "" {
		lines = append(lines, "---", fmt.Sprintf("title: %q", title), "---")
	}
	lines = append(lines, "graph "+direction)
	for _, id := range nodeOrder {
		lines = append(lines, fmt.Sprintf(`    %s["%s"]`, id, diagram.EscapeLabel(nodes[id])))
	}
	lines = append(lines, "")
	lines = append(lines, edges...)
	lines = append(lines, "")
	lines = append(lines, styles...)

	if showLegend {
		legend, legendStyles := legendLines(typesPresent, hasRural)
		lines = append(lines, "")
		lines = append(lines, legend...)
		lines = append(lines, legendStyles...)
	}

	return diagram.Fence(strings.Join(lines, "\n"))
}

// RenderPathDiagram produces a Mermaid flowchart of the referral paths
// between two hospitals. Each path is a sequence of hospital names.
func RenderPathDiagram(paths [][]string, hospitals []map[string]any, fromHospital, toHospital string, referrals []map[string]any) string {
	if len(paths) == 0 {
		return diagram.Fence(fmt.Sprintf(`graph LR
    NO_PATH["No path found from %s to %s"]`,
			diagram.EscapeLabel(fromHospital), diagram.EscapeLabel(toHospital)))
	}

	lookup := newHospitalLookup(hospitals)

	volumes := make(map[[2]string]int)
	for _, ref := range referrals {
		from := edgeEndpoint(ref, "from_name", "")
		to := edgeEndpoint(ref, "to_name", "")
		if from != "" && to != "" {
			volumes[[2]string{from, to}] = edgeCount(ref)
		}
	}

	nodes := make(map[string]string)
	var nodeOrder []string
	seenEdges := make(map[string]bool)
	var edges, styles []string

	addNode := func(name string) string {
		id := diagram.SanitizeNodeID(name)
		if _, seen := nodes[id]; !seen {
			nodes[id] = name
			nodeOrder = append(nodeOrder, id)
			switch name {
			case fromHospital:
				styles = append(styles, fmt.Sprintf("    style %s %s,stroke:#2E7D32,stroke-width:3px", id, diagram.Style("start")))
			case toHospital:
				styles = append(styles, fmt.Sprintf("    style %s %s,stroke:#B71C1C,stroke-width:3px", id, diagram.Style("end")))
			default:
				styles = append(styles, fmt.Sprintf("    style %s %s",
					id, diagram.HospitalStyle(lookup.typeOf(name), lookup.isRural(name))))
			}
		}
		return id
	}

	for _, path := range paths {
		for i, name := range path {
			id := addNode(name)
			if i == 0 {
				continue
			}
			prevID := diagram.SanitizeNodeID(path[i-1])
			key := prevID + "->" + id
			if seenEdges[key] {
				continue
			}
			seenEdges[key] = true
			if count, ok := volumes[[2]string{path[i-1], name}]; ok && count > 0 {
				edges = append(edges, fmt.Sprintf(`    %s -->|"%d"| %s`, prevID, count, id))
			} else {
				edges = append(edges, fmt.Sprintf("    %s --> %s", prevID, id))
			}
		}
	}

	lines := []string{"---", fmt.Sprintf("title: %q", fmt.Sprintf("Referral Paths: %s to %s", fromHospital, toHospital)), "---", "graph LR"}
	for _, id := range nodeOrder {
		lines = append(lines, fmt.Sprintf(`    %s["%s"]`, id, diagram.EscapeLabel(nodes[id])))
	}
	lines = append(lines, "")
	lines = append(lines, edges...)
	lines = append(lines, "")
	lines = append(lines, styles...)

	return diagram.Fence(strings.Join(lines, "\n"))
}

// RenderServiceNetwork produces a Mermaid diagram of the hospitals offering
// one service line, colored by ranking.
func RenderServiceNetwork(serviceData []map[string]any, serviceName string, includeRankings bool) string {
	if len(serviceData) == 0 {
		return diagram.Fence(fmt.Sprintf(`graph TD
    NO_DATA["No hospitals found for %s"]`, diagram.EscapeLabel(serviceName)))
	}

	isComplex := len(serviceData) >= 5

	var lines []string
	if isComplex {
		lines = append(lines, "---", fmt.Sprintf("title: %q", serviceName+" Service Network"), "---")
	}
	lines = append(lines, "graph TD")

	serviceID := diagram.SanitizeNodeID(serviceName)
	lines = append(lines, fmt.Sprintf(`    %s(["%s"])`, serviceID, diagram.EscapeLabel(serviceName)))

	var nodes, edges []string
	styles := []string{fmt.Sprintf("    style %s fill:%s,color:#fff,stroke:#4527A0,stroke-width:2px",
		serviceID, diagram.Colors["service"])}

	for _, item := range serviceData {
		hospital, _ := item["hospital"].(string)
		if hospital == "" {
			continue
		}
		volume := toInt(item["volume"])
		ranking := toInt(item["ranking"])

		nodeID := diagram.SanitizeNodeID(hospital)
		label := fmt.Sprintf("%s | Vol: %d", diagram.EscapeLabel(hospital), volume)
		if includeRankings && ranking > 0 {
			label = fmt.Sprintf("%s | Rank: %d", label, ranking)
		}
		nodes = append(nodes, fmt.Sprintf(`    %s["%s"]`, nodeID, label))
		edges = append(edges, fmt.Sprintf("    %s --> %s", serviceID, nodeID))

		switch {
		case ranking == 1:
			styles = append(styles, fmt.Sprintf("    style %s %s", nodeID, diagram.Style("highlight")))
		case ranking > 1 && ranking <= 3:
			styles = append(styles, fmt.Sprintf("    style %s fill:#C0C0C0,color:#000", nodeID))
		default:
			styles = append(styles, fmt.Sprintf("    style %s fill:#CD7F32,color:#fff", nodeID))
		}
	}

	lines = append(lines, nodes...)
	lines = append(lines, "")
	lines = append(lines, edges...)
	lines = append(lines, "")
	lines = append(lines, styles...)

	return diagram.Fence(strings.Join(lines, "\n"))
}

// ---------------------------------------------------------------------------
// Diagram tools (fetch + render)
// ---------------------------------------------------------------------------

// generateReferralNetworkDiagram fetches referral data and renders the
// network diagram. When hospital_name is set, only edges touching that
// hospital are included.
func (d *Domain) generateReferralNetworkDiagram(ctx context.Context, args map[string]any) (any, error) {
	hospitalName := stringArg(args, "hospital_name")

	hospitals, err := d.allHospitals(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate_referral_network_diagram: %w", err)
	}

	var referrals []map[string]any
	if hospitalName != "" {
		referrals, err = d.hospitalReferrals(ctx, hospitalName)
	} else {
		referrals, err = d.allReferrals(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("generate_referral_network_diagram: %w", err)
	}

	mermaid := RenderReferralNetwork(referrals, hospitals, NetworkDiagramOptions{
		HospitalName:   hospitalName,
		IncludeVolumes: boolArg(args, "include_volumes", true),
		Direction:      stringArg(args, "direction"),
	})
	return map[string]any{"diagram": mermaid, "referral_count": len(referrals)}, nil
}

// generatePathDiagram fetches the referral paths between two hospitals and
// renders them.
func (d *Domain) generatePathDiagram(ctx context.Context, args map[string]any) (any, error) {
	from := stringArg(args, "from_hospital")
	to := stringArg(args, "to_hospital")

	raw, err := d.findReferralPath(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("generate_path_diagram: %w", err)
	}
	paths := NormalizePaths(raw.([]any))

	hospitals, err := d.allHospitals(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate_path_diagram: %w", err)
	}
	referrals, err := d.allReferrals(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate_path_diagram: %w", err)
	}

	mermaid := RenderPathDiagram(paths, hospitals, from, to, referrals)
	return map[string]any{"diagram": mermaid, "path_count": len(paths)}, nil
}

// generateServiceNetworkDiagram fetches the service line's hospitals and
// renders the hub diagram.
func (d *Domain) generateServiceNetworkDiagram(ctx context.Context, args map[string]any) (any, error) {
	serviceName := stringArg(args, "service_name")

	raw, err := d.getHospitalsByService(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("generate_service_network_diagram: %w", err)
	}
	serviceData := asMaps(raw.([]any))

	mermaid := RenderServiceNetwork(serviceData, serviceName, boolArg(args, "include_rankings", true))
	return map[string]any{"diagram": mermaid, "hospital_count": len(serviceData)}, nil
}

// NormalizePaths converts raw Gremlin path results into name sequences.
// Cosmos returns paths either as plain lists or as GraphSON maps carrying
// an "objects" list.
func NormalizePaths(raw []any) [][]string {
	var paths [][]string
	for _, p := range raw {
		var objects []any
		switch v := p.(type) {
		case []any:
			objects = v
		case map[string]any:
			if objs, ok := v["objects"].([]any); ok {
				objects = objs
			} else if val, ok := v["@value"].(map[string]any); ok {
				objects, _ = val["objects"].([]any)
			}
		}
		if len(objects) == 0 {
			continue
		}
		path := make([]string, 0, len(objects))
		for _, o := range objects {
			if name, ok := gremlin.Unlist(o).(string); ok {
				path = append(path, name)
			}
		}
		if len(path) > 0 {
			paths = append(paths, path)
		}
	}
	return paths
}

// edgeEndpoint reads an endpoint name from a referral record by primary
// key, falling back to the projection alias used by the source/destination
// tools.
func edgeEndpoint(ref map[string]any, key, alt string) string {
	if s, ok := gremlin.Unlist(ref[key]).(string); ok && s != "" {
		return s
	}
	if alt != "" {
		if s, ok := gremlin.Unlist(ref[alt]).(string); ok {
			return s
		}
	}
	return ""
}

// edgeCount reads the referral volume from a record under either alias.
func edgeCount(ref map[string]any) int {
	if n := toInt(gremlin.Unlist(ref["count"])); n > 0 {
		return n
	}
	return toInt(gremlin.Unlist(ref["referral_count"]))
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}
