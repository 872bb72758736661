// Package qualityimprovement implements the protocol adoption analytics
// domain: adoption status, gap analysis, influence tracing, and the
// adoption spread diagram.
package qualityimprovement

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/referralgraph/referralgraph/internal/gremlin"
	"github.com/referralgraph/referralgraph/internal/schema"
)

// Domain bundles the quality-improvement tools around one graph store.
type Domain struct {
	store schema.GraphStore
	now   func() time.Time
}

// New creates the domain bound to store.
func New(store schema.GraphStore) *Domain {
	return &Domain{store: store, now: time.Now}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func boolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// getProtocolAdoptionStatus reports adoption statistics for one protocol:
// adopters with phase and compliance, non-adopters, and aggregate rates.
func (d *Domain) getProtocolAdoptionStatus(ctx context.Context, args map[string]any) (any, error) {
	protocolName := stringArg(args, "protocol_name")
	safe := gremlin.EscapeString(protocolName)

	protocolQuery := fmt.Sprintf(
		"g.V().has('protocol', 'name', TextP.containing('%s')).valueMap(true)", safe)
	protocolResults, err := d.store.Submit(ctx, protocolQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("get_protocol_adoption_status: %w", err)
	}
	if len(protocolResults) == 0 {
		return map[string]any{
			"error":    fmt.Sprintf("Protocol '%s' not found", protocolName),
			"protocol": protocolName,
		}, nil
	}
	protocol := asMaps(gremlin.CleanValueMap(protocolResults))[0]

	adoptersQuery := fmt.Sprintf(`g.V().has('protocol', 'name', TextP.containing('%s'))
  .inE('adopted')
  .project('hospital', 'state', 'type', 'adoption_date', 'compliance_rate', 'phase')
  .by(outV().values('name'))
  .by(outV().values('state'))
  .by(outV().values('type'))
  .by('adoption_date')
  .by('compliance_rate')
  .by('adoption_phase')`, safe)
	adoptersRaw, err := d.store.Submit(ctx, adoptersQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("get_protocol_adoption_status: %w", err)
	}
	adopters := asMaps(adoptersRaw)

	totalRaw, err := d.store.Submit(ctx, "g.V().hasLabel('hospital').count()", nil)
	if err != nil {
		return nil, fmt.Errorf("get_protocol_adoption_status: %w", err)
	}
	var totalHospitals float64
	if len(totalRaw) > 0 {
		totalHospitals = toFloat(totalRaw[0])
	}

	nonAdoptersQuery := fmt.Sprintf(`g.V().hasLabel('hospital')
  .not(__.out('adopted').has('name', TextP.containing('%s')))
  .project('hospital', 'state', 'type')
  .by('name')
  .by('state')
  .by('type')`, safe)
	nonAdoptersRaw, err := d.store.Submit(ctx, nonAdoptersQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("get_protocol_adoption_status: %w", err)
	}
	nonAdopters := asMaps(nonAdoptersRaw)

	adoptedCount := len(adopters)
	var adoptionRate float64
	if totalHospitals > 0 {
		adoptionRate = round1(float64(adoptedCount) / totalHospitals * 100)
	}

	byPhase := map[string]int{"full": 0, "partial": 0, "pilot": 0}
	var totalCompliance float64
	for _, a := range adopters {
		phase, _ := a["phase"].(string)
		if phase == "" {
			phase = "pilot"
		}
		byPhase[phase]++
		totalCompliance += toFloat(a["compliance_rate"])
	}
	var avgCompliance float64
	if adoptedCount > 0 {
		avgCompliance = round1(totalCompliance / float64(adoptedCount))
	}

	return map[string]any{
		"protocol":            firstString(protocol["name"], protocolName),
		"release_date":        firstString(protocol["release_date"], ""),
		"category":            firstString(protocol["category"], ""),
		"total_hospitals":     totalHospitals,
		"adopted_count":       adoptedCount,
		"adoption_rate":       adoptionRate,
		"by_phase":            byPhase,
		"avg_compliance_rate": avgCompliance,
		"adopters":            adopters,
		"non_adopters":        nonAdopters,
	}, nil
}

// findAdoptionGaps finds non-adopters ranked by their network ties to
// adopters. Hospitals at or above min_connections are outreach targets;
// hospitals with zero ties need direct intervention.
func (d *Domain) findAdoptionGaps(ctx context.Context, args map[string]any) (any, error) {
	protocolName := stringArg(args, "protocol_name")
	minConnections := intArg(args, "min_connections", 2)
	safe := gremlin.EscapeString(protocolName)

	query := fmt.Sprintf(`g.V().hasLabel('hospital')
  .not(__.out('adopted').has('name', TextP.containing('%s')))
  .as('non_adopter')
  .project('hospital', 'state', 'type', 'adopter_connections')
  .by('name')
  .by('state')
  .by('type')
  .by(
    __.both('refers_to', 'learned_from')
      .where(__.out('adopted').has('name', TextP.containing('%s')))
      .dedup()
      .count()
  )`, safe, safe)

	raw, err := d.store.Submit(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("find_adoption_gaps: %w", err)
	}
	results := asMaps(raw)

	var highPotential, isolated []map[string]any
	for _, h := range results {
		connections := int(toFloat(h["adopter_connections"]))
		info := map[string]any{
			"hospital":                h["hospital"],
			"state":                   h["state"],
			"type":                    h["type"],
			"connections_to_adopters": connections,
		}
		switch {
		case connections >= minConnections:
			info["recommendation"] = "High potential - strong network ties to adopters"
			highPotential = append(highPotential, info)
		case connections == 0:
			info["recommendation"] = "Requires direct CHA intervention - no network connections to adopters"
			isolated = append(isolated, info)
		}
	}

	sort.SliceStable(highPotential, func(i, j int) bool {
		return highPotential[i]["connections_to_adopters"].(int) > highPotential[j]["connections_to_adopters"].(int)
	})

	return map[string]any{
		"protocol":               protocolName,
		"analysis_date":          d.now().Format("2006-01-02"),
		"high_potential_targets": highPotential,
		"isolated_hospitals":     isolated,
		"summary": map[string]any{
			"high_potential_count": len(highPotential),
			"isolated_count":       len(isolated),
			"total_non_adopters":   len(results),
		},
	}, nil
}

// getProtocolSpreadPath traces the learned_from chain that brought one
// protocol to a hospital.
func (d *Domain) getProtocolSpreadPath(ctx context.Context, args map[string]any) (any, error) {
	protocolName := stringArg(args, "protocol_name")
	hospitalName := stringArg(args, "hospital_name")
	safeProtocol := gremlin.EscapeString(protocolName)
	safeHospital := gremlin.EscapeString(hospitalName)

	adoptionCheck := fmt.Sprintf(`g.V().has('hospital', 'name', TextP.containing('%s'))
  .outE('adopted')
  .inV().has('name', TextP.containing('%s'))
  .count()`, safeHospital, safeProtocol)
	checkRaw, err := d.store.Submit(ctx, adoptionCheck, nil)
	if err != nil {
		return nil, fmt.Errorf("get_protocol_spread_path: %w", err)
	}
	if len(checkRaw) == 0 || toFloat(checkRaw[0]) == 0 {
		return map[string]any{
			"error":    fmt.Sprintf("Hospital '%s' has not adopted protocol '%s'", hospitalName, protocolName),
			"hospital": hospitalName,
			"protocol": protocolName,
		}, nil
	}

	adoptionInfoQuery := fmt.Sprintf(`g.V().has('hospital', 'name', TextP.containing('%s'))
  .outE('adopted')
  .where(inV().has('name', TextP.containing('%s')))
  .valueMap()`, safeHospital, safeProtocol)
	infoRaw, err := d.store.Submit(ctx, adoptionInfoQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("get_protocol_spread_path: %w", err)
	}
	adoptionDate := ""
	if infos := asMaps(gremlin.CleanValueMap(infoRaw)); len(infos) > 0 {
		adoptionDate = firstString(infos[0]["adoption_date"], "")
	}

	pathQuery := fmt.Sprintf(`g.V().has('hospital', 'name', TextP.containing('%s'))
  .repeat(
    __.inE('learned_from')
      .has('protocol_context', TextP.containing('%s'))
      .outV()
      .simplePath()
  )
  .until(
    __.inE('learned_from')
      .has('protocol_context', TextP.containing('%s'))
      .count().is(0)
    .or()
    .loops().is(5)
  )
  .path()
  .by('name')
  .by(valueMap('interaction_type', 'date'))`, safeHospital, safeProtocol, safeProtocol)
	pathsRaw, err := d.store.Submit(ctx, pathQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("get_protocol_spread_path: %w", err)
	}

	chain := influenceChain(pathsRaw)

	originalSource := hospitalName
	if len(chain) > 0 {
		if s, ok := chain[len(chain)-1]["from_hospital"].(string); ok && s != "" {
			originalSource = s
		}
	}

	return map[string]any{
		"hospital":        hospitalName,
		"protocol":        protocolName,
		"adoption_date":   adoptionDate,
		"influence_chain": chain,
		"original_source": originalSource,
		"chain_length":    len(chain),
	}, nil
}

// influenceChain parses the first traced path. Paths alternate vertex
// name, edge value map, vertex name.
func influenceChain(pathsRaw []any) []map[string]any {
	var chain []map[string]any
	if len(pathsRaw) == 0 {
		return chain
	}
	objects := pathObjects(pathsRaw[0])
	for j := 0; j+2 < len(objects); j += 2 {
		edgeInfo, _ := objects[j+1].(map[string]any)
		toHospital, _ := objects[j].(string)
		fromHospital, _ := objects[j+2].(string)
		chain = append(chain, map[string]any{
			"step":             j/2 + 1,
			"from_hospital":    fromHospital,
			"to_hospital":      toHospital,
			"interaction_type": firstString(edgeInfo["interaction_type"], "unknown"),
			"date":             firstString(edgeInfo["date"], ""),
		})
	}
	return chain
}

func pathObjects(p any) []any {
	switch v := p.(type) {
	case []any:
		return v
	case map[string]any:
		if objs, ok := v["objects"].([]any); ok {
			return objs
		}
	}
	return nil
}

// findQualityChampions ranks hospitals that influenced others to adopt
// protocols, filtered to adopters holding 85%+ compliance.
func (d *Domain) findQualityChampions(ctx context.Context, args map[string]any) (any, error) {
	protocolName := stringArg(args, "protocol_name")

	protocolFilter := ""
	if protocolName != "" {
		protocolFilter = fmt.Sprintf(`
  .where(
    __.out('adopted')
      .has('name', TextP.containing('%s'))
  )`, gremlin.EscapeString(protocolName))
	}

	query := fmt.Sprintf(`g.V().hasLabel('hospital')%s
  .where(
    __.outE('adopted').has('compliance_rate', gte(85))
  )
  .project('hospital', 'state', 'influenced_count', 'protocols', 'methods')
  .by('name')
  .by('state')
  .by(__.in('learned_from').dedup().count())
  .by(__.out('adopted').values('name').dedup().fold())
  .by(__.inE('learned_from').values('interaction_type').groupCount())`, protocolFilter)

	raw, err := d.store.Submit(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("find_quality_champions: %w", err)
	}

	var champions []map[string]any
	for _, h := range asMaps(raw) {
		influenced := int(toFloat(h["influenced_count"]))
		if influenced < 1 {
			continue
		}
		champions = append(champions, map[string]any{
			"hospital":             h["hospital"],
			"state":                h["state"],
			"hospitals_influenced": influenced,
			"protocols_championed": h["protocols"],
			"influence_methods":    h["methods"],
			"influence_score":      round1(float64(influenced) * 10),
		})
	}
	sort.SliceStable(champions, func(i, j int) bool {
		return champions[i]["hospitals_influenced"].(int) > champions[j]["hospitals_influenced"].(int)
	})

	total := len(champions)
	if len(champions) > 20 {
		champions = champions[:20]
	}

	filter := protocolName
	if filter == "" {
		filter = "All protocols"
	}
	return map[string]any{
		"champions":                  champions,
		"total_champions_identified": total,
		"criteria":                   "Hospitals that influenced 1+ others with 85%+ compliance",
		"protocol_filter":            filter,
	}, nil
}

// analyzeOutcomeImprovement compares baseline and current outcome metrics
// for a protocol's adopters. Direction decides the sign of improvement:
// lower_better metrics improve when the value drops.
func (d *Domain) analyzeOutcomeImprovement(ctx context.Context, args map[string]any) (any, error) {
	protocolName := stringArg(args, "protocol_name")
	metricName := stringArg(args, "metric_name")
	safeProtocol := gremlin.EscapeString(protocolName)

	metricFilter := ".inV().as('metric')"
	if metricName != "" {
		metricFilter = fmt.Sprintf(".inV().has('name', TextP.containing('%s')).as('metric')",
			gremlin.EscapeString(metricName))
	}

	query := fmt.Sprintf(`g.V().has('protocol', 'name', TextP.containing('%s'))
  .in('adopted').as('hospital')
  .outE('achieved').as('outcome')
  %s
  .select('hospital', 'outcome', 'metric')
  .by(valueMap('name'))
  .by(valueMap('baseline', 'current', 'measurement_period'))
  .by(valueMap('name', 'unit', 'direction'))`, safeProtocol, metricFilter)

	raw, err := d.store.Submit(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("analyze_outcome_improvement: %w", err)
	}
	if len(raw) == 0 {
		result := map[string]any{
			"protocol": protocolName,
			"error":    "No outcome data found for protocol adopters",
		}
		if metricName != "" {
			result["metric_filter"] = metricName
		}
		return result, nil
	}

	type metricGroup struct {
		metric    string
		unit      string
		direction string
		hospitals []map[string]any
	}
	groups := make(map[string]*metricGroup)
	var order []string

	for _, rec := range asMaps(raw) {
		hospital, _ := rec["hospital"].(map[string]any)
		outcome, _ := rec["outcome"].(map[string]any)
		metric, _ := rec["metric"].(map[string]any)

		hospitalName := firstString(hospital["name"], "")
		metricKey := firstString(metric["name"], "")
		baseline := toFloat(firstValue(outcome["baseline"]))
		current := toFloat(firstValue(outcome["current"]))
		direction := firstString(metric["direction"], "lower_better")

		g, ok := groups[metricKey]
		if !ok {
			g = &metricGroup{
				metric:    metricKey,
				unit:      firstString(metric["unit"], ""),
				direction: direction,
			}
			groups[metricKey] = g
			order = append(order, metricKey)
		}

		var improvementPct float64
		if baseline > 0 {
			if direction == "lower_better" {
				improvementPct = round1((baseline - current) / baseline * 100)
			} else {
				improvementPct = round1((current - baseline) / baseline * 100)
			}
		}
		g.hospitals = append(g.hospitals, map[string]any{
			"hospital":        hospitalName,
			"baseline":        baseline,
			"current":         current,
			"improvement_pct": improvementPct,
		})
	}

	var metricsAnalyzed []map[string]any
	totalRecords := 0
	for _, key := range order {
		g := groups[key]
		if len(g.hospitals) == 0 {
			continue
		}
		var sumBaseline, sumCurrent, sumImprovement float64
		for _, h := range g.hospitals {
			sumBaseline += h["baseline"].(float64)
			sumCurrent += h["current"].(float64)
			sumImprovement += h["improvement_pct"].(float64)
		}
		n := float64(len(g.hospitals))

		sorted := make([]map[string]any, len(g.hospitals))
		copy(sorted, g.hospitals)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i]["improvement_pct"].(float64) > sorted[j]["improvement_pct"].(float64)
		})
		if len(sorted) > 5 {
			sorted = sorted[:5]
		}

		totalRecords += len(g.hospitals)
		metricsAnalyzed = append(metricsAnalyzed, map[string]any{
			"metric":              g.metric,
			"unit":                g.unit,
			"direction":           g.direction,
			"hospitals_with_data": len(g.hospitals),
			"avg_baseline":        round1(sumBaseline / n),
			"avg_current":         round1(sumCurrent / n),
			"avg_improvement_pct": round1(sumImprovement / n),
			"top_improvers":       sorted,
		})
	}

	return map[string]any{
		"protocol":         protocolName,
		"analysis_date":    d.now().Format("2006-01-02"),
		"metrics_analyzed": metricsAnalyzed,
		"overall_summary": map[string]any{
			"total_outcome_records": totalRecords,
			"metrics_count":         len(metricsAnalyzed),
		},
	}, nil
}

// firstString unwraps valueMap single-element lists to a string, with a
// fallback.
func firstString(v any, def string) string {
	if s, ok := gremlin.Unlist(v).(string); ok && s != "" {
		return s
	}
	return def
}

// firstValue unwraps valueMap single-element lists to the raw value.
func firstValue(v any) any {
	return gremlin.Unlist(v)
}

func asMaps(results []any) []map[string]any {
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		if m, ok := r.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
