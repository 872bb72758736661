// Package referralnetwork implements the referral-network analytics domain:
// hospital search, referral flow queries, path finding, and the Mermaid
// diagram generators built on top of them.
package referralnetwork

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/referralgraph/referralgraph/internal/gremlin"
	"github.com/referralgraph/referralgraph/internal/schema"
)

// Domain bundles the referral-network tools around one graph store.
type Domain struct {
	store schema.GraphStore
}

// New creates the domain bound to store.
func New(store schema.GraphStore) *Domain {
	return &Domain{store: store}
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func boolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64: // JSON numbers decode as float64
		return int(v)
	case int:
		return v
	}
	return def
}

// ---------------------------------------------------------------------------
// Query tools
// ---------------------------------------------------------------------------

// findHospital searches hospitals by name, state, type, and rural status.
// All criteria are optional and combine as AND filters.
func (d *Domain) findHospital(ctx context.Context, args map[string]any) (any, error) {
	query := "g.V().hasLabel('hospital')"

	if name := stringArg(args, "name"); name != "" {
		query += fmt.Sprintf(".has('name', TextP.containing('%s'))", gremlin.EscapeString(name))
	}
	if state := stringArg(args, "state"); state != "" {
		query += fmt.Sprintf(".has('state', '%s')", gremlin.EscapeString(state))
	}
	if ht := stringArg(args, "hospital_type"); ht != "" {
		query += fmt.Sprintf(".has('type', '%s')", gremlin.EscapeString(ht))
	}
	if rural, ok := args["rural"].(bool); ok {
		query += fmt.Sprintf(".has('rural', %t)", rural)
	}
	query += ".valueMap(true)"

	results, err := d.store.Submit(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("find_hospital: %w", err)
	}
	return gremlin.CleanValueMap(results), nil
}

// getReferralSources lists hospitals referring patients to the named
// hospital, ordered by referral volume.
func (d *Domain) getReferralSources(ctx context.Context, args map[string]any) (any, error) {
	name := gremlin.EscapeString(stringArg(args, "hospital_name"))

	query := fmt.Sprintf(`g.V().has('hospital', 'name', '%s')
  .inE('refers_to')
  .order().by('count', decr)
  .project('referring_hospital', 'referral_count', 'avg_acuity')
  .by(outV().values('name'))
  .by('count')
  .by('avg_acuity')`, name)

	results, err := d.store.Submit(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("get_referral_sources: %w", err)
	}
	return results, nil
}

// getReferralDestinations lists hospitals receiving referrals from the
// named hospital, ordered by referral volume.
func (d *Domain) getReferralDestinations(ctx context.Context, args map[string]any) (any, error) {
	name := gremlin.EscapeString(stringArg(args, "hospital_name"))

	query := fmt.Sprintf(`g.V().has('hospital', 'name', '%s')
  .outE('refers_to')
  .order().by('count', decr)
  .project('destination_hospital', 'referral_count', 'avg_acuity')
  .by(inV().values('name'))
  .by('count')
  .by('avg_acuity')`, name)

	results, err := d.store.Submit(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("get_referral_destinations: %w", err)
	}
	return results, nil
}

// getNetworkStatistics reports overall network counts. The six count
// queries are independent, so they fan out concurrently.
func (d *Domain) getNetworkStatistics(ctx context.Context, _ map[string]any) (any, error) {
	counts := map[string]string{
		"total_hospitals":              "g.V().hasLabel('hospital').count()",
		"total_providers":              "g.V().hasLabel('provider').count()",
		"total_referral_relationships": "g.E().hasLabel('refers_to').count()",
		"total_referral_volume":        "g.E().hasLabel('refers_to').values('count').sum()",
		"rural_hospitals":              "g.V().hasLabel('hospital').has('rural', true).count()",
		"tertiary_centers":             "g.V().hasLabel('hospital').has('type', 'tertiary').count()",
	}

	stats := make(map[string]any, len(counts))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for key, query := range counts {
		g.Go(func() error {
			results, err := d.store.Submit(ctx, query, nil)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			var val any
			if len(results) > 0 {
				val = results[0]
			}
			mu.Lock()
			stats[key] = val
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("get_network_statistics: %w", err)
	}
	return stats, nil
}

// findReferralPath finds up to ten referral paths between two hospitals.
func (d *Domain) findReferralPath(ctx context.Context, args map[string]any) (any, error) {
	from := gremlin.EscapeString(stringArg(args, "from_hospital"))
	to := gremlin.EscapeString(stringArg(args, "to_hospital"))
	maxHops := intArg(args, "max_hops", 3)

	query := fmt.Sprintf(`g.V().has('hospital', 'name', '%s')
  .repeat(out('refers_to').simplePath())
  .until(has('name', '%s').or().loops().is(gte(%d)))
  .has('name', '%s')
  .path()
  .by('name')
  .limit(10)`, from, to, maxHops, to)

	results, err := d.store.Submit(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("find_referral_path: %w", err)
	}
	return results, nil
}

// getProvidersBySpecialty lists providers with the given specialty.
func (d *Domain) getProvidersBySpecialty(ctx context.Context, args map[string]any) (any, error) {
	specialty := gremlin.EscapeString(stringArg(args, "specialty"))

	query := fmt.Sprintf(`g.V().hasLabel('provider')
  .has('specialty', '%s')
  .project('provider_name', 'specialty')
  .by('name')
  .by('specialty')`, specialty)

	results, err := d.store.Submit(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("get_providers_by_specialty: %w", err)
	}
	return results, nil
}

// getHospitalsByService lists hospitals offering a service line, ordered by
// ranking.
func (d *Domain) getHospitalsByService(ctx context.Context, args map[string]any) (any, error) {
	service := gremlin.EscapeString(stringArg(args, "service_name"))

	query := fmt.Sprintf(`g.V().has('service_line', 'name', '%s')
  .inE('specializes_in')
  .order().by('ranking', incr)
  .project('hospital', 'volume', 'ranking')
  .by(outV().values('name'))
  .by('volume')
  .by('ranking')`, service)

	results, err := d.store.Submit(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("get_hospitals_by_service: %w", err)
	}
	return results, nil
}

// analyzeRuralAccess reports rural hospitals relative to a specialized
// service.
func (d *Domain) analyzeRuralAccess(ctx context.Context, _ map[string]any) (any, error) {
	query := `g.V().hasLabel('hospital').has('rural', true)
  .project('rural_hospital', 'state')
  .by('name')
  .by('state')`

	results, err := d.store.Submit(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("analyze_rural_access: %w", err)
	}
	return results, nil
}

// ---------------------------------------------------------------------------
// Shared data fetches for diagram tools
// ---------------------------------------------------------------------------

// allHospitals returns every hospital's cleaned property map, used for
// node styling.
func (d *Domain) allHospitals(ctx context.Context) ([]map[string]any, error) {
	results, err := d.store.Submit(ctx, "g.V().hasLabel('hospital').valueMap(true)", nil)
	if err != nil {
		return nil, err
	}
	return asMaps(gremlin.CleanValueMap(results)), nil
}

// allReferrals returns every refers_to edge projected to from/to/count.
func (d *Domain) allReferrals(ctx context.Context) ([]map[string]any, error) {
	query := `g.E().hasLabel('refers_to')
  .project('from_name', 'to_name', 'count', 'avg_acuity')
  .by(outV().values('name'))
  .by(inV().values('name'))
  .by('count')
  .by('avg_acuity')`

	results, err := d.store.Submit(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	return asMaps(results), nil
}

// hospitalReferrals returns the refers_to edges touching one hospital.
func (d *Domain) hospitalReferrals(ctx context.Context, name string) ([]map[string]any, error) {
	query := fmt.Sprintf(`g.V().has('hospital', 'name', '%s')
  .bothE('refers_to')
  .project('from_name', 'to_name', 'count')
  .by(outV().values('name'))
  .by(inV().values('name'))
  .by('count')`, gremlin.EscapeString(name))

	results, err := d.store.Submit(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	return asMaps(results), nil
}

// asMaps keeps only the map-shaped records from raw results.
func asMaps(results []any) []map[string]any {
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		if m, ok := r.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
