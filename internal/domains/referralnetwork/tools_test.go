package referralnetwork

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeStore answers Submit calls with a scripted respond func and records
// every query it sees.
type fakeStore struct {
	queries []string
	respond func(query string) ([]any, error)
}

func (s *fakeStore) Submit(_ context.Context, query string, _ map[string]any) ([]any, error) {
	s.queries = append(s.queries, query)
	if s.respond != nil {
		return s.respond(query)
	}
	return nil, nil
}

func TestFindHospitalBuildsFilters(t *testing.T) {
	store := &fakeStore{respond: func(string) ([]any, error) {
		return []any{map[string]any{"name": []any{"Children's Mercy"}, "rural": []any{false}}}, nil
	}}
	d := New(store)

	result, err := d.findHospital(context.Background(), map[string]any{
		"name":          "Mercy",
		"state":         "MO",
		"hospital_type": "tertiary",
		"rural":         false,
	})
	if err != nil {
		t.Fatalf("findHospital: %v", err)
	}

	query := store.queries[0]
	for _, want := range []string{
		"TextP.containing('Mercy')",
		".has('state', 'MO')",
		".has('type', 'tertiary')",
		".has('rural', false)",
		".valueMap(true)",
	} {
		if !strings.Contains(query, want) {
			t.Errorf("query missing %q:\n%s", want, query)
		}
	}

	maps := result.([]any)
	first := maps[0].(map[string]any)
	if first["name"] != "Children's Mercy" {
		t.Errorf("value map not cleaned: %v", first["name"])
	}
}

func TestFindHospitalEscapesQuotes(t *testing.T) {
	store := &fakeStore{}
	d := New(store)

	if _, err := d.findHospital(context.Background(), map[string]any{"name": "Children's"}); err != nil {
		t.Fatalf("findHospital: %v", err)
	}
	if !strings.Contains(store.queries[0], `Children\'s`) {
		t.Errorf("quote not escaped:\n%s", store.queries[0])
	}
}

func TestGetReferralSourcesQuery(t *testing.T) {
	store := &fakeStore{respond: func(string) ([]any, error) {
		return []any{map[string]any{"referring_hospital": "St. Luke's", "referral_count": float64(42)}}, nil
	}}
	d := New(store)

	result, err := d.getReferralSources(context.Background(), map[string]any{"hospital_name": "KU Medical Center"})
	if err != nil {
		t.Fatalf("getReferralSources: %v", err)
	}

	query := store.queries[0]
	if !strings.Contains(query, "inE('refers_to')") {
		t.Errorf("expected incoming edge traversal:\n%s", query)
	}
	if !strings.Contains(query, "'KU Medical Center'") {
		t.Errorf("hospital name not bound:\n%s", query)
	}
	if len(result.([]any)) != 1 {
		t.Errorf("expected one record, got %v", result)
	}
}

func TestGetReferralDestinationsUsesOutgoingEdges(t *testing.T) {
	store := &fakeStore{}
	d := New(store)

	if _, err := d.getReferralDestinations(context.Background(), map[string]any{"hospital_name": "Salina Regional"}); err != nil {
		t.Fatalf("getReferralDestinations: %v", err)
	}
	if !strings.Contains(store.queries[0], "outE('refers_to')") {
		t.Errorf("expected outgoing edge traversal:\n%s", store.queries[0])
	}
}

func TestGetNetworkStatisticsAggregatesCounts(t *testing.T) {
	store := &fakeStore{respond: func(query string) ([]any, error) {
		switch {
		case strings.Contains(query, "sum()"):
			return []any{float64(1200)}, nil
		case strings.Contains(query, "'rural', true"):
			return []any{float64(4)}, nil
		default:
			return []any{float64(10)}, nil
		}
	}}
	d := New(store)

	result, err := d.getNetworkStatistics(context.Background(), nil)
	if err != nil {
		t.Fatalf("getNetworkStatistics: %v", err)
	}

	stats := result.(map[string]any)
	if len(stats) != 6 {
		t.Fatalf("expected 6 statistics, got %d: %v", len(stats), stats)
	}
	if stats["total_referral_volume"] != float64(1200) {
		t.Errorf("total_referral_volume = %v", stats["total_referral_volume"])
	}
	if stats["rural_hospitals"] != float64(4) {
		t.Errorf("rural_hospitals = %v", stats["rural_hospitals"])
	}
}

func TestGetNetworkStatisticsPropagatesError(t *testing.T) {
	boom := errors.New("connection reset")
	store := &fakeStore{respond: func(query string) ([]any, error) {
		if strings.Contains(query, "provider") {
			return nil, boom
		}
		return []any{float64(1)}, nil
	}}
	d := New(store)

	if _, err := d.getNetworkStatistics(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestFindReferralPathHonorsMaxHops(t *testing.T) {
	store := &fakeStore{}
	d := New(store)

	if _, err := d.findReferralPath(context.Background(), map[string]any{
		"from_hospital": "Salina Regional",
		"to_hospital":   "KU Medical Center",
		"max_hops":      float64(5),
	}); err != nil {
		t.Fatalf("findReferralPath: %v", err)
	}
	if !strings.Contains(store.queries[0], "gte(5)") {
		t.Errorf("max_hops not applied:\n%s", store.queries[0])
	}
}

func TestFindReferralPathDefaultHops(t *testing.T) {
	store := &fakeStore{}
	d := New(store)

	if _, err := d.findReferralPath(context.Background(), map[string]any{
		"from_hospital": "A",
		"to_hospital":   "B",
	}); err != nil {
		t.Fatalf("findReferralPath: %v", err)
	}
	if !strings.Contains(store.queries[0], "gte(3)") {
		t.Errorf("default max_hops not applied:\n%s", store.queries[0])
	}
}

func TestGetHospitalsByServiceOrdersByRanking(t *testing.T) {
	store := &fakeStore{}
	d := New(store)

	if _, err := d.getHospitalsByService(context.Background(), map[string]any{"service_name": "Cardiology"}); err != nil {
		t.Fatalf("getHospitalsByService: %v", err)
	}
	query := store.queries[0]
	if !strings.Contains(query, "order().by('ranking', incr)") {
		t.Errorf("expected ranking order:\n%s", query)
	}
	if !strings.Contains(query, "'Cardiology'") {
		t.Errorf("service name not bound:\n%s", query)
	}
}

func TestModuleExposesAllTools(t *testing.T) {
	d := New(&fakeStore{})

	tools := d.Tools()
	defs := d.Definitions()
	if len(tools) != len(defs) {
		t.Fatalf("tools (%d) and definitions (%d) out of sync", len(tools), len(defs))
	}
	for _, def := range defs {
		if _, ok := tools[def.Name]; !ok {
			t.Errorf("definition %q has no implementation", def.Name)
		}
		params := def.Parameters
		if params["type"] != "object" {
			t.Errorf("%s: parameters must be an object schema", def.Name)
		}
	}
}
