package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeStore struct {
	respond func(query string) ([]any, error)
}

func (s *fakeStore) Submit(_ context.Context, query string, _ map[string]any) ([]any, error) {
	if s.respond != nil {
		return s.respond(query)
	}
	return nil, nil
}

func graphFixture(query string) ([]any, error) {
	switch {
	case strings.Contains(query, "hasLabel('hospital')"):
		return []any{
			map[string]any{
				"id":    []any{"h1"},
				"name":  []any{"KU Medical Center"},
				"city":  []any{"Kansas City"},
				"state": []any{"KS"},
				"type":  []any{"tertiary"},
				"beds":  []any{float64(750)},
				"rural": []any{false},
			},
			map[string]any{
				"id":   []any{"h2"},
				"name": []any{"Salina Regional"},
				// city/beds/rural missing on purpose
				"state": []any{"KS"},
				"type":  []any{"regional"},
			},
		}, nil
	case strings.Contains(query, "hasLabel('provider')"):
		return []any{
			map[string]any{"id": []any{"p1"}, "name": []any{"Dr. Chen"}, "specialty": []any{"cardiology"}, "npi": []any{"1234567890"}},
		}, nil
	case strings.Contains(query, "hasLabel('refers_to')"):
		return []any{
			map[string]any{
				"from_id": "h2", "from_name": "Salina Regional",
				"to_id": "h1", "to_name": "KU Medical Center",
				"count": float64(30), "avg_acuity": float64(3.5),
			},
		}, nil
	}
	return nil, nil
}

func TestRunWritesAllDatasets(t *testing.T) {
	dir := t.TempDir()
	e := New(&fakeStore{respond: graphFixture}, dir)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Counts["hospitals"] != 2 {
		t.Errorf("hospitals count = %d", summary.Counts["hospitals"])
	}
	if summary.Counts["referrals"] != 1 {
		t.Errorf("referrals count = %d", summary.Counts["referrals"])
	}

	for _, name := range []string{"hospitals", "providers", "service_lines", "referrals", "employment", "hospital_services"} {
		for _, ext := range []string{".csv", ".json"} {
			if _, err := os.Stat(filepath.Join(dir, name+ext)); err != nil {
				t.Errorf("missing %s%s: %v", name, ext, err)
			}
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "summary.json")); err != nil {
		t.Errorf("missing summary.json: %v", err)
	}
}

func TestHospitalCSVContent(t *testing.T) {
	dir := t.TempDir()
	e := New(&fakeStore{respond: graphFixture}, dir)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "hospitals.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %v", records)
	}

	header := strings.Join(records[0], ",")
	if header != "id,name,city,state,type,beds,rural" {
		t.Errorf("header = %q", header)
	}
	first := records[1]
	if first[1] != "KU Medical Center" || first[5] != "750" || first[6] != "false" {
		t.Errorf("first row = %v", first)
	}
	// Missing fields fall back to defaults.
	second := records[2]
	if second[2] != "" || second[5] != "0" || second[6] != "false" {
		t.Errorf("second row = %v", second)
	}
}

func TestReferralJSONUsesRenamedColumns(t *testing.T) {
	dir := t.TempDir()
	e := New(&fakeStore{respond: graphFixture}, dir)

	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "referrals.json"))
	if err != nil {
		t.Fatal(err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("parse json: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %v", rows)
	}
	row := rows[0]
	if row["from_hospital_name"] != "Salina Regional" || row["referral_count"] != float64(30) {
		t.Errorf("row = %v", row)
	}
}

func TestRunPropagatesQueryError(t *testing.T) {
	e := New(&fakeStore{respond: func(query string) ([]any, error) {
		if strings.Contains(query, "provider") {
			return nil, os.ErrDeadlineExceeded
		}
		return nil, nil
	}}, t.TempDir())

	if _, err := e.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
