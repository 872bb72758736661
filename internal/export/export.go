// Package export dumps the referral graph to CSV and JSON files for
// Power BI dashboards.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/referralgraph/referralgraph/internal/gremlin"
	"github.com/referralgraph/referralgraph/internal/schema"
)

// Exporter writes graph snapshots into an output directory.
type Exporter struct {
	store  schema.GraphStore
	outDir string
	now    func() time.Time
}

// New creates an Exporter writing into outDir.
func New(store schema.GraphStore, outDir string) *Exporter {
	return &Exporter{store: store, outDir: outDir, now: time.Now}
}

// dataset describes one export: the query, the CSV column order, and how a
// raw record maps to a row.
type dataset struct {
	name    string
	query   string
	columns []string
	row     func(rec map[string]any) map[string]any
}

func vertexDataset(name, label string, columns []string, defaults map[string]any) dataset {
	return dataset{
		name:    name,
		query:   fmt.Sprintf("g.V().hasLabel('%s').valueMap(true)", label),
		columns: columns,
		row: func(rec map[string]any) map[string]any {
			out := make(map[string]any, len(columns))
			for _, col := range columns {
				v := gremlin.Unlist(rec[col])
				if v == nil {
					v = defaults[col]
				}
				out[col] = v
			}
			return out
		},
	}
}

func edgeDataset(name, query string, columns []string, aliases map[string]string) dataset {
	return dataset{
		name:    name,
		query:   query,
		columns: columns,
		row: func(rec map[string]any) map[string]any {
			out := make(map[string]any, len(columns))
			for _, col := range columns {
				key := col
				if a, ok := aliases[col]; ok {
					key = a
				}
				out[col] = rec[key]
			}
			return out
		},
	}
}

func datasets() []dataset {
	return []dataset{
		vertexDataset("hospitals", "hospital",
			[]string{"id", "name", "city", "state", "type", "beds", "rural"},
			map[string]any{"beds": 0, "rural": false}),
		vertexDataset("providers", "provider",
			[]string{"id", "name", "specialty", "npi"}, nil),
		vertexDataset("service_lines", "service_line",
			[]string{"id", "name", "category"}, nil),
		edgeDataset("referrals", `g.E().hasLabel('refers_to')
  .project('from_id', 'from_name', 'to_id', 'to_name', 'count', 'avg_acuity')
  .by(outV().values('id'))
  .by(outV().values('name'))
  .by(inV().values('id'))
  .by(inV().values('name'))
  .by('count')
  .by('avg_acuity')`,
			[]string{"from_hospital_id", "from_hospital_name", "to_hospital_id", "to_hospital_name", "referral_count", "avg_acuity"},
			map[string]string{
				"from_hospital_id":   "from_id",
				"from_hospital_name": "from_name",
				"to_hospital_id":     "to_id",
				"to_hospital_name":   "to_name",
				"referral_count":     "count",
			}),
		edgeDataset("employment", `g.E().hasLabel('employs')
  .project('hospital_id', 'hospital_name', 'provider_id', 'provider_name', 'fte')
  .by(outV().values('id'))
  .by(outV().values('name'))
  .by(inV().values('id'))
  .by(inV().values('name'))
  .by('fte')`,
			[]string{"hospital_id", "hospital_name", "provider_id", "provider_name", "fte"}, nil),
		edgeDataset("hospital_services", `g.E().hasLabel('specializes_in')
  .project('hospital_id', 'hospital_name', 'service_id', 'service_name', 'volume', 'ranking')
  .by(outV().values('id'))
  .by(outV().values('name'))
  .by(inV().values('id'))
  .by(inV().values('name'))
  .by('volume')
  .by('ranking')`,
			[]string{"hospital_id", "hospital_name", "service_id", "service_name", "volume", "ranking"}, nil),
	}
}

// Summary reports what an export run produced.
type Summary struct {
	ExportedAt string         `json:"exported_at"`
	OutputDir  string         `json:"output_dir"`
	Counts     map[string]int `json:"counts"`
}

// Run exports every dataset and writes a summary.json alongside them.
func (e *Exporter) Run(ctx context.Context) (*Summary, error) {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	summary := &Summary{
		ExportedAt: e.now().Format(time.RFC3339),
		OutputDir:  e.outDir,
		Counts:     make(map[string]int),
	}

	for _, ds := range datasets() {
		n, err := e.exportDataset(ctx, ds)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", ds.name, err)
		}
		slog.Info("exported dataset", "name", ds.name, "records", n)
		summary.Counts[ds.name] = n
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(e.outDir, "summary.json"), data, 0o644); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}
	return summary, nil
}

func (e *Exporter) exportDataset(ctx context.Context, ds dataset) (int, error) {
	results, err := e.store.Submit(ctx, ds.query, nil)
	if err != nil {
		return 0, err
	}

	rows := make([]map[string]any, 0, len(results))
	for _, r := range results {
		rec, ok := r.(map[string]any)
		if !ok {
			continue
		}
		rows = append(rows, ds.row(rec))
	}

	if err := writeCSV(filepath.Join(e.outDir, ds.name+".csv"), ds.columns, rows); err != nil {
		return 0, err
	}
	if err := writeJSON(filepath.Join(e.outDir, ds.name+".json"), rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func writeCSV(path string, columns []string, rows []map[string]any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = formatCell(row[col])
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatCell(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case bool:
		if n {
			return "true"
		}
		return "false"
	case float64:
		// Integral counts read better without a decimal point.
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%g", n)
	default:
		return fmt.Sprintf("%v", n)
	}
}

func writeJSON(path string, rows []map[string]any) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
