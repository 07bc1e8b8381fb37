package render_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/render"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

func dataResult() *model.Result {
	return &model.Result{
		Kind:        model.KindData,
		GeneratedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Command:     "data get 0011823",
		Data: &model.DataResponse{
			Code:     "0011823",
			Title:    "Unemployment rate",
			Unit:     "%",
			Language: "EN",
			Points: []model.DataPoint{
				{Period: "2022", Value: 6.0, ValueRaw: "6.0"},
				{Period: "2023", Value: math.NaN(), ValueRaw: ".", Flag: "p"},
				{Period: "2024", Value: 6.5, ValueRaw: "6.5", GeoCode: "PT", GeoLabel: "Portugal"},
			},
		},
		Stats: model.ResultStats{Items: 3, DurationMs: 12},
	}
}

// ─── JSON ─────────────────────────────────────────────────────────────────────

func TestRenderJSONIsValid(t *testing.T) {
	var buf bytes.Buffer
	if err := render.Render(&buf, dataResult(), render.FormatJSON); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["kind"] != "data" {
		t.Errorf("kind: got %v", decoded["kind"])
	}
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

func TestRenderJSONLOnePointPerLine(t *testing.T) {
	var buf bytes.Buffer
	if err := render.Render(&buf, dataResult(), render.FormatJSONL); err != nil {
		t.Fatalf("Render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 1 not valid JSON: %v", err)
	}
	if first["code"] != "0011823" || first["period"] != "2022" || first["value"] != 6.0 {
		t.Errorf("line 1: %v", first)
	}

	// The missing point serializes value as null, keeping the raw marker.
	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("line 2 not valid JSON: %v", err)
	}
	if second["value"] != nil {
		t.Errorf("missing value should be null, got %v", second["value"])
	}
	if second["value_raw"] != "." {
		t.Errorf("value_raw: got %v", second["value_raw"])
	}

	// Geo fields appear only when present.
	if strings.Contains(lines[0], "geo_code") {
		t.Error("line 1 should omit empty geo fields")
	}
	if !strings.Contains(lines[2], `"geo_code":"PT"`) {
		t.Errorf("line 3 should carry geo fields: %s", lines[2])
	}
}

// ─── Table ────────────────────────────────────────────────────────────────────

func TestRenderDataTable(t *testing.T) {
	var buf bytes.Buffer
	if err := render.Render(&buf, dataResult(), render.FormatTable); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "0011823 — Unemployment rate (%)") {
		t.Errorf("missing title header:\n%s", out)
	}
	if !strings.Contains(out, "PERIOD") || !strings.Contains(out, "GEO") {
		t.Errorf("series with geo points should render a GEO column:\n%s", out)
	}
	if !strings.Contains(out, "Portugal") {
		t.Errorf("geo label missing:\n%s", out)
	}
	if !strings.Contains(out, "6.0") {
		t.Errorf("values missing:\n%s", out)
	}
}

func TestRenderDataTableNoGeoColumn(t *testing.T) {
	result := dataResult()
	dr := result.Data.(*model.DataResponse)
	dr.Points = dr.Points[:2] // no geo in the first two points

	var buf bytes.Buffer
	if err := render.Render(&buf, result, render.FormatTable); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(buf.String(), "GEO") {
		t.Error("series without geo points should not render a GEO column")
	}
}

func TestRenderIndicatorTable(t *testing.T) {
	result := &model.Result{
		Kind: model.KindIndicator,
		Data: []model.Indicator{
			{Code: "0011823", Title: "Unemployment rate", Theme: "Labour market", Periodicity: "Quarterly"},
			{Code: "0008206", Title: "Inflation rate", Theme: "Prices"},
		},
	}
	var buf bytes.Buffer
	if err := render.Render(&buf, result, render.FormatTable); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"CODE", "0011823", "0008206", "Labour market"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in table:\n%s", want, out)
		}
	}
}

// ─── CSV / TSV ────────────────────────────────────────────────────────────────

func TestRenderCSVData(t *testing.T) {
	var buf bytes.Buffer
	if err := render.Render(&buf, dataResult(), render.FormatCSV); err != nil {
		t.Fatalf("Render: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 4 { // header + 3 points
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0][0] != "code" || rows[0][1] != "period" {
		t.Errorf("header row: %v", rows[0])
	}
	if rows[2][4] != "." {
		t.Errorf("missing value should render as \".\": %v", rows[2])
	}
	if rows[3][2] != "PT" || rows[3][3] != "Portugal" {
		t.Errorf("geo columns: %v", rows[3])
	}
}

func TestRenderTSVUsesTabs(t *testing.T) {
	var buf bytes.Buffer
	if err := render.Render(&buf, dataResult(), render.FormatTSV); err != nil {
		t.Fatalf("Render: %v", err)
	}
	first := strings.SplitN(buf.String(), "\n", 2)[0]
	if !strings.Contains(first, "\t") {
		t.Errorf("TSV header should be tab-separated: %q", first)
	}
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func TestRenderMarkdownData(t *testing.T) {
	var buf bytes.Buffer
	if err := render.Render(&buf, dataResult(), render.FormatMD); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "| PERIOD | VALUE | FLAG |") {
		t.Errorf("missing markdown header:\n%s", out)
	}
	if !strings.Contains(out, "| 2022 | 6.0 |") {
		t.Errorf("missing markdown row:\n%s", out)
	}
}

// ─── Footer ───────────────────────────────────────────────────────────────────

func TestPrintFooterWarnings(t *testing.T) {
	result := dataResult()
	result.Warnings = []string{"code 9999999: indicator not found"}

	var buf bytes.Buffer
	render.PrintFooter(&buf, result, false)
	if !strings.Contains(buf.String(), "⚠") {
		t.Error("warnings should always print")
	}
	if strings.Contains(buf.String(), "items") {
		t.Error("stats line should only print in verbose mode")
	}
}

func TestPrintFooterVerboseStats(t *testing.T) {
	result := dataResult()
	result.Stats.CacheHit = true

	var buf bytes.Buffer
	render.PrintFooter(&buf, result, true)
	out := buf.String()
	if !strings.Contains(out, "3 items") || !strings.Contains(out, "cache") {
		t.Errorf("verbose stats line: %q", out)
	}
}
