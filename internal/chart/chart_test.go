package chart_test

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/ptstats/ptine/internal/chart"
	"github.com/ptstats/ptine/internal/model"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// makeAnnual builds annual points starting at 2010. NaN marks missing.
func makeAnnual(values ...float64) []model.DataPoint {
	points := make([]model.DataPoint, len(values))
	for i, v := range values {
		raw := "."
		if !math.IsNaN(v) {
			raw = "x"
		}
		points[i] = model.DataPoint{
			Period:   strconv.Itoa(2010 + i),
			Value:    v,
			ValueRaw: raw,
		}
	}
	return points
}

// ─── Bar ─────────────────────────────────────────────────────────────────────

func TestBarBasic(t *testing.T) {
	var buf bytes.Buffer
	err := chart.Bar(&buf, "0011823", makeAnnual(1, 2, 3, 4), chart.BarOptions{Width: 60})
	if err != nil {
		t.Fatalf("Bar: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "0011823") {
		t.Error("output should contain the indicator code header")
	}
	if !strings.Contains(out, "2010") || !strings.Contains(out, "2013") {
		t.Error("output should contain first and last period labels")
	}
	if !strings.Contains(out, "█") {
		t.Error("output should contain bar glyphs")
	}
	// One header line plus one line per point
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Errorf("expected 5 output lines, got %d:\n%s", len(lines), out)
	}
}

func TestBarSkipsMissing(t *testing.T) {
	var buf bytes.Buffer
	err := chart.Bar(&buf, "X", makeAnnual(1, math.NaN(), 3), chart.BarOptions{Width: 60})
	if err != nil {
		t.Fatalf("Bar: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 { // header + 2 bars
		t.Errorf("missing points should be dropped, got %d lines", len(lines))
	}
}

func TestBarAllMissing(t *testing.T) {
	var buf bytes.Buffer
	err := chart.Bar(&buf, "X", makeAnnual(math.NaN(), math.NaN()), chart.BarOptions{})
	if err == nil {
		t.Error("expected error when every point is missing")
	}
}

func TestBarNegativeValues(t *testing.T) {
	var buf bytes.Buffer
	err := chart.Bar(&buf, "X", makeAnnual(-2, -1, 1, 2), chart.BarOptions{Width: 60})
	if err != nil {
		t.Fatalf("Bar: %v", err)
	}
	if !strings.Contains(buf.String(), "│") {
		t.Error("negative series should render a zero baseline")
	}
}

func TestBarMaxBarsKeepsLast(t *testing.T) {
	var buf bytes.Buffer
	err := chart.Bar(&buf, "X", makeAnnual(1, 2, 3, 4, 5, 6), chart.BarOptions{Width: 60, MaxBars: 2})
	if err != nil {
		t.Fatalf("Bar: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "2010 ") {
		t.Error("capped chart should drop the oldest points")
	}
	if !strings.Contains(out, "2015") {
		t.Error("capped chart should keep the newest points")
	}
}

func TestBarDenseSeriesWarns(t *testing.T) {
	values := make([]float64, 70)
	for i := range values {
		values[i] = float64(i)
	}
	var buf bytes.Buffer
	if err := chart.Bar(&buf, "X", makeAnnual(values...), chart.BarOptions{Width: 80}); err != nil {
		t.Fatalf("Bar: %v", err)
	}
	if !strings.Contains(buf.String(), "--max-bars") {
		t.Error("dense series should emit the --max-bars hint")
	}
}

// ─── Plot ─────────────────────────────────────────────────────────────────────

func TestPlotBasic(t *testing.T) {
	var buf bytes.Buffer
	err := chart.Plot(&buf, "0011823", makeAnnual(1, 3, 2, 5, 4), chart.PlotOptions{Width: 60, Height: 8})
	if err != nil {
		t.Fatalf("Plot: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "0011823") {
		t.Error("output should contain the default title (the code)")
	}
	if !strings.Contains(out, "2010") || !strings.Contains(out, "2014") {
		t.Error("output should contain start and end period labels")
	}
	if !strings.Contains(out, "└") {
		t.Error("output should contain the bottom axis")
	}
}

func TestPlotTitleOverride(t *testing.T) {
	var buf bytes.Buffer
	err := chart.Plot(&buf, "X", makeAnnual(1, 2, 3), chart.PlotOptions{Width: 60, Title: "Unemployment rate"})
	if err != nil {
		t.Fatalf("Plot: %v", err)
	}
	if !strings.Contains(buf.String(), "Unemployment rate") {
		t.Error("Title option should override the code in the header")
	}
}

func TestPlotTooFewPoints(t *testing.T) {
	var buf bytes.Buffer
	if err := chart.Plot(&buf, "X", makeAnnual(1), chart.PlotOptions{}); err == nil {
		t.Error("expected error for fewer than 2 non-missing points")
	}
	if err := chart.Plot(&buf, "X", makeAnnual(1, math.NaN()), chart.PlotOptions{}); err == nil {
		t.Error("missing points should not count toward the minimum")
	}
}

func TestPlotHeightRespected(t *testing.T) {
	var buf bytes.Buffer
	err := chart.Plot(&buf, "X", makeAnnual(1, 2, 3, 4), chart.PlotOptions{Width: 60, Height: 6})
	if err != nil {
		t.Fatalf("Plot: %v", err)
	}
	// header + 6 body rows + axis + x labels
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 9 {
		t.Errorf("expected 9 output lines for height 6, got %d", len(lines))
	}
}
