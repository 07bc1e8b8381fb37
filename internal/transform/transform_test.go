package transform_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/transform"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// makeMonthly builds a monthly data point slice starting at January of year.
func makeMonthly(year int, values ...float64) []model.DataPoint {
	out := make([]model.DataPoint, len(values))
	for i, v := range values {
		out[i] = model.DataPoint{
			Period: fmt.Sprintf("%04d-%02d", year+i/12, i%12+1),
			Value:  v,
		}
	}
	return out
}

func isNaN(v float64) bool { return math.IsNaN(v) }

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// ─── Growth ───────────────────────────────────────────────────────────────────

func TestGrowthPeriod1(t *testing.T) {
	// 100 → 110 → 121: each is +10%
	points := makeMonthly(2020, 100.0, 110.0, 121.0)
	out, err := transform.Growth(points, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(points) {
		t.Fatalf("Growth should preserve length: expected %d, got %d", len(points), len(out))
	}
	if !isNaN(out[0].Value) {
		t.Errorf("out[0]: expected NaN (no prior value), got %g", out[0].Value)
	}
	if !approxEqual(out[1].Value, 10.0, 1e-9) {
		t.Errorf("out[1]: expected 10.0, got %g", out[1].Value)
	}
	if !approxEqual(out[2].Value, 10.0, 1e-9) {
		t.Errorf("out[2]: expected 10.0, got %g", out[2].Value)
	}
}

func TestGrowthPeriod12(t *testing.T) {
	// 13 monthly points: index 12 vs index 0 should be (110-100)/100*100 = 10%
	vals := make([]float64, 13)
	for i := range vals {
		vals[i] = 100.0
	}
	vals[12] = 110.0
	points := makeMonthly(2020, vals...)
	out, err := transform.Growth(points, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 12; i++ {
		if !isNaN(out[i].Value) {
			t.Errorf("out[%d]: expected NaN, got %g", i, out[i].Value)
		}
	}
	if !approxEqual(out[12].Value, 10.0, 1e-9) {
		t.Errorf("out[12]: expected 10.0, got %g", out[12].Value)
	}
}

func TestGrowthNegativeBase(t *testing.T) {
	// -100 → -50: change = 50, |base| = 100 → +50%
	points := makeMonthly(2020, -100.0, -50.0)
	out, err := transform.Growth(points, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(out[1].Value, 50.0, 1e-9) {
		t.Errorf("expected 50.0 with abs denominator, got %g", out[1].Value)
	}
}

func TestGrowthNaNPropagates(t *testing.T) {
	points := makeMonthly(2020, 100.0, math.NaN(), 110.0)
	out, err := transform.Growth(points, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isNaN(out[1].Value) {
		t.Errorf("out[1]: expected NaN, got %g", out[1].Value)
	}
	if !isNaN(out[2].Value) {
		t.Errorf("out[2]: expected NaN (prior is NaN), got %g", out[2].Value)
	}
}

func TestGrowthZeroDenominator(t *testing.T) {
	points := makeMonthly(2020, 0.0, 100.0)
	out, err := transform.Growth(points, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isNaN(out[1].Value) {
		t.Errorf("zero denominator should produce NaN, got %g", out[1].Value)
	}
}

func TestGrowthInvalidPeriod(t *testing.T) {
	points := makeMonthly(2020, 1.0, 2.0, 3.0)
	if _, err := transform.Growth(points, -1); err == nil {
		t.Error("expected error for negative period")
	}
}

func TestGrowthAutoPeriod(t *testing.T) {
	// 25 monthly points: period=0 infers a lag of 12, so index 12 compares
	// against index 0.
	vals := make([]float64, 25)
	for i := range vals {
		vals[i] = 100.0 + float64(i)
	}
	points := makeMonthly(2020, vals...)
	out, err := transform.Growth(points, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 12; i++ {
		if !isNaN(out[i].Value) {
			t.Errorf("out[%d]: expected NaN before one full year, got %g", i, out[i].Value)
		}
	}
	if !approxEqual(out[12].Value, 12.0, 1e-9) {
		t.Errorf("out[12]: expected 12.0, got %g", out[12].Value)
	}
}

// ─── ObservationsPerYear ──────────────────────────────────────────────────────

func TestObservationsPerYear(t *testing.T) {
	monthly := makeMonthly(2020, make([]float64, 26)...)
	if got := transform.ObservationsPerYear(monthly); got != 12 {
		t.Errorf("monthly: expected 12, got %d", got)
	}

	annual := []model.DataPoint{
		{Period: "2019", Value: 1},
		{Period: "2020", Value: 2},
		{Period: "2021", Value: 3},
	}
	if got := transform.ObservationsPerYear(annual); got != 1 {
		t.Errorf("annual: expected 1, got %d", got)
	}

	if got := transform.ObservationsPerYear(nil); got != 1 {
		t.Errorf("empty: expected fallback 1, got %d", got)
	}
}

func TestGrowthTooFewPoints(t *testing.T) {
	points := makeMonthly(2020, 1.0)
	if _, err := transform.Growth(points, 1); err == nil {
		t.Error("expected error when len(points) <= period")
	}
}

func TestGrowthPeriodsPreserved(t *testing.T) {
	points := makeMonthly(2020, 100.0, 110.0, 121.0)
	out, _ := transform.Growth(points, 1)
	for i := range points {
		if out[i].Period != points[i].Period {
			t.Errorf("out[%d]: period mismatch: expected %q, got %q", i, points[i].Period, out[i].Period)
		}
	}
}

// ─── MovingAverage ────────────────────────────────────────────────────────────

func TestMovingAverageBasic(t *testing.T) {
	points := makeMonthly(2020, 1.0, 2.0, 3.0, 4.0, 5.0)
	out, err := transform.MovingAverage(points, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != len(points) {
		t.Fatalf("MovingAverage should preserve length: expected %d, got %d", len(points), len(out))
	}
	if !isNaN(out[0].Value) || !isNaN(out[1].Value) {
		t.Errorf("first window-1 positions should be NaN, got %g, %g", out[0].Value, out[1].Value)
	}
	// out[2] = mean(1,2,3) = 2; out[4] = mean(3,4,5) = 4
	if !approxEqual(out[2].Value, 2.0, 1e-9) {
		t.Errorf("out[2]: expected 2.0, got %g", out[2].Value)
	}
	if !approxEqual(out[4].Value, 4.0, 1e-9) {
		t.Errorf("out[4]: expected 4.0, got %g", out[4].Value)
	}
}

func TestMovingAverageConstantSeries(t *testing.T) {
	// A constant series must average to the same constant at every
	// fully-populated position.
	points := makeMonthly(2020, 7.5, 7.5, 7.5, 7.5, 7.5, 7.5)
	out, err := transform.MovingAverage(points, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 3; i < len(out); i++ {
		if !approxEqual(out[i].Value, 7.5, 1e-9) {
			t.Errorf("out[%d]: expected 7.5, got %g", i, out[i].Value)
		}
	}
}

func TestMovingAverageWindow1(t *testing.T) {
	points := makeMonthly(2020, 3.0, 6.0, 9.0)
	out, err := transform.MovingAverage(points, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range points {
		if !approxEqual(out[i].Value, points[i].Value, 1e-9) {
			t.Errorf("window=1 should be identity: out[%d]=%g, want %g", i, out[i].Value, points[i].Value)
		}
	}
}

func TestMovingAverageMissingInWindow(t *testing.T) {
	points := makeMonthly(2020, 1.0, math.NaN(), 3.0, 4.0, 5.0)
	out, err := transform.MovingAverage(points, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Windows touching the NaN carry NaN
	if !isNaN(out[2].Value) {
		t.Errorf("out[2]: expected NaN (window contains missing), got %g", out[2].Value)
	}
	if !isNaN(out[3].Value) {
		t.Errorf("out[3]: expected NaN (window contains missing), got %g", out[3].Value)
	}
	// First clean window: mean(3,4,5) = 4
	if !approxEqual(out[4].Value, 4.0, 1e-9) {
		t.Errorf("out[4]: expected 4.0, got %g", out[4].Value)
	}
}

func TestMovingAverageInvalidWindow(t *testing.T) {
	points := makeMonthly(2020, 1.0, 2.0)
	if _, err := transform.MovingAverage(points, 0); err == nil {
		t.Error("expected error for window=0")
	}
}

// ─── EMAverage ────────────────────────────────────────────────────────────────

func TestEMAverageSeedsAtFirstValue(t *testing.T) {
	points := makeMonthly(2020, 10.0, 20.0)
	out, err := transform.EMAverage(points, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// seed = 10; alpha = 2/4 = 0.5; out[1] = 0.5*20 + 0.5*10 = 15
	if !approxEqual(out[0].Value, 10.0, 1e-9) {
		t.Errorf("out[0]: expected seed 10.0, got %g", out[0].Value)
	}
	if !approxEqual(out[1].Value, 15.0, 1e-9) {
		t.Errorf("out[1]: expected 15.0, got %g", out[1].Value)
	}
}

func TestEMAverageLeadingMissing(t *testing.T) {
	points := makeMonthly(2020, math.NaN(), math.NaN(), 10.0, 20.0)
	out, err := transform.EMAverage(points, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isNaN(out[0].Value) || !isNaN(out[1].Value) {
		t.Error("positions before the seed should be NaN")
	}
	if !approxEqual(out[2].Value, 10.0, 1e-9) {
		t.Errorf("out[2]: expected seed 10.0, got %g", out[2].Value)
	}
}

func TestEMAverageMissingCarriesForward(t *testing.T) {
	points := makeMonthly(2020, 10.0, math.NaN(), 10.0)
	out, err := transform.EMAverage(points, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isNaN(out[1].Value) {
		t.Errorf("out[1]: expected NaN at missing input, got %g", out[1].Value)
	}
	// The running average is not updated by the gap: still 10 after the gap.
	if !approxEqual(out[2].Value, 10.0, 1e-9) {
		t.Errorf("out[2]: expected 10.0, got %g", out[2].Value)
	}
}

func TestEMAverageConvergesToConstant(t *testing.T) {
	vals := make([]float64, 50)
	for i := range vals {
		vals[i] = 42.0
	}
	points := makeMonthly(2020, vals...)
	out, err := transform.EMAverage(points, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(out[len(out)-1].Value, 42.0, 1e-9) {
		t.Errorf("EMA of constant series should equal the constant, got %g", out[len(out)-1].Value)
	}
}

func TestEMAverageInvalidSpan(t *testing.T) {
	points := makeMonthly(2020, 1.0, 2.0)
	if _, err := transform.EMAverage(points, 0); err == nil {
		t.Error("expected error for span=0")
	}
}

// ─── Composition ──────────────────────────────────────────────────────────────

func TestGrowthThenMovingAverage(t *testing.T) {
	// Realistic pipeline: monthly data → growth → 3-month moving average
	points := makeMonthly(2020, 100, 102, 101, 104, 103, 106, 105)
	growth, err := transform.Growth(points, 1)
	if err != nil {
		t.Fatalf("Growth: %v", err)
	}
	smoothed, err := transform.MovingAverage(growth, 3)
	if err != nil {
		t.Fatalf("MovingAverage: %v", err)
	}
	if len(smoothed) != len(points) {
		t.Errorf("composition length mismatch: %d vs %d", len(smoothed), len(points))
	}
	// growth[0] is NaN, so the first clean MA window ends at index 3
	if !isNaN(smoothed[2].Value) {
		t.Errorf("smoothed[2]: expected NaN (window includes leading NaN), got %g", smoothed[2].Value)
	}
	if isNaN(smoothed[3].Value) {
		t.Error("smoothed[3]: expected a value, got NaN")
	}
}
