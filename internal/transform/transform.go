// Package transform implements stateless operators that take a slice of
// DataPoints and return a new slice of the same length. Each operator is a
// pure function; no side effects, no I/O, inputs are never mutated.
//
// Output points keep their period alignment: positions where the operator
// has insufficient history carry NaN rather than being dropped.
package transform

import (
	"fmt"
	"math"

	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/util"
)

// ─── Growth ───────────────────────────────────────────────────────────────────

// Growth computes (v[t] - v[t-period]) / |v[t-period]| * 100.
// period=1 gives period-over-period change; period=12 on monthly data gives
// year-over-year. period=0 infers the year-over-year lag from the period
// labels via ObservationsPerYear. The first `period` positions have no prior
// value and carry NaN. NaN inputs propagate as NaN outputs, as does a zero
// base.
func Growth(points []model.DataPoint, period int) ([]model.DataPoint, error) {
	if period == 0 {
		period = ObservationsPerYear(points)
	}
	if period < 1 {
		return nil, fmt.Errorf("growth: period must be >= 1, got %d", period)
	}
	if len(points) <= period {
		return nil, fmt.Errorf("growth: need more than %d points, got %d", period, len(points))
	}
	out := make([]model.DataPoint, len(points))
	for i, p := range points {
		val := math.NaN()
		if i >= period {
			curr := p.Value
			prev := points[i-period].Value
			if !math.IsNaN(curr) && !math.IsNaN(prev) && prev != 0 {
				val = (curr - prev) / math.Abs(prev) * 100
			}
		}
		out[i] = derived(p, val)
	}
	return out, nil
}

// ObservationsPerYear infers the series frequency from the period labels:
// 1 for annual data, 4 for quarterly, 12 for monthly. Years at the edges of
// the series are often partial, so the answer is the most common per-year
// count. Labels without a leading year, or an empty series, yield 1.
func ObservationsPerYear(points []model.DataPoint) int {
	perYear := make(map[int]int)
	for _, p := range points {
		if y := util.PeriodYear(p.Period); y > 0 {
			perYear[y]++
		}
	}
	counts := make(map[int]int)
	for _, n := range perYear {
		counts[n]++
	}
	best, bestFreq := 1, 0
	for n, freq := range counts {
		if freq > bestFreq || (freq == bestFreq && n > best) {
			best, bestFreq = n, freq
		}
	}
	return best
}

// ─── Moving Average ───────────────────────────────────────────────────────────

// MovingAverage computes the simple rolling mean over `window` consecutive
// points (the current point and the window-1 preceding ones). Positions where
// the window is not fully populated, or where any value in the window is
// missing, carry NaN. A constant series of value v therefore yields v at
// every fully-populated position.
func MovingAverage(points []model.DataPoint, window int) ([]model.DataPoint, error) {
	if window < 1 {
		return nil, fmt.Errorf("moving average: window must be >= 1, got %d", window)
	}
	out := make([]model.DataPoint, len(points))
	for i, p := range points {
		val := math.NaN()
		if i >= window-1 {
			sum := 0.0
			ok := true
			for j := i - window + 1; j <= i; j++ {
				if math.IsNaN(points[j].Value) {
					ok = false
					break
				}
				sum += points[j].Value
			}
			if ok {
				val = sum / float64(window)
			}
		}
		out[i] = derived(p, val)
	}
	return out, nil
}

// ─── Exponential Moving Average ───────────────────────────────────────────────

// EMAverage computes an exponential moving average with smoothing
// alpha = 2/(span+1), seeded at the first non-missing value. Positions before
// the seed carry NaN; missing values after the seed carry the running average
// forward without updating it (and report NaN at that position).
func EMAverage(points []model.DataPoint, span int) ([]model.DataPoint, error) {
	if span < 1 {
		return nil, fmt.Errorf("ema: span must be >= 1, got %d", span)
	}
	alpha := 2.0 / float64(span+1)

	out := make([]model.DataPoint, len(points))
	ema := math.NaN()
	for i, p := range points {
		val := math.NaN()
		switch {
		case math.IsNaN(p.Value):
			// carry ema forward, emit NaN
		case math.IsNaN(ema):
			ema = p.Value
			val = ema
		default:
			ema = alpha*p.Value + (1-alpha)*ema
			val = ema
		}
		out[i] = derived(p, val)
	}
	return out, nil
}

// derived copies a point's identity fields with a new computed value.
func derived(p model.DataPoint, val float64) model.DataPoint {
	return model.DataPoint{
		Period:   p.Period,
		Value:    val,
		ValueRaw: util.FormatRaw(val),
		GeoCode:  p.GeoCode,
		GeoLabel: p.GeoLabel,
	}
}
