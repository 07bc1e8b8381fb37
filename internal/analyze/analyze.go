// Package analyze computes statistical summaries over slices of DataPoints.
// All functions are pure; no I/O.
package analyze

import (
	"math"
	"sort"

	"github.com/ptstats/ptine/internal/model"
)

// Summary holds descriptive statistics for a series.
type Summary struct {
	Code        string  `json:"code"`
	Count       int     `json:"count"`       // total points
	Missing     int     `json:"missing"`     // NaN count
	MissingPct  float64 `json:"missing_pct"` // percent missing
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Min         float64 `json:"min"`
	Median      float64 `json:"median"`
	Max         float64 `json:"max"`
	First       float64 `json:"first"`        // first non-NaN value
	Last        float64 `json:"last"`         // last non-NaN value
	Change      float64 `json:"change"`       // Last - First
	ChangePct   float64 `json:"change_pct"`   // (Last-First)/|First| * 100
	FirstPeriod string  `json:"first_period"` // period of the first point
	LastPeriod  string  `json:"last_period"`  // period of the last point
}

// Summarize computes descriptive statistics over points.
// NaN values are excluded from all numeric computations but counted.
func Summarize(code string, points []model.DataPoint) Summary {
	s := Summary{Code: code, Count: len(points)}
	if len(points) == 0 {
		return s
	}
	s.FirstPeriod = points[0].Period
	s.LastPeriod = points[len(points)-1].Period

	var vals []float64
	for _, p := range points {
		if math.IsNaN(p.Value) {
			s.Missing++
		} else {
			vals = append(vals, p.Value)
		}
	}
	s.MissingPct = float64(s.Missing) / float64(s.Count) * 100

	if len(vals) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Median, s.Max = nan, nan, nan, nan, nan
		s.First, s.Last, s.Change, s.ChangePct = nan, nan, nan, nan
		return s
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Mean = mean(vals)
	s.Std = stddev(vals, s.Mean)
	s.Median = percentile(sorted, 50)

	for _, p := range points {
		if !math.IsNaN(p.Value) {
			s.First = p.Value
			break
		}
	}
	for i := len(points) - 1; i >= 0; i-- {
		if !math.IsNaN(points[i].Value) {
			s.Last = points[i].Value
			break
		}
	}
	s.Change = s.Last - s.First
	if s.First != 0 {
		s.ChangePct = s.Change / math.Abs(s.First) * 100
	} else {
		s.ChangePct = math.NaN()
	}
	return s
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func stddev(vals []float64, m float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	var sq float64
	for _, v := range vals {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(vals)-1))
}
