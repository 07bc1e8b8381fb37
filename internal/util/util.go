// Package util provides shared utilities: period normalization, value
// parsing, and display formatting.
package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ─── Period Normalization ─────────────────────────────────────────────────────

// NormalizePeriod reduces a period label to its bare internal form.
// Accepted inputs: bare YYYY, YYYY-MM, YYYY-MM-DD, or ISO-8601 timestamps
// (2023-01-02T00:00:00Z). Anything else is returned trimmed but unchanged:
// INE also publishes labels like "4.º Trimestre de 2023" which are already
// canonical for their series.
func NormalizePeriod(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if i := strings.IndexByte(s, 'T'); i > 0 {
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			s = s[:i]
		}
	}
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(layout)
		}
	}
	return s
}

// PeriodYear extracts the leading 4-digit year from a period label, or 0.
func PeriodYear(s string) int {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0
	}
	return year
}

// ─── Value Parsing ────────────────────────────────────────────────────────────

// ParseValue parses an observation value string from the API.
// Returns NaN for missing or suppressed values ("", ".", "-", "x").
// Uses strconv.ParseFloat to avoid locale issues.
func ParseValue(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "", ".", "-", "x":
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// FormatValue formats a float64 for display, showing "." for NaN.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatRaw is the raw-string rendition of a derived value: "." for NaN,
// %g otherwise. Matches what transforms write into DataPoint.ValueRaw.
func FormatRaw(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	return fmt.Sprintf("%g", v)
}

// ─── Misc ─────────────────────────────────────────────────────────────────────

// Truncate shortens s to max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 1 || len([]rune(s)) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

// Excerpt returns the first n bytes of a payload for error diagnostics,
// with newlines collapsed.
func Excerpt(body []byte, n int) string {
	s := string(body)
	if len(s) > n {
		s = s[:n] + "…"
	}
	return strings.Join(strings.Fields(s), " ")
}

// MultiError collects multiple errors and presents them as one.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

func (m *MultiError) Error() string {
	msgs := make([]string, len(m.Errors))
	for i, e := range m.Errors {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}
