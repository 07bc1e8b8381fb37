package util_test

import (
	"errors"
	"math"
	"testing"

	"github.com/ptstats/ptine/internal/util"
)

// ─── NormalizePeriod ──────────────────────────────────────────────────────────

func TestNormalizePeriod(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2023", "2023"},
		{"2023-06", "2023-06"},
		{"2023-06-15", "2023-06-15"},
		{"2023-01-02T00:00:00Z", "2023-01-02"},
		{"  2023-06  ", "2023-06"},
		{"", ""},
		// Labels that are not date layouts pass through trimmed.
		{"4.º Trimestre de 2023", "4.º Trimestre de 2023"},
		{" S1 2023 ", "S1 2023"},
	}
	for _, tc := range cases {
		if got := util.NormalizePeriod(tc.in); got != tc.want {
			t.Errorf("NormalizePeriod(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestPeriodYear(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"2023", 2023},
		{"2023-06", 2023},
		{"1999-12-31", 1999},
		{"abc", 0},
		{"20", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := util.PeriodYear(tc.in); got != tc.want {
			t.Errorf("PeriodYear(%q): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

// ─── ParseValue / FormatValue ─────────────────────────────────────────────────

func TestParseValue(t *testing.T) {
	if v := util.ParseValue("3.5"); v != 3.5 {
		t.Errorf("ParseValue(3.5): got %g", v)
	}
	if v := util.ParseValue(" -0.25 "); v != -0.25 {
		t.Errorf("ParseValue(-0.25): got %g", v)
	}
	for _, missing := range []string{"", ".", "-", "x", "n/a"} {
		if !math.IsNaN(util.ParseValue(missing)) {
			t.Errorf("ParseValue(%q): expected NaN", missing)
		}
	}
}

func TestFormatValue(t *testing.T) {
	if got := util.FormatValue(3.5); got != "3.5" {
		t.Errorf("FormatValue(3.5): got %q", got)
	}
	if got := util.FormatValue(math.NaN()); got != "." {
		t.Errorf("FormatValue(NaN): expected \".\", got %q", got)
	}
}

func TestFormatRaw(t *testing.T) {
	if got := util.FormatRaw(math.NaN()); got != "." {
		t.Errorf("FormatRaw(NaN): expected \".\", got %q", got)
	}
	if got := util.FormatRaw(2.5); got != "2.5" {
		t.Errorf("FormatRaw(2.5): got %q", got)
	}
}

// ─── Truncate / Excerpt ───────────────────────────────────────────────────────

func TestTruncate(t *testing.T) {
	if got := util.Truncate("short", 10); got != "short" {
		t.Errorf("Truncate below max should be unchanged, got %q", got)
	}
	got := util.Truncate("a much longer title", 8)
	if len([]rune(got)) != 8 {
		t.Errorf("Truncate: expected 8 runes, got %d (%q)", len([]rune(got)), got)
	}
	if got[len(got)-len("…"):] != "…" {
		t.Errorf("Truncate should end with ellipsis, got %q", got)
	}
}

func TestExcerptCollapsesWhitespace(t *testing.T) {
	got := util.Excerpt([]byte("line one\n  line\ttwo"), 120)
	if got != "line one line two" {
		t.Errorf("Excerpt: got %q", got)
	}
}

// ─── MultiError ───────────────────────────────────────────────────────────────

func TestMultiErrorEmpty(t *testing.T) {
	var m util.MultiError
	m.Add(nil)
	if m.Err() != nil {
		t.Error("MultiError with only nils should report no error")
	}
}

func TestMultiErrorJoins(t *testing.T) {
	var m util.MultiError
	m.Add(errors.New("first"))
	m.Add(errors.New("second"))
	err := m.Err()
	if err == nil {
		t.Fatal("expected a combined error")
	}
	if err.Error() != "first; second" {
		t.Errorf("combined message: got %q", err.Error())
	}
}
