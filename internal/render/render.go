// Package render converts Result values into human-readable or
// machine-parseable output. Each format is a separate function; the
// top-level Render dispatcher selects based on the format string.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/ptstats/ptine/internal/analyze"
	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/util"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatMD    = "md"
)

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatCSV:
		return renderDelimited(w, result, ',')
	case FormatTSV:
		return renderDelimited(w, result, '\t')
	case FormatMD:
		return renderMarkdown(w, result)
	default:
		return renderTable(w, result)
	}
}

// RenderTo writes to stdout by default; if path is non-empty, writes to file.
func RenderTo(path string, result *model.Result, format string) error {
	if path == "" {
		return Render(os.Stdout, result, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return Render(f, result, format)
}

// ─── JSON ─────────────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

// jsonlRow is the canonical JSONL record for data points, the pipe format
// consumed by the transform/chart/analyze commands.
type jsonlRow struct {
	Code     string      `json:"code"`
	Period   string      `json:"period"`
	Value    interface{} `json:"value"` // float64 or null
	ValueRaw string      `json:"value_raw"`
	Flag     string      `json:"flag,omitempty"`
	GeoCode  string      `json:"geo_code,omitempty"`
	GeoLabel string      `json:"geo_label,omitempty"`
}

func renderJSONL(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	switch result.Kind {
	case model.KindData:
		dr, ok := result.Data.(*model.DataResponse)
		if !ok {
			return enc.Encode(result.Data)
		}
		for _, p := range dr.Points {
			row := jsonlRow{
				Code:     dr.Code,
				Period:   p.Period,
				ValueRaw: p.ValueRaw,
				Flag:     p.Flag,
				GeoCode:  p.GeoCode,
				GeoLabel: p.GeoLabel,
			}
			if !math.IsNaN(p.Value) {
				row.Value = p.Value
			}
			if err := enc.Encode(row); err != nil {
				return err
			}
		}
		return nil
	default:
		return enc.Encode(result.Data)
	}
}

// ─── Table ────────────────────────────────────────────────────────────────────

func renderTable(w io.Writer, result *model.Result) error {
	switch result.Kind {
	case model.KindData:
		dr, ok := result.Data.(*model.DataResponse)
		if !ok {
			return fmt.Errorf("unexpected data type for %s", result.Kind)
		}
		return renderDataTable(w, dr)
	case model.KindMetadata:
		meta, ok := result.Data.(*model.IndicatorMetadata)
		if !ok {
			return fmt.Errorf("unexpected data type for %s", result.Kind)
		}
		return renderMetadataTable(w, meta)
	case model.KindIndicator:
		switch d := result.Data.(type) {
		case *model.Indicator:
			return renderIndicatorDetail(w, d)
		case []model.Indicator:
			return renderIndicatorTable(w, d)
		}
		return fmt.Errorf("unexpected data type for %s", result.Kind)
	case model.KindSearchResult:
		sr, ok := result.Data.(*model.SearchResult)
		if !ok {
			return fmt.Errorf("unexpected data type for %s", result.Kind)
		}
		fmt.Fprintf(w, "Search results for: %q\n\n", sr.Query)
		return renderIndicatorTable(w, sr.Indicators)
	case model.KindSummary:
		s, ok := result.Data.(*analyze.Summary)
		if !ok {
			return fmt.Errorf("unexpected data type for %s", result.Kind)
		}
		return renderSummaryTable(w, s)
	default:
		return renderJSON(w, result)
	}
}

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	return tw
}

func renderDataTable(w io.Writer, dr *model.DataResponse) error {
	if dr.Title != "" {
		fmt.Fprintf(w, "%s — %s", dr.Code, dr.Title)
		if dr.Unit != "" {
			fmt.Fprintf(w, " (%s)", dr.Unit)
		}
		fmt.Fprintln(w)
	}
	hasGeo := false
	for _, p := range dr.Points {
		if p.GeoLabel != "" || p.GeoCode != "" {
			hasGeo = true
			break
		}
	}

	headers := []string{"PERIOD", "VALUE", "FLAG"}
	if hasGeo {
		headers = []string{"PERIOD", "GEO", "VALUE", "FLAG"}
	}
	tw := newTable(w, headers)
	for _, p := range dr.Points {
		val := formatValue(p.Value)
		if hasGeo {
			geo := p.GeoLabel
			if geo == "" {
				geo = p.GeoCode
			}
			tw.Append([]string{p.Period, geo, val, p.Flag})
		} else {
			tw.Append([]string{p.Period, val, p.Flag})
		}
	}
	tw.Render()
	return nil
}

func renderMetadataTable(w io.Writer, m *model.IndicatorMetadata) error {
	tw := newTable(w, []string{"FIELD", "VALUE"})
	tw.SetColWidth(80)
	tw.SetAutoWrapText(true)

	rows := [][]string{
		{"Code", m.Code},
		{"Title", m.Title},
		{"Unit", m.Unit},
		{"Source", m.Source},
		{"Language", m.Language},
	}
	for _, d := range m.Dimensions {
		rows = append(rows, []string{d.Key(), fmt.Sprintf("%s (%d values)", d.Name, len(d.Values))})
	}
	for _, r := range rows {
		tw.Append(r)
	}
	tw.Render()
	return nil
}

func renderIndicatorTable(w io.Writer, inds []model.Indicator) error {
	tw := newTable(w, []string{"CODE", "TITLE", "THEME", "PERIODICITY", "LAST PERIOD"})
	tw.SetColWidth(40)
	for _, ind := range inds {
		tw.Append([]string{
			ind.Code,
			util.Truncate(ind.Title, 50),
			util.Truncate(ind.Theme, 24),
			ind.Periodicity,
			ind.LastPeriod,
		})
	}
	tw.Render()
	return nil
}

func renderIndicatorDetail(w io.Writer, ind *model.Indicator) error {
	tw := newTable(w, []string{"FIELD", "VALUE"})
	tw.SetColWidth(80)
	tw.SetAutoWrapText(true)

	rows := [][]string{
		{"Code", ind.Code},
		{"Title", ind.Title},
		{"Theme", ind.Theme},
		{"Subtheme", ind.Subtheme},
		{"Source", ind.Source},
		{"Periodicity", ind.Periodicity},
		{"Last Period", ind.LastPeriod},
		{"Last Update", ind.LastUpdate},
		{"Geo Level", ind.GeoLastLevel},
	}
	if ind.Description != "" {
		rows = append(rows, []string{"Description", util.Truncate(ind.Description, 200)})
	}
	for _, r := range rows {
		tw.Append(r)
	}
	tw.Render()
	return nil
}

func renderSummaryTable(w io.Writer, s *analyze.Summary) error {
	tw := newTable(w, []string{"STAT", "VALUE"})
	rows := [][]string{
		{"Code", s.Code},
		{"Points", fmt.Sprintf("%d", s.Count)},
		{"Missing", fmt.Sprintf("%d (%.1f%%)", s.Missing, s.MissingPct)},
		{"Span", fmt.Sprintf("%s → %s", s.FirstPeriod, s.LastPeriod)},
		{"Mean", formatValue(s.Mean)},
		{"Std", formatValue(s.Std)},
		{"Min", formatValue(s.Min)},
		{"Median", formatValue(s.Median)},
		{"Max", formatValue(s.Max)},
		{"First", formatValue(s.First)},
		{"Last", formatValue(s.Last)},
		{"Change", formatValue(s.Change)},
		{"Change %", formatValue(s.ChangePct)},
	}
	for _, r := range rows {
		tw.Append(r)
	}
	tw.Render()
	return nil
}

// ─── CSV / TSV ────────────────────────────────────────────────────────────────

func renderDelimited(w io.Writer, result *model.Result, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	switch result.Kind {
	case model.KindData:
		dr, ok := result.Data.(*model.DataResponse)
		if !ok {
			return fmt.Errorf("unexpected data type for %s", result.Kind)
		}
		_ = cw.Write([]string{"code", "period", "geo_code", "geo_label", "value", "value_raw", "flag"})
		for _, p := range dr.Points {
			_ = cw.Write([]string{
				dr.Code, p.Period, p.GeoCode, p.GeoLabel,
				formatValue(p.Value), p.ValueRaw, p.Flag,
			})
		}
	case model.KindIndicator, model.KindSearchResult:
		inds := indicatorSlice(result.Data)
		_ = cw.Write([]string{"code", "title", "theme", "subtheme", "source", "periodicity", "last_period", "last_update"})
		for _, ind := range inds {
			_ = cw.Write([]string{
				ind.Code, ind.Title, ind.Theme, ind.Subtheme,
				ind.Source, ind.Periodicity, ind.LastPeriod, ind.LastUpdate,
			})
		}
	case model.KindMetadata:
		meta, ok := result.Data.(*model.IndicatorMetadata)
		if !ok {
			return fmt.Errorf("unexpected data type for %s", result.Kind)
		}
		_ = cw.Write([]string{"dimension", "name", "value_code", "value_label"})
		for _, d := range meta.Dimensions {
			for _, v := range d.Values {
				_ = cw.Write([]string{d.Key(), d.Name, v.Code, v.Label})
			}
		}
	default:
		b, _ := json.Marshal(result.Data)
		_ = cw.Write([]string{string(b)})
	}

	cw.Flush()
	return cw.Error()
}

func indicatorSlice(data interface{}) []model.Indicator {
	switch d := data.(type) {
	case []model.Indicator:
		return d
	case *model.Indicator:
		return []model.Indicator{*d}
	case *model.SearchResult:
		return d.Indicators
	}
	return nil
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	switch result.Kind {
	case model.KindData:
		dr, ok := result.Data.(*model.DataResponse)
		if !ok {
			return renderJSON(w, result)
		}
		fmt.Fprintf(w, "| PERIOD | VALUE | FLAG |\n|--------|-------|------|\n")
		for _, p := range dr.Points {
			fmt.Fprintf(w, "| %s | %s | %s |\n", p.Period, formatValue(p.Value), p.Flag)
		}
		return nil
	case model.KindIndicator, model.KindSearchResult:
		inds := indicatorSlice(result.Data)
		fmt.Fprintf(w, "| CODE | TITLE | THEME | LAST PERIOD |\n|----|----|----|----|\n")
		for _, ind := range inds {
			fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
				ind.Code, mdEscape(util.Truncate(ind.Title, 50)), mdEscape(ind.Theme), ind.LastPeriod)
		}
		return nil
	default:
		return renderJSON(w, result)
	}
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes warnings and stats to w when verbose mode is on.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		src := "live"
		if result.Stats.CacheHit {
			src = "cache"
		}
		fmt.Fprintf(w, "\n[%s • %d items • %dms • %s]\n",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.DurationMs,
			src,
		)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// formatValue formats a value for display.
// Always shows at least one decimal place and trims excess trailing zeros.
// Missing values (NaN) render as ".".
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	s := strings.TrimRight(fmt.Sprintf("%.6f", v), "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
