package ine

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/util"
)

// The INE API has served two payload generations. The legacy shape is flat
// with lowercase keys (cod, dsg, unidade, dados as an ordered array); the
// current shape uses PascalCase keys (IndicadorCod, IndicadorDsg,
// UnidadeMedida) and nests data under a single object keyed by period label.
// Both are normalized here into the one canonical representation, so the
// metadata and data clients stay shape-agnostic.

// shape tags the detected payload generation.
type shape int

const (
	shapeLegacy shape = iota
	shapeCurrent
)

func (s shape) String() string {
	if s == shapeCurrent {
		return "current"
	}
	return "legacy"
}

// detectShape classifies a decoded payload object.
func detectShape(m map[string]any) shape {
	for _, key := range []string{"IndicadorCod", "IndicadorDsg", "UnidadeMedida", "Dados", "Dimensoes"} {
		if _, ok := m[key]; ok {
			return shapeCurrent
		}
	}
	return shapeLegacy
}

// unwrapRoot decodes a JSON payload into either a single object or a bare
// point array. The current API wraps the object in a single-element array.
func unwrapRoot(body []byte) (map[string]any, []any, error) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	switch v := root.(type) {
	case map[string]any:
		return v, nil, nil
	case []any:
		if len(v) == 1 {
			if m, ok := v[0].(map[string]any); ok {
				return m, nil, nil
			}
		}
		return nil, v, nil
	}
	return nil, nil, fmt.Errorf("unexpected top-level JSON type %T", root)
}

// ─── Header fields ────────────────────────────────────────────────────────────

// headerFields is the canonical record both shapes map into.
type headerFields struct {
	Code     string
	Title    string
	Unit     string
	Language string
}

// field mapping table: canonical name -> accepted keys, current shape first.
var headerKeys = map[string][]string{
	"code":  {"IndicadorCod", "indicador", "cod"},
	"title": {"IndicadorDsg", "IndicadorNome", "nome", "dsg"},
	"unit":  {"UnidadeMedida", "unidade"},
	"lang":  {"Lingua", "lang"},
}

func extractHeader(m map[string]any) headerFields {
	return headerFields{
		Code:     stringField(m, headerKeys["code"]...),
		Title:    stringField(m, headerKeys["title"]...),
		Unit:     stringField(m, headerKeys["unit"]...),
		Language: stringField(m, headerKeys["lang"]...),
	}
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch s := v.(type) {
			case string:
				return strings.TrimSpace(s)
			case float64:
				return strconv.FormatFloat(s, 'f', -1, 64)
			}
		}
	}
	return ""
}

// ─── Data points ──────────────────────────────────────────────────────────────

// extractPoints normalizes the data section of either shape to the ordered
// canonical point sequence. Individually unusable entries are skipped, never
// fatal; an entirely missing/foreign data section yields an empty slice.
func extractPoints(m map[string]any, bare []any) []model.DataPoint {
	if m == nil {
		return pointsFromArray(bare, "")
	}

	switch detectShape(m) {
	case shapeCurrent:
		if dados, ok := m["Dados"]; ok {
			switch d := dados.(type) {
			case map[string]any:
				return pointsFromPeriodMap(d)
			case []any:
				return pointsFromArray(d, "")
			}
		}
		return nil
	default:
		if dados, ok := m["dados"]; ok {
			if d, ok := dados.([]any); ok {
				return pointsFromArray(d, "")
			}
		}
		return nil
	}
}

// pointsFromPeriodMap flattens the current shape's {period: [points]} object,
// visiting periods in chronological order. Period labels are YYYY-prefixed,
// so lexical order is chronological.
func pointsFromPeriodMap(d map[string]any) []model.DataPoint {
	periods := make([]string, 0, len(d))
	for p := range d {
		periods = append(periods, p)
	}
	sort.Strings(periods)

	var out []model.DataPoint
	for _, p := range periods {
		entries, ok := d[p].([]any)
		if !ok {
			continue
		}
		out = append(out, pointsFromArray(entries, util.NormalizePeriod(p))...)
	}
	return out
}

// pointsFromArray converts a flat array of point objects. period overrides
// any per-point period label when non-empty (current shape).
func pointsFromArray(entries []any, period string) []model.DataPoint {
	var out []model.DataPoint
	for _, e := range entries {
		obj, ok := e.(map[string]any)
		if !ok {
			continue
		}
		p := normalizePoint(obj, period)
		if p.Period == "" && p.GeoCode == "" && p.ValueRaw == "" {
			continue // nothing usable in this entry
		}
		out = append(out, p)
	}
	return out
}

// normalizePoint maps one raw point object to the canonical DataPoint.
// Absent or non-numeric values become NaN rather than failing the response.
func normalizePoint(obj map[string]any, period string) model.DataPoint {
	if period == "" {
		period = util.NormalizePeriod(stringField(obj, "periodo", "Periodo", "ano"))
	}

	raw, val := extractValue(obj)
	return model.DataPoint{
		Period:   period,
		Value:    val,
		ValueRaw: raw,
		Flag:     stringField(obj, "sinal", "sinal_conv", "Sinal"),
		GeoCode:  stringField(obj, "geocod", "GeoCod", "geo"),
		GeoLabel: stringField(obj, "geodsg", "GeoDsg"),
	}
}

// extractValue pulls the measured value, preserving the raw string.
func extractValue(obj map[string]any) (raw string, val float64) {
	for _, key := range []string{"valor", "value", "Valor"} {
		v, ok := obj[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
			return "", math.NaN()
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), t
		case string:
			return t, util.ParseValue(t)
		}
	}
	return "", math.NaN()
}
