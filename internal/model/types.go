// Package model defines the canonical data types used throughout ptine.
// These types are the single source of truth for all INE API entities and
// the result envelope that every command returns.
package model

import (
	"math"
	"strconv"
	"time"
)

// ─── Catalogue Types ──────────────────────────────────────────────────────────

// Indicator is one catalogue entry: a named statistical series published by
// INE, identified by a stable code.
type Indicator struct {
	Code         string `json:"code"`
	Title        string `json:"title"`
	Theme        string `json:"theme"`
	Subtheme     string `json:"subtheme,omitempty"`
	Source       string `json:"source,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Description  string `json:"description,omitempty"`
	Periodicity  string `json:"periodicity,omitempty"`
	LastPeriod   string `json:"last_period,omitempty"`
	LastUpdate   string `json:"last_update,omitempty"`
	GeoLastLevel string `json:"geo_last_level,omitempty"`
	DataURL      string `json:"data_url,omitempty"`
	MetadataURL  string `json:"metadata_url,omitempty"`
}

// ─── Metadata Types ───────────────────────────────────────────────────────────

// DimensionValue is one admissible code for a dimension, with its label.
type DimensionValue struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Dimension is a named axis (geography, period, ...) along which an
// indicator's data can be filtered. The filter key on the wire is "Dim<ID>".
type Dimension struct {
	ID     int              `json:"id"`
	Name   string           `json:"name"`
	Values []DimensionValue `json:"values,omitempty"`
}

// Key returns the query-parameter key for this dimension (e.g. "Dim1").
func (d Dimension) Key() string {
	return "Dim" + strconv.Itoa(d.ID)
}

// IndicatorMetadata holds per-indicator metadata with its ordered dimensions.
type IndicatorMetadata struct {
	Code       string      `json:"code"`
	Title      string      `json:"title"`
	Unit       string      `json:"unit,omitempty"`
	Source     string      `json:"source,omitempty"`
	Language   string      `json:"language"`
	Dimensions []Dimension `json:"dimensions"`
	FetchedAt  time.Time   `json:"fetched_at,omitempty"`
}

// HasDimension reports whether key ("Dim1", "Dim2", ...) names one of the
// indicator's declared dimensions.
func (m IndicatorMetadata) HasDimension(key string) bool {
	for _, d := range m.Dimensions {
		if d.Key() == key {
			return true
		}
	}
	return false
}

// DimensionKeys returns the declared filter keys in dimension order.
func (m IndicatorMetadata) DimensionKeys() []string {
	keys := make([]string, len(m.Dimensions))
	for i, d := range m.Dimensions {
		keys[i] = d.Key()
	}
	return keys
}

// ─── Data Types ───────────────────────────────────────────────────────────────

// DataPoint is a single observation in a series.
// Value is NaN when the source value is suppressed or missing.
// ValueRaw preserves the original string from the API response and Flag
// carries the source's provisional/estimated symbol, when present.
type DataPoint struct {
	Period   string  `json:"period"`
	Value    float64 `json:"value"`
	ValueRaw string  `json:"value_raw"`
	Flag     string  `json:"flag,omitempty"`
	GeoCode  string  `json:"geo_code,omitempty"`
	GeoLabel string  `json:"geo_label,omitempty"`
}

// IsMissing returns true if the point's value is NaN (missing data).
func (p DataPoint) IsMissing() bool {
	return math.IsNaN(p.Value)
}

// DataResponse bundles the data points for one indicator fetch.
// Points are chronological, one entry per period/geo present in the source;
// no gap-filling is performed.
type DataResponse struct {
	Code        string      `json:"code"`
	Title       string      `json:"title,omitempty"`
	Unit        string      `json:"unit,omitempty"`
	Language    string      `json:"language"`
	Points      []DataPoint `json:"points"`
	ExtractedAt time.Time   `json:"extracted_at,omitempty"`
}

// WithPoints returns a copy of the response carrying points instead of the
// original series. Used by transforms, which never mutate their input.
func (r DataResponse) WithPoints(points []DataPoint) DataResponse {
	out := r
	out.Points = points
	return out
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries performance and cache metadata for a command result.
type ResultStats struct {
	CacheHit   bool  `json:"cache_hit"`
	DurationMs int64 `json:"duration_ms"`
	Items      int   `json:"items"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
// Renderers switch on Kind to format output appropriately.
type Result struct {
	Kind        string      `json:"kind"`
	GeneratedAt time.Time   `json:"generated_at"`
	Command     string      `json:"command"`
	Data        interface{} `json:"data"`
	Warnings    []string    `json:"warnings,omitempty"`
	Stats       ResultStats `json:"stats"`
}

// Kind constants for Result.Kind.
const (
	KindIndicator    = "indicator"
	KindMetadata     = "metadata"
	KindData         = "data"
	KindSummary      = "summary"
	KindSearchResult = "search_result"
)

// SearchResult holds catalogue entries matching a search query.
type SearchResult struct {
	Query      string      `json:"query"`
	Theme      string      `json:"theme,omitempty"`
	Subtheme   string      `json:"subtheme,omitempty"`
	Indicators []Indicator `json:"indicators"`
}
