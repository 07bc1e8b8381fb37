// Package pipeline provides helpers for reading and writing DataPoint
// streams via stdin/stdout in JSONL format — the canonical pipe format.
package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/ptstats/ptine/internal/model"
)

// ReadPoints reads JSONL records from r (stdin) and returns the
// indicator code and slice of DataPoints.
// Each line must be a JSON object with at least "period" and "value" fields.
func ReadPoints(r io.Reader) (string, []model.DataPoint, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var points []model.DataPoint
	code := ""

	type row struct {
		Code     string      `json:"code"`
		Period   string      `json:"period"`
		Value    interface{} `json:"value"`
		ValueRaw string      `json:"value_raw"`
		Flag     string      `json:"flag"`
		GeoCode  string      `json:"geo_code"`
		GeoLabel string      `json:"geo_label"`
	}

	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineNum++
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		var rec row
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return "", nil, fmt.Errorf("line %d: invalid JSON: %w", lineNum, err)
		}

		if code == "" && rec.Code != "" {
			code = rec.Code
		}
		if rec.Period == "" {
			return "", nil, fmt.Errorf("line %d: missing period", lineNum)
		}

		// Parse value: may be null (missing), float64, or string
		var val float64
		raw := rec.ValueRaw
		switch v := rec.Value.(type) {
		case nil:
			val = math.NaN()
			if raw == "" {
				raw = "."
			}
		case float64:
			val = v
			if raw == "" {
				raw = fmt.Sprintf("%g", v)
			}
		case string:
			if v == "" || v == "." {
				val = math.NaN()
				raw = "."
			} else {
				return "", nil, fmt.Errorf("line %d: unexpected string value %q", lineNum, v)
			}
		default:
			return "", nil, fmt.Errorf("line %d: unexpected value type %T", lineNum, rec.Value)
		}

		points = append(points, model.DataPoint{
			Period:   rec.Period,
			Value:    val,
			ValueRaw: raw,
			Flag:     rec.Flag,
			GeoCode:  rec.GeoCode,
			GeoLabel: rec.GeoLabel,
		})
	}
	if err := scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("reading input: %w", err)
	}
	if len(points) == 0 {
		return "", nil, fmt.Errorf("no data points read from input (is stdin empty?)")
	}
	return code, points, nil
}

// WriteJSONL writes data points as JSONL to w.
func WriteJSONL(w io.Writer, code string, points []model.DataPoint) error {
	enc := json.NewEncoder(w)
	for _, p := range points {
		var val interface{}
		if !math.IsNaN(p.Value) {
			val = p.Value
		}
		rec := map[string]interface{}{
			"code":      code,
			"period":    p.Period,
			"value":     val,
			"value_raw": p.ValueRaw,
		}
		if p.Flag != "" {
			rec["flag"] = p.Flag
		}
		if p.GeoCode != "" {
			rec["geo_code"] = p.GeoCode
		}
		if p.GeoLabel != "" {
			rec["geo_label"] = p.GeoLabel
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

// IsTTY returns true if stdout is a terminal (not a pipe).
func IsTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
