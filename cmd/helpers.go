package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/ptstats/ptine/internal/app"
	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/render"
)

// normaliseCodes trims and de-duplicates indicator codes while preserving
// order. INE codes are zero-padded digit strings; padding is kept as given.
func normaliseCodes(codes []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

// parseDimFlags converts repeated --dim KEY=VALUE flags into a filter map.
func parseDimFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	dims := make(map[string]string, len(flags))
	for _, f := range flags {
		key, val, ok := strings.Cut(f, "=")
		if !ok || key == "" || val == "" {
			return nil, fmt.Errorf("invalid --dim %q: expected KEY=VALUE (e.g. Dim1=S7A2023)", f)
		}
		dims[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	return dims, nil
}

// containsFold reports whether s contains substr, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// resolveFormat returns the effective format string, falling back to "table".
func resolveFormat(cfgFormat string) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	if cfgFormat != "" {
		return cfgFormat
	}
	return render.FormatTable
}

// outputWriter returns the destination writer honouring --out, plus a
// close function callers must defer.
func outputWriter(def io.Writer) (io.Writer, func(), error) {
	if globalFlags.Out == "" {
		return def, func() {}, nil
	}
	f, err := os.Create(globalFlags.Out)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// batchGetData fetches data for multiple indicator codes concurrently.
// It respects deps.Config.Concurrency and collects errors as warnings.
func batchGetData(ctx context.Context, deps *app.Deps, codes []string, dims map[string]string) ([]*model.DataResponse, []string) {
	type result struct {
		data *model.DataResponse
		err  error
	}

	client, err := deps.RequireClient()
	if err != nil {
		return nil, []string{err.Error()}
	}

	concurrency := deps.Config.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	sem := make(chan struct{}, concurrency)
	results := make([]result, len(codes))
	var wg sync.WaitGroup

	for i, code := range codes {
		i, code := i, code
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			data, _, err := client.Data(ctx, code, dims)
			results[i] = result{data: data, err: err}
		}()
	}
	wg.Wait()

	// Return in original code order
	var datas []*model.DataResponse
	var warnings []string
	for i, r := range results {
		if r.err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", codes[i], r.err))
		} else if r.data != nil {
			datas = append(datas, r.data)
		}
	}
	return datas, warnings
}

// batchGetMetadata fetches metadata for multiple indicator codes concurrently.
func batchGetMetadata(ctx context.Context, deps *app.Deps, codes []string) ([]*model.IndicatorMetadata, []string) {
	type result struct {
		meta *model.IndicatorMetadata
		err  error
	}

	client, err := deps.RequireClient()
	if err != nil {
		return nil, []string{err.Error()}
	}

	concurrency := deps.Config.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	sem := make(chan struct{}, concurrency)
	results := make([]result, len(codes))
	var wg sync.WaitGroup

	for i, code := range codes {
		i, code := i, code
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			meta, _, err := client.Metadata(ctx, code)
			results[i] = result{meta: meta, err: err}
		}()
	}
	wg.Wait()

	var metas []*model.IndicatorMetadata
	var warnings []string
	for i, r := range results {
		if r.err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", codes[i], r.err))
		} else if r.meta != nil {
			metas = append(metas, r.meta)
		}
	}
	return metas, warnings
}

// printSimpleTable renders a simple table with headers using tablewriter.
// The add callback is called with row values as variadic strings.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	fill(func(cols ...string) {
		tw.Append(cols)
	})
	tw.Render()
}

// printKVTableTo renders a two-column key/value listing with aligned columns.
func printKVTableTo(w io.Writer, rows [][]string) {
	maxKey := 0
	for _, r := range rows {
		if len(r[0]) > maxKey {
			maxKey = len(r[0])
		}
	}
	for _, r := range rows {
		padding := strings.Repeat(" ", maxKey-len(r[0]))
		fmt.Fprintf(w, "  %s%s  %s\n", r[0], padding, r[1])
	}
}

// buildDataResult wraps a *DataResponse in a Result envelope.
func buildDataResult(command string, data *model.DataResponse, cacheHit bool, start time.Time) *model.Result {
	return &model.Result{
		Kind:        model.KindData,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        data,
		Stats: model.ResultStats{
			CacheHit:   cacheHit,
			DurationMs: time.Since(start).Milliseconds(),
			Items:      len(data.Points),
		},
	}
}

// buildIndicatorResult wraps a []Indicator slice in a Result envelope.
func buildIndicatorResult(command string, inds []model.Indicator, cacheHit bool, start time.Time) *model.Result {
	return &model.Result{
		Kind:        model.KindIndicator,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        inds,
		Stats: model.ResultStats{
			CacheHit:   cacheHit,
			DurationMs: time.Since(start).Milliseconds(),
			Items:      len(inds),
		},
	}
}
