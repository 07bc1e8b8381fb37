package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/pipeline"
	"github.com/ptstats/ptine/internal/render"
	"github.com/ptstats/ptine/internal/transform"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform a time series (reads JSONL from stdin)",
	Long: `Transform operators read JSONL data points from stdin and write to stdout.

Pipeline example:
  ptine data get 0011783 --format jsonl | ptine transform growth
  ptine data all 0008074 --format jsonl | ptine transform ma --window 12 | ptine analyze`,
}

// ─── growth ───────────────────────────────────────────────────────────────────

var transformGrowthPeriod int

var transformGrowthCmd = &cobra.Command{
	Use:   "growth",
	Short: "Growth rate from N periods ago: (v[t]-v[t-N])/|v[t-N]| * 100",
	Example: `  ptine data get 0011783 --format jsonl | ptine transform growth
  ptine data get 0008074 --format jsonl | ptine transform growth --period 12`,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, points, err := pipeline.ReadPoints(os.Stdin)
		if err != nil {
			return err
		}
		out, err := transform.Growth(points, transformGrowthPeriod)
		if err != nil {
			return err
		}
		return writeTransformOutput(code, out)
	},
}

// ─── ma ───────────────────────────────────────────────────────────────────────

var transformMAWindow int

var transformMACmd = &cobra.Command{
	Use:   "ma",
	Short: "Simple moving average over a trailing window",
	Example: `  ptine data get 0011783 --format jsonl | ptine transform ma --window 4
  ptine data all 0008074 --format jsonl | ptine transform ma --window 12`,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, points, err := pipeline.ReadPoints(os.Stdin)
		if err != nil {
			return err
		}
		out, err := transform.MovingAverage(points, transformMAWindow)
		if err != nil {
			return err
		}
		return writeTransformOutput(code, out)
	},
}

// ─── ema ──────────────────────────────────────────────────────────────────────

var transformEMASpan int

var transformEMACmd = &cobra.Command{
	Use:     "ema",
	Short:   "Exponential moving average with smoothing 2/(span+1)",
	Example: `  ptine data get 0011783 --format jsonl | ptine transform ema --span 12`,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, points, err := pipeline.ReadPoints(os.Stdin)
		if err != nil {
			return err
		}
		out, err := transform.EMAverage(points, transformEMASpan)
		if err != nil {
			return err
		}
		return writeTransformOutput(code, out)
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(transformCmd)
	transformCmd.AddCommand(transformGrowthCmd)
	transformCmd.AddCommand(transformMACmd)
	transformCmd.AddCommand(transformEMACmd)

	transformGrowthCmd.Flags().IntVar(&transformGrowthPeriod, "period", 1,
		"lag period (1 = period-over-period, 12 = year-over-year for monthly data, 0 = infer year-over-year)")
	transformMACmd.Flags().IntVar(&transformMAWindow, "window", 4, "window size (number of points)")
	transformEMACmd.Flags().IntVar(&transformEMASpan, "span", 12, "span (smoothing = 2/(span+1))")
}

// ─── Output helper ────────────────────────────────────────────────────────────

// writeTransformOutput writes points to stdout in JSONL (pipeline) or table (terminal).
func writeTransformOutput(code string, points []model.DataPoint) error {
	format := resolveFormat("")
	// If no explicit format and stdout is a terminal, use table
	if globalFlags.Format == "" {
		if pipeline.IsTTY() {
			format = render.FormatTable
		} else {
			format = render.FormatJSONL
		}
	}

	if format == render.FormatJSONL {
		return pipeline.WriteJSONL(os.Stdout, code, points)
	}

	data := &model.DataResponse{Code: code, Points: points}
	result := buildDataResult("transform", data, false, time.Now())
	return render.RenderTo(globalFlags.Out, result, format)
}
