package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ptstats/ptine/internal/chart"
	"github.com/ptstats/ptine/internal/pipeline"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render a time series as an ASCII chart (reads JSONL from stdin)",
	Long: `Chart commands read JSONL data points from stdin and render to the terminal.

Pipeline examples:
  ptine data get 0011783 --format jsonl | ptine chart bar
  ptine data all 0008074 --format jsonl | ptine chart plot
  ptine data get 0011783 --format jsonl | ptine transform growth | ptine chart plot --title "Growth %"`,
}

// ─── chart bar ───────────────────────────────────────────────────────────────

var (
	chartBarWidth   int
	chartBarMaxBars int
)

var chartBarCmd = &cobra.Command{
	Use:   "bar",
	Short: "Horizontal bar chart, one bar per data point",
	Long: `Renders a horizontal bar chart with one labeled bar per data point.

Best suited for annual or quarterly indicators. For dense monthly series,
cap the output with --max-bars.

Negative values are supported — bars extend left from a zero baseline.
Missing values are silently skipped.`,
	Example: `  ptine data get 0011783 --format jsonl | ptine chart bar
  ptine data all 0008074 --format jsonl | ptine chart bar --max-bars 15`,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, points, err := pipeline.ReadPoints(os.Stdin)
		if err != nil {
			return err
		}
		if code == "" {
			code = "series"
		}
		return chart.Bar(os.Stdout, code, points, chart.BarOptions{
			Width:   chartBarWidth,
			MaxBars: chartBarMaxBars,
		})
	},
}

// ─── chart plot ──────────────────────────────────────────────────────────────

var (
	chartPlotWidth  int
	chartPlotHeight int
	chartPlotTitle  string
)

var chartPlotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Multi-line ASCII chart with labeled axes",
	Long: `Renders a multi-line chart with Y-axis tick labels and X-axis period labels.

Missing values appear as gaps in the curve, not zeros. Width auto-detects
from $COLUMNS (falls back to 80). Override with --width and --height.`,
	Example: `  ptine data all 0011783 --format jsonl | ptine chart plot
  ptine data get 0008074 --format jsonl | ptine chart plot --height 8
  ptine data get 0011783 --format jsonl | ptine transform ma --window 12 | ptine chart plot`,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, points, err := pipeline.ReadPoints(os.Stdin)
		if err != nil {
			return err
		}
		if code == "" {
			code = "series"
		}
		return chart.Plot(os.Stdout, code, points, chart.PlotOptions{
			Width:  chartPlotWidth,
			Height: chartPlotHeight,
			Title:  chartPlotTitle,
		})
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.AddCommand(chartBarCmd)
	chartCmd.AddCommand(chartPlotCmd)

	// bar flags
	chartBarCmd.Flags().IntVar(&chartBarWidth, "width", 0,
		"total chart width in characters (default: auto-detect from $COLUMNS, fallback 80)")
	chartBarCmd.Flags().IntVar(&chartBarMaxBars, "max-bars", 0,
		"maximum bars to render — takes the last N if series is longer (0 = no limit)")

	// plot flags
	chartPlotCmd.Flags().IntVar(&chartPlotWidth, "width", 0,
		"chart width in characters (default: auto-detect from $COLUMNS, fallback 80)")
	chartPlotCmd.Flags().IntVar(&chartPlotHeight, "height", 12,
		"chart height in rows (default 12)")
	chartPlotCmd.Flags().StringVar(&chartPlotTitle, "title", "",
		"chart title (default: indicator code)")

	chartCmd.SilenceUsage = true
	chartBarCmd.SilenceUsage = true
	chartPlotCmd.SilenceUsage = true
}
