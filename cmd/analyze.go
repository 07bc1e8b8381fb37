package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptstats/ptine/internal/analyze"
	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/pipeline"
	"github.com/ptstats/ptine/internal/render"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Descriptive statistics for a series (reads JSONL from stdin)",
	Long: `Compute count, missing share, mean, std, min, median, max and the
first-to-last change over the piped series.

Examples:
  ptine data get 0011783 --format jsonl | ptine analyze
  ptine data all 0008074 --format jsonl | ptine transform growth | ptine analyze`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		code, points, err := pipeline.ReadPoints(os.Stdin)
		if err != nil {
			return err
		}

		s := analyze.Summarize(code, points)
		result := &model.Result{
			Kind:        model.KindSummary,
			GeneratedAt: time.Now(),
			Command:     "analyze",
			Data:        &s,
			Stats: model.ResultStats{
				DurationMs: time.Since(start).Milliseconds(),
				Items:      s.Count,
			},
		}

		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeFn()
		return render.Render(w, result, resolveFormat(""))
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
