package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/render"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <CODE...>",
	Short: "Batch-fetch metadata and data for multiple indicators",
	Long: `Convenience command: fetch several indicators in one call, concurrently.

By default only metadata is fetched. Add --with-data to also retrieve the
data points for each indicator. Individual failures are reported as
warnings; the remaining indicators still complete.`,
	Example: `  ptine fetch 0011783 0008074 0010027
  ptine fetch 0011783 0008074 --with-data --format csv --out data.csv
  ptine fetch 0011783 --with-data --dim Dim2=PT`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		dims, err := parseDimFlags(fetchDims)
		if err != nil {
			return err
		}

		start := time.Now()
		codes := normaliseCodes(args)
		format := resolveFormat(deps.Config.Format)

		out, closeOut, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeOut()

		if !fetchWithData {
			// Metadata only
			metas, warnings := batchGetMetadata(cmd.Context(), deps, codes)
			for _, meta := range metas {
				result := &model.Result{
					Kind:        model.KindMetadata,
					GeneratedAt: time.Now(),
					Command:     fmt.Sprintf("fetch %s", strings.Join(codes, " ")),
					Data:        meta,
					Warnings:    warnings,
					Stats: model.ResultStats{
						DurationMs: time.Since(start).Milliseconds(),
						Items:      len(meta.Dimensions),
					},
				}
				if err := render.Render(out, result, format); err != nil {
					return err
				}
			}
			render.PrintFooter(cmd.OutOrStdout(), &model.Result{Warnings: warnings}, deps.Config.Verbose)
			return nil
		}

		// With data
		datas, warnings := batchGetData(cmd.Context(), deps, codes, dims)
		for _, data := range datas {
			result := buildDataResult(fmt.Sprintf("fetch %s", data.Code), data, false, start)
			result.Warnings = warnings
			if err := render.Render(out, result, format); err != nil {
				return err
			}
		}
		render.PrintFooter(cmd.OutOrStdout(), &model.Result{Warnings: warnings}, deps.Config.Verbose)
		return nil
	},
}

var (
	fetchWithData bool
	fetchDims     []string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().BoolVar(&fetchWithData, "with-data", false, "also fetch data points for each indicator")
	fetchCmd.Flags().StringArrayVar(&fetchDims, "dim", nil,
		"dimension filter KEY=VALUE applied to every indicator (with --with-data)")
}
