package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptstats/ptine/internal/ine"
	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/render"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Retrieve indicator data points",
	Long: `Fetch data points for one or more indicators.

Filter with repeated --dim flags using the keys shown by 'meta dims':
Dim1 is the reference period, Dim2 is usually the geographic level.

'data get' performs a single request (the API caps each response);
'data all' pages through the complete series with start/count windows.`,
}

var dataDims []string

// ─── data get ─────────────────────────────────────────────────────────────────

var dataGetCmd = &cobra.Command{
	Use:   "get <CODE...>",
	Short: "Fetch data points for one or more indicators (single request each)",
	Example: `  ptine data get 0011783
  ptine data get 0011783 --dim Dim1=S7A2023 --dim Dim2=PT
  ptine data get 0011783 0008074 --format csv --out data.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		dims, err := parseDimFlags(dataDims)
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

		if len(codes) == 1 {
			client, err := deps.RequireClient()
			if err != nil {
				return err
			}
			data, hit, err := client.Data(cmd.Context(), codes[0], dims)
			if err != nil {
				return err
			}
			result := buildDataResult(fmt.Sprintf("data get %s", codes[0]), data, hit, start)
			if err := render.Render(out, result, format); err != nil {
				return err
			}
			render.PrintFooter(cmd.OutOrStdout(), result, deps.Config.Verbose)
			return nil
		}

		// Multiple indicators: fetch concurrently, output sequentially
		datas, warnings := batchGetData(cmd.Context(), deps, codes, dims)
		for _, data := range datas {
			result := buildDataResult(fmt.Sprintf("data get %s", data.Code), data, false, start)
			result.Warnings = warnings
			if err := render.Render(out, result, format); err != nil {
				return err
			}
		}
		if len(warnings) > 0 {
			render.PrintFooter(cmd.OutOrStdout(), &model.Result{Warnings: warnings}, deps.Config.Verbose)
		}
		return nil
	},
}

// ─── data all ─────────────────────────────────────────────────────────────────

var dataAllChunkSize int

var dataAllCmd = &cobra.Command{
	Use:   "all <CODE>",
	Short: "Fetch the complete series, paging through the API window limit",
	Long: `Page through an indicator's full data with start/count windows until the
API returns a short page. Pages stream as they arrive when the output
format is jsonl; other formats accumulate and render once at the end.`,
	Example: `  ptine data all 0011783
  ptine data all 0011783 --dim Dim2=PT --chunk-size 10000
  ptine data all 0011783 --format jsonl | ptine analyze`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		client, err := deps.RequireClient()
		if err != nil {
			return err
		}

		dims, err := parseDimFlags(dataDims)
		if err != nil {
			return err
		}

		start := time.Now()
		code := args[0]
		format := resolveFormat(deps.Config.Format)

		out, closeOut, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeOut()

		var progress func()
		if !deps.Config.Quiet && format != render.FormatJSONL {
			pages := 0
			progress = func() {
				pages++
				fmt.Fprintf(os.Stderr, "\rfetching page %d...", pages)
			}
		}

		var combined *model.DataResponse
		for page, err := range client.AllData(cmd.Context(), code, dims, dataAllChunkSize) {
			if err != nil {
				if combined != nil {
					fmt.Fprintln(os.Stderr)
				}
				return err
			}
			if progress != nil {
				progress()
			}

			if format == render.FormatJSONL {
				// Stream each page as it arrives.
				result := buildDataResult(fmt.Sprintf("data all %s", code), page, false, start)
				if err := render.Render(out, result, format); err != nil {
					return err
				}
				continue
			}

			if combined == nil {
				combined = page
			} else {
				merged := combined.WithPoints(append(combined.Points, page.Points...))
				combined = &merged
			}
		}
		if progress != nil {
			fmt.Fprintln(os.Stderr)
		}

		if format == render.FormatJSONL {
			return nil
		}
		if combined == nil {
			return fmt.Errorf("no data returned for %s", code)
		}

		result := buildDataResult(fmt.Sprintf("data all %s", code), combined, false, start)
		if err := render.Render(out, result, format); err != nil {
			return err
		}
		render.PrintFooter(cmd.OutOrStdout(), result, deps.Config.Verbose)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataGetCmd)
	dataCmd.AddCommand(dataAllCmd)

	for _, c := range []*cobra.Command{dataGetCmd, dataAllCmd} {
		c.Flags().StringArrayVar(&dataDims, "dim", nil,
			"dimension filter KEY=VALUE, repeatable (e.g. --dim Dim1=S7A2023 --dim Dim2=PT)")
	}
	dataAllCmd.Flags().IntVar(&dataAllChunkSize, "chunk-size", ine.DefaultChunkSize,
		"data points requested per page")
}
