package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/render"
)

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Retrieve indicator metadata and dimensions",
	Long: `Fetch metadata for an indicator: title, unit, source and the dimensions
available for filtering data requests.

Dimension keys (Dim1, Dim2, ...) and their value codes are what 'data get'
accepts via --dim. Dim1 is always the reference period; Dim2 is usually the
geographic level.`,
}

// ─── meta get ─────────────────────────────────────────────────────────────────

var metaGetCmd = &cobra.Command{
	Use:   "get <CODE...>",
	Short: "Fetch metadata for one or more indicators",
	Example: `  ptine meta get 0011783
  ptine meta get 0011783 0008074 --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

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
			meta, hit, err := client.Metadata(cmd.Context(), codes[0])
			if err != nil {
				return err
			}
			result := &model.Result{
				Kind:        model.KindMetadata,
				GeneratedAt: time.Now(),
				Command:     fmt.Sprintf("meta get %s", codes[0]),
				Data:        meta,
				Stats: model.ResultStats{
					CacheHit:   hit,
					DurationMs: time.Since(start).Milliseconds(),
					Items:      len(meta.Dimensions),
				},
			}
			if err := render.Render(out, result, format); err != nil {
				return err
			}
			render.PrintFooter(cmd.OutOrStdout(), result, deps.Config.Verbose)
			return nil
		}

		// Multiple indicators: fetch concurrently, output sequentially
		metas, warnings := batchGetMetadata(cmd.Context(), deps, codes)
		for _, meta := range metas {
			result := &model.Result{
				Kind:        model.KindMetadata,
				GeneratedAt: time.Now(),
				Command:     fmt.Sprintf("meta get %s", meta.Code),
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
		if len(warnings) > 0 {
			render.PrintFooter(cmd.OutOrStdout(), &model.Result{Warnings: warnings}, deps.Config.Verbose)
		}
		return nil
	},
}

// ─── meta dims ────────────────────────────────────────────────────────────────

var metaDimsValues bool

var metaDimsCmd = &cobra.Command{
	Use:   "dims <CODE>",
	Short: "List the dimensions of an indicator",
	Example: `  ptine meta dims 0011783
  ptine meta dims 0011783 --values`,
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

		meta, _, err := client.Metadata(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeFn()

		if !metaDimsValues {
			printSimpleTable(w, []string{"KEY", "NAME", "VALUES"}, func(add func(...string)) {
				for _, d := range meta.Dimensions {
					add(d.Key(), d.Name, fmt.Sprintf("%d", len(d.Values)))
				}
			})
			return nil
		}

		for _, d := range meta.Dimensions {
			fmt.Fprintf(w, "%s — %s\n", d.Key(), d.Name)
			printSimpleTable(w, []string{"CODE", "LABEL"}, func(add func(...string)) {
				for _, v := range d.Values {
					add(v.Code, v.Label)
				}
			})
			fmt.Fprintln(w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metaCmd)
	metaCmd.AddCommand(metaGetCmd)
	metaCmd.AddCommand(metaDimsCmd)

	metaDimsCmd.Flags().BoolVar(&metaDimsValues, "values", false, "list every value of every dimension")
}
