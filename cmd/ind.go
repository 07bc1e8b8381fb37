package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptstats/ptine/internal/ine"
	"github.com/ptstats/ptine/internal/model"
	"github.com/ptstats/ptine/internal/render"
)

var indCmd = &cobra.Command{
	Use:   "ind",
	Short: "Explore the indicator catalogue",
	Long: `Commands for browsing and searching the INE indicator catalogue.

The full catalogue download is large; it is cached for 7 days after the
first fetch. 'ind main' retrieves only the curated main indicators group
and is much faster.`,
}

// ─── ind list ─────────────────────────────────────────────────────────────────

var (
	indListTheme string
	indListLimit int
)

var indListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the complete indicator catalogue",
	Example: `  ptine ind list --limit 50
  ptine ind list --theme "Population" --format csv --out catalogue.csv`,
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

		start := time.Now()
		inds, hit, err := client.Indicators(cmd.Context())
		if err != nil {
			return err
		}

		inds = filterByTheme(inds, indListTheme)
		sort.Slice(inds, func(i, j int) bool { return inds[i].Code < inds[j].Code })
		if indListLimit > 0 && len(inds) > indListLimit {
			inds = inds[:indListLimit]
		}

		result := buildIndicatorResult("ind list", inds, hit, start)
		format := resolveFormat(deps.Config.Format)
		if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
			return err
		}
		render.PrintFooter(cmd.OutOrStdout(), result, deps.Config.Verbose)
		return nil
	},
}

// ─── ind main ─────────────────────────────────────────────────────────────────

var indMainCmd = &cobra.Command{
	Use:     "main",
	Short:   "List the main indicators group (fast, curated subset)",
	Example: `  ptine ind main`,
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

		start := time.Now()
		inds, hit, err := client.MainIndicators(cmd.Context())
		if err != nil {
			return err
		}
		sort.Slice(inds, func(i, j int) bool { return inds[i].Code < inds[j].Code })

		result := buildIndicatorResult("ind main", inds, hit, start)
		format := resolveFormat(deps.Config.Format)
		if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
			return err
		}
		render.PrintFooter(cmd.OutOrStdout(), result, deps.Config.Verbose)
		return nil
	},
}

// ─── ind get ──────────────────────────────────────────────────────────────────

var indGetCmd = &cobra.Command{
	Use:   "get <CODE...>",
	Short: "Show catalogue entries for one or more indicator codes",
	Example: `  ptine ind get 0011783
  ptine ind get 0011783 0008074 --format json`,
	Args: cobra.MinimumNArgs(1),
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

		start := time.Now()
		codes := normaliseCodes(args)
		format := resolveFormat(deps.Config.Format)

		var warnings []string
		anyHit := false
		var inds []model.Indicator
		for _, code := range codes {
			ind, hit, err := client.Indicator(cmd.Context(), code)
			anyHit = anyHit || hit
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", code, err))
				continue
			}
			inds = append(inds, *ind)
		}
		if len(inds) == 0 && len(warnings) > 0 {
			return fmt.Errorf("%s", warnings[0])
		}

		var result *model.Result
		if len(inds) == 1 {
			result = &model.Result{
				Kind:        model.KindIndicator,
				GeneratedAt: time.Now(),
				Command:     fmt.Sprintf("ind get %s", inds[0].Code),
				Data:        &inds[0],
				Warnings:    warnings,
				Stats: model.ResultStats{
					CacheHit:   anyHit,
					DurationMs: time.Since(start).Milliseconds(),
					Items:      1,
				},
			}
		} else {
			result = buildIndicatorResult("ind get", inds, anyHit, start)
			result.Warnings = warnings
		}
		if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
			return err
		}
		render.PrintFooter(cmd.OutOrStdout(), result, deps.Config.Verbose)
		return nil
	},
}

// ─── ind search ───────────────────────────────────────────────────────────────

var (
	indSearchTheme    string
	indSearchSubtheme string
	indSearchLimit    int
)

var indSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the catalogue by title, keyword or description",
	Example: `  ptine ind search "unemployment"
  ptine ind search "população" --lang PT --limit 20
  ptine ind search "price" --theme "Economy" --format json`,
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

		start := time.Now()
		inds, hit, err := client.Search(cmd.Context(), args[0], ine.SearchOptions{
			Theme:    indSearchTheme,
			Subtheme: indSearchSubtheme,
			Limit:    indSearchLimit,
		})
		if err != nil {
			return err
		}

		result := &model.Result{
			Kind:        model.KindSearchResult,
			GeneratedAt: time.Now(),
			Command:     fmt.Sprintf("ind search %q", args[0]),
			Data: &model.SearchResult{
				Query:      args[0],
				Theme:      indSearchTheme,
				Subtheme:   indSearchSubtheme,
				Indicators: inds,
			},
			Stats: model.ResultStats{
				CacheHit:   hit,
				DurationMs: time.Since(start).Milliseconds(),
				Items:      len(inds),
			},
		}
		format := resolveFormat(deps.Config.Format)
		if err := render.RenderTo(globalFlags.Out, result, format); err != nil {
			return err
		}
		render.PrintFooter(cmd.OutOrStdout(), result, deps.Config.Verbose)
		return nil
	},
}

// filterByTheme keeps only indicators whose theme matches (case-insensitive
// substring). An empty filter keeps everything.
func filterByTheme(inds []model.Indicator, theme string) []model.Indicator {
	if theme == "" {
		return inds
	}
	var out []model.Indicator
	for _, ind := range inds {
		if containsFold(ind.Theme, theme) {
			out = append(out, ind)
		}
	}
	return out
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(indCmd)
	indCmd.AddCommand(indListCmd)
	indCmd.AddCommand(indMainCmd)
	indCmd.AddCommand(indGetCmd)
	indCmd.AddCommand(indSearchCmd)

	indListCmd.Flags().StringVar(&indListTheme, "theme", "", "filter by theme (substring match)")
	indListCmd.Flags().IntVar(&indListLimit, "limit", 0, "max entries to show (0 = all)")

	indSearchCmd.Flags().StringVar(&indSearchTheme, "theme", "", "restrict to a theme")
	indSearchCmd.Flags().StringVar(&indSearchSubtheme, "subtheme", "", "restrict to a subtheme")
	indSearchCmd.Flags().IntVar(&indSearchLimit, "limit", 0, "max results (0 = all)")
}
