package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ptstats/ptine/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the response cache",
	Long: `Commands for inspecting and clearing the local bbolt response cache.

The cache holds raw API response bodies with per-class TTLs: catalogue and
metadata responses expire after 7 days, data responses after 1 day. Expired
entries count as misses and are overwritten on the next fetch; 'cache prune'
removes them eagerly.`,
}

// ─── cache stats ──────────────────────────────────────────────────────────────

var cacheStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show entry counts and sizes for each cache class",
	Example: `  ptine cache stats`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		db, err := deps.RequireCache()
		if err != nil {
			return err
		}
		defer deps.Close()

		stats, err := db.Stats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Cache: %s\n\n", db.Path())
		printSimpleTable(cmd.OutOrStdout(), []string{"CLASS", "ENTRIES", "EXPIRED", "SIZE"}, func(add func(...string)) {
			for _, s := range stats {
				add(string(s.Class), fmt.Sprintf("%d", s.Count), fmt.Sprintf("%d", s.Expired), humanBytes(s.Bytes))
			}
		})
		return nil
	},
}

// ─── cache clear ──────────────────────────────────────────────────────────────

var (
	cacheClearAll   bool
	cacheClearClass string
)

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached responses",
	Long: `Delete entries from one class or the whole cache.

Note: bbolt does not shrink the database file automatically after clearing.
Free pages are reused internally on the next write.`,
	Example: `  ptine cache clear --all
  ptine cache clear --class data
  ptine cache clear --class metadata`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cacheClearAll && cacheClearClass == "" {
			return fmt.Errorf("specify --all or --class <name>\n\nClasses: metadata, data")
		}

		deps, err := buildDeps()
		if err != nil {
			return err
		}
		db, err := deps.RequireCache()
		if err != nil {
			return err
		}
		defer deps.Close()

		if cacheClearAll {
			if err := db.ClearAll(); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Cleared all cache classes")
			return nil
		}

		class := cache.Class(cacheClearClass)
		switch class {
		case cache.ClassMetadata, cache.ClassData:
		default:
			return fmt.Errorf("unknown cache class %q (valid: metadata, data)", cacheClearClass)
		}
		if err := db.Clear(class); err != nil {
			return fmt.Errorf("clearing class %q: %w", cacheClearClass, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared cache class %q\n", cacheClearClass)
		return nil
	},
}

// ─── cache prune ──────────────────────────────────────────────────────────────

var cachePruneCmd = &cobra.Command{
	Use:     "prune",
	Short:   "Remove expired entries from the cache",
	Example: `  ptine cache prune`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		db, err := deps.RequireCache()
		if err != nil {
			return err
		}
		defer deps.Close()

		n, err := db.Prune()
		if err != nil {
			return fmt.Errorf("pruning cache: %w", err)
		}
		if n == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to prune.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d expired entries\n", n)
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)

	cacheClearCmd.Flags().BoolVar(&cacheClearAll, "all", false, "clear every cache class")
	cacheClearCmd.Flags().StringVar(&cacheClearClass, "class", "", "clear a specific class: metadata|data")
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func humanBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
