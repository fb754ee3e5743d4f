package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tsutils/internal/logging"
	"tsutils/internal/probecache"
	"tsutils/internal/services"
	"tsutils/internal/workspace"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the probe cache and scratch space",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePurgeCommand(ctx))
	cacheCmd.AddCommand(newCacheCleanCommand(ctx))

	return cacheCmd
}

type cacheStats struct {
	Path    string `json:"path"`
	Entries int    `json:"entries"`
	Bytes   int64  `json:"bytes"`
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show probe cache usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opCtx, _, err := ctx.begin(cmd, "cache stats")
			if err != nil {
				return err
			}
			store, err := openProbeCache(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			count, err := store.Count(opCtx)
			if err != nil {
				return err
			}
			stats := cacheStats{Path: store.Path(), Entries: count, Bytes: probecache.SizeOnDisk(store.Path())}
			if ctx.jsonOutput {
				return writeJSON(cmd, stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path:    %s\n", stats.Path)
			fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
			fmt.Fprintf(out, "Size:    %s\n", humanize.IBytes(uint64(stats.Bytes)))
			return nil
		},
	}
}

func newCachePurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove every cached probe result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opCtx, logger, err := ctx.begin(cmd, "cache purge")
			if err != nil {
				return err
			}
			store, err := openProbeCache(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Purge(opCtx)
			if err != nil {
				return err
			}
			logger.Info("probe cache purged", logging.Int64("removed", removed))
			if ctx.jsonOutput {
				return writeJSON(cmd, map[string]int64{"removed": removed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached probe results\n", removed)
			return nil
		},
	}
}

type cleanResult struct {
	Removed []string `json:"removed"`
	Bytes   int64    `json:"bytes"`
	Failed  int      `json:"failed"`
}

func newCacheCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove frame scratch directories left behind by interrupted runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opCtx, logger, err := ctx.begin(cmd, "cache clean")
			if err != nil {
				return err
			}
			if olderThan < 0 {
				return fmt.Errorf("%w: --older-than must not be negative", services.ErrValidation)
			}
			result := workspace.CleanStale(opCtx, os.TempDir(), workspace.FrameScratchPrefix, olderThan, logger)
			report := cleanResult{Removed: result.Removed, Bytes: result.Bytes, Failed: len(result.Errors)}
			if report.Removed == nil {
				report.Removed = []string{}
			}
			if ctx.jsonOutput {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d scratch directories (%s)\n", len(report.Removed), humanize.IBytes(uint64(report.Bytes)))
			if report.Failed > 0 {
				fmt.Fprintf(out, "%d directories could not be removed; see the log for details\n", report.Failed)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "Only remove directories untouched for this long")
	return cmd
}

func openProbeCache(ctx *commandContext) (*probecache.Store, error) {
	if !ctx.config.Probe.CacheEnabled {
		return nil, fmt.Errorf("%w: probe cache is disabled (probe.cache_enabled = false)", services.ErrConfiguration)
	}
	return probecache.Open(ctx.config.ProbeCachePath())
}
