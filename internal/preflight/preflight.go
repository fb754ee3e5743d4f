package preflight

import (
	"context"

	"tsutils/internal/config"
	"tsutils/internal/procexec"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// RunAll executes the directory, cache and ffmpeg checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config, exec procexec.Executor) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
	}
	if cfg.Probe.CacheEnabled {
		results = append(results, CheckProbeCache(ctx, cfg.ProbeCachePath()))
	}
	results = append(results, CheckFFmpegVersion(ctx, exec, cfg.Tools.FFmpeg))
	return results
}
