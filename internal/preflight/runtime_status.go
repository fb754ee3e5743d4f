package preflight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tsutils/internal/probecache"
	"tsutils/internal/procexec"
)

// CheckFFmpegVersion runs "ffmpeg -version" and reports the build banner.
func CheckFFmpegVersion(ctx context.Context, exec procexec.Executor, binary string) Result {
	const name = "FFmpeg build"

	if exec == nil {
		exec = procexec.CommandExecutor{}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var banner string
	err := exec.Run(checkCtx, binary, []string{"-hide_banner", "-version"}, func(line string) {
		if banner == "" && strings.HasPrefix(line, "ffmpeg version") {
			banner = strings.TrimSpace(line)
		}
	})
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("version check failed (%v)", err)}
	}
	if banner == "" {
		return Result{Name: name, Detail: "unrecognized version output"}
	}
	if version, _, ok := strings.Cut(strings.TrimPrefix(banner, "ffmpeg version "), " "); ok {
		banner = version
	}
	return Result{Name: name, Passed: true, Detail: banner}
}

// CheckProbeCache opens the probe cache and reports its entry count.
func CheckProbeCache(ctx context.Context, path string) Result {
	const name = "Probe cache"

	store, err := probecache.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer func() { _ = store.Close() }()
	count, err := store.Count(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", path, count)}
}
