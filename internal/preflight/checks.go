package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"tsutils/internal/config"
	"tsutils/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// Requirements lists the external tools for cfg. ffmpeg is required; the
// recording post-processing tools are optional because each serves a single
// command.
func Requirements(cfg *config.Config) []deps.Requirement {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required for probing and extraction",
		},
		{
			Name:        "TsSplitter",
			Command:     cfg.Tools.TsSplitter,
			Description: "Needed by split and trim",
			Optional:    true,
		},
		{
			Name:        "Caption2AssC",
			Command:     cfg.Tools.Caption2Ass,
			Description: "Needed by subtitles",
			Optional:    true,
		},
		{
			Name:        "mirakurun-epgdump",
			Command:     cfg.Tools.EPGDump,
			Description: "Needed by epg",
			Optional:    true,
		},
	}
	if cfg.Subtitles.UseLocaleEmulator {
		requirements = append(requirements, deps.Requirement{
			Name:        "Locale Emulator",
			Command:     cfg.Tools.LocaleEmulator,
			Description: "Runs Caption2AssC under a Japanese code page",
			Optional:    true,
		})
	}
	return requirements
}

// CheckSystemDeps evaluates all external tools for the given config.
func CheckSystemDeps(cfg *config.Config, locator deps.Locator) []deps.Status {
	return deps.CheckBinaries(locator, Requirements(cfg))
}
