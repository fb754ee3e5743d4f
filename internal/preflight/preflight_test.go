package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tsutils/internal/deps"
	"tsutils/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	locator := deps.StaticLocator{Missing: []string{cfg.Tools.TsSplitter}}

	statuses := CheckSystemDeps(cfg, locator)
	if len(statuses) != 5 {
		t.Fatalf("expected 5 tools including the locale emulator, got %d", len(statuses))
	}
	if !statuses[0].Available || statuses[0].Optional {
		t.Fatalf("ffmpeg should be required and available: %+v", statuses[0])
	}
	if statuses[1].Available || !statuses[1].Optional {
		t.Fatalf("TsSplitter should be optional and missing: %+v", statuses[1])
	}

	cfg.Subtitles.UseLocaleEmulator = false
	if got := len(CheckSystemDeps(cfg, locator)); got != 4 {
		t.Fatalf("expected locale emulator skipped, got %d statuses", got)
	}
}

func TestCheckFFmpegVersion(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{Lines: []string{
		"ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023 the FFmpeg developers",
		"built with gcc 13 (Ubuntu 13.2.0-23ubuntu3)",
	}}
	result := CheckFFmpegVersion(context.Background(), exec, "ffmpeg")
	if !result.Passed || result.Detail != "6.1.1-3ubuntu5" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckFFmpegVersionFailure(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{Err: errors.New("exec: not found")}
	if result := CheckFFmpegVersion(context.Background(), exec, "ffmpeg"); result.Passed {
		t.Fatalf("expected failure, got %+v", result)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithProbeCache())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	exec := &testsupport.ScriptedExecutor{Lines: []string{"ffmpeg version 7.0 Copyright"}}

	results := RunAll(context.Background(), cfg, exec)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, result := range results {
		if !result.Passed {
			t.Fatalf("%s failed: %s", result.Name, result.Detail)
		}
	}
	if results[2].Detail != cfg.ProbeCachePath()+" (0 entries)" {
		t.Fatalf("unexpected cache detail %q", results[2].Detail)
	}
}
