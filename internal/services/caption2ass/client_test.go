package caption2ass_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"tsutils/internal/deps"
	"tsutils/internal/procexec"
	"tsutils/internal/services"
	"tsutils/internal/services/caption2ass"
	"tsutils/internal/testsupport"
)

func newClient(t *testing.T, exec procexec.Executor, opts ...caption2ass.Option) *caption2ass.Client {
	t.Helper()
	opts = append([]caption2ass.Option{
		caption2ass.WithExecutor(exec),
		caption2ass.WithLocator(deps.StaticLocator{}),
	}, opts...)
	client, err := caption2ass.New("Caption2AssC.exe", opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func writeRecording(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drama.ts")
	testsupport.WriteFile(t, path, 188)
	return path
}

// writer creates subtitle outputs for the recording named by the last arg.
// sizes maps extensions to byte counts; a negative size skips the file.
func writer(t *testing.T, sizes map[string]int64) func(testsupport.Call) error {
	return func(call testsupport.Call) error {
		input := call.Args[len(call.Args)-1]
		for ext, size := range sizes {
			if size < 0 {
				continue
			}
			target := input[:len(input)-len(filepath.Ext(input))] + ext
			if size == 0 {
				if err := os.WriteFile(target, nil, 0o644); err != nil {
					return err
				}
				continue
			}
			testsupport.WriteFile(t, target, size)
		}
		return nil
	}
}

func TestExtractDirectInvocation(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{Before: writer(t, map[string]int64{".srt": 64, ".ass": 128})}
	path := writeRecording(t)

	outputs, err := newClient(t, exec).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !slices.Equal(outputs, caption2ass.OutputPaths(path)) {
		t.Fatalf("outputs = %v", outputs)
	}
	calls := exec.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one run, got %d", len(calls))
	}
	if calls[0].Binary != "Caption2AssC.exe" || !slices.Equal(calls[0].Args, []string{"-format", "dual", path}) {
		t.Fatalf("unexpected invocation %+v", calls[0])
	}
}

func TestExtractThroughLocaleEmulator(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{Before: writer(t, map[string]int64{".srt": 64, ".ass": 128})}
	path := writeRecording(t)

	if _, err := newClient(t, exec, caption2ass.WithLocaleEmulator("LEProc2.exe")).Extract(context.Background(), path); err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	call := exec.Calls()[0]
	if call.Binary != "LEProc2.exe" {
		t.Fatalf("expected launcher, got %q", call.Binary)
	}
	if want := []string{"Caption2AssC.exe", "-format", "dual", path}; !slices.Equal(call.Args, want) {
		t.Fatalf("args = %v, want %v", call.Args, want)
	}
}

func TestExtractRetriesUntilBothOutputsExist(t *testing.T) {
	runs := 0
	exec := &testsupport.ScriptedExecutor{}
	exec.Before = func(call testsupport.Call) error {
		runs++
		if runs == 1 {
			return writer(t, map[string]int64{".srt": 64, ".ass": -1})(call)
		}
		return writer(t, map[string]int64{".ass": 64})(call)
	}
	outputs, err := newClient(t, exec).Extract(context.Background(), writeRecording(t))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if runs != 2 || len(outputs) != 2 {
		t.Fatalf("runs=%d outputs=%v", runs, outputs)
	}
}

func TestExtractStopsAfterMaxAttempts(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{Err: &procexec.ExitError{Binary: "Caption2AssC.exe", Code: 1}}
	outputs, err := newClient(t, exec, caption2ass.WithMaxAttempts(3)).Extract(context.Background(), writeRecording(t))
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(outputs) != 0 {
		t.Fatalf("expected no outputs, got %v", outputs)
	}
	if len(exec.Calls()) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(exec.Calls()))
	}
}

func TestExtractRemovesEmptyAndStaleOutputs(t *testing.T) {
	path := writeRecording(t)
	stale := caption2ass.OutputPaths(path)[1]
	testsupport.WriteFile(t, stale, 999)

	exec := &testsupport.ScriptedExecutor{Before: writer(t, map[string]int64{".srt": 64, ".ass": 0})}
	outputs, err := newClient(t, exec).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !slices.Equal(outputs, caption2ass.OutputPaths(path)[:1]) {
		t.Fatalf("outputs = %v", outputs)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected empty ass removed, err=%v", err)
	}
}

func TestExtractMissingEmulator(t *testing.T) {
	client := newClient(t, &testsupport.ScriptedExecutor{},
		caption2ass.WithLocaleEmulator("LEProc2.exe"),
		caption2ass.WithLocator(deps.StaticLocator{Missing: []string{"LEProc2.exe"}}),
	)
	_, err := client.Extract(context.Background(), writeRecording(t))
	if !errors.Is(err, services.ErrExternalToolMissing) {
		t.Fatalf("expected ErrExternalToolMissing, got %v", err)
	}
}

func TestExtractMissingInput(t *testing.T) {
	_, err := newClient(t, &testsupport.ScriptedExecutor{}).Extract(context.Background(), filepath.Join(t.TempDir(), "gone.ts"))
	if !errors.Is(err, services.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}
