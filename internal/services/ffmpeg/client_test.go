package ffmpeg_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"golang.org/x/image/bmp"

	"tsutils/internal/deps"
	"tsutils/internal/logging"
	"tsutils/internal/media/ffdiag"
	"tsutils/internal/probecache"
	"tsutils/internal/procexec"
	"tsutils/internal/services"
	"tsutils/internal/services/ffmpeg"
	"tsutils/internal/testsupport"
)

func newClient(t *testing.T, exec procexec.Executor, opts ...ffmpeg.Option) *ffmpeg.Client {
	t.Helper()
	opts = append([]ffmpeg.Option{
		ffmpeg.WithExecutor(exec),
		ffmpeg.WithLocator(deps.StaticLocator{}),
		ffmpeg.WithLockDir(t.TempDir()),
	}, opts...)
	client, err := ffmpeg.New("ffmpeg", opts...)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func writeRecording(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recording.ts")
	testsupport.WriteFile(t, path, 188)
	return path
}

// probeRun mimics ffmpeg invoked without an output: the preamble followed by
// a non-zero exit.
func probeRun(t *testing.T, name string) ([]string, error) {
	return testsupport.Transcript(t, name), &procexec.ExitError{Binary: "ffmpeg", Code: 1}
}

func scripted(t *testing.T, probe string, later ...string) *testsupport.ScriptedExecutor {
	t.Helper()
	runs := 0
	return &testsupport.ScriptedExecutor{
		Script: func(call testsupport.Call) ([]string, error) {
			runs++
			if runs == 1 {
				return probeRun(t, probe)
			}
			if idx := runs - 2; idx < len(later) {
				return testsupport.Transcript(t, later[idx]), nil
			}
			return nil, nil
		},
	}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := ffmpeg.New("  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestGetInfoFileNotFound(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{}
	client := newClient(t, exec)

	_, err := client.GetInfo(context.Background(), filepath.Join(t.TempDir(), "absent.ts"))
	if !errors.Is(err, services.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if err.Error() != `"absent.ts" not found!` {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if len(exec.Calls()) != 0 {
		t.Fatalf("ffmpeg must not be spawned for a missing file")
	}
}

func TestGetInfoToolMissing(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{}
	client := newClient(t, exec, ffmpeg.WithLocator(deps.StaticLocator{Missing: []string{"ffmpeg"}}))

	_, err := client.GetInfo(context.Background(), writeRecording(t))
	if !errors.Is(err, services.ErrExternalToolMissing) {
		t.Fatalf("expected ErrExternalToolMissing, got %v", err)
	}
	if err.Error() != "ffmpeg not found in $PATH!" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if len(exec.Calls()) != 0 {
		t.Fatalf("ffmpeg must not be spawned when missing")
	}
}

func TestGetInfoSelectsFirstProgramWithAudio(t *testing.T) {
	exec := scripted(t, "probe_multiprogram.txt")
	client := newClient(t, exec)
	path := writeRecording(t)

	info, err := client.GetInfo(context.Background(), path)
	if err != nil {
		t.Fatalf("GetInfo returned error: %v", err)
	}
	want := ffdiag.MediaInfo{
		Duration:    902.22,
		Width:       1440,
		Height:      1080,
		FPS:         29.97,
		SAR:         ffdiag.Ratio{Num: 4, Den: 3},
		DAR:         ffdiag.Ratio{Num: 16, Den: 9},
		SoundTracks: 2,
	}
	if math.Abs(info.Duration-want.Duration) > 1e-9 {
		t.Fatalf("duration = %v, want %v", info.Duration, want.Duration)
	}
	info.Duration = want.Duration
	if info != want {
		t.Fatalf("GetInfo = %+v, want %+v", info, want)
	}
	wantArgs := []string{"-hide_banner", "-ss", "30", "-i", path}
	if got := exec.LastArgs(); !slices.Equal(got, wantArgs) {
		t.Fatalf("args = %v, want %v", got, wantArgs)
	}
}

func TestGetInfoLogsSkippedPrograms(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Console: &buf})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	client := newClient(t, scripted(t, "probe_multiprogram.txt"), ffmpeg.WithLogger(logger))
	if _, err := client.GetInfo(context.Background(), writeRecording(t)); err != nil {
		t.Fatalf("GetInfo returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"msg":"programs skipped"`, `"programs":5`, `"planned_total":`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestGetInfoHonoursProbeSeek(t *testing.T) {
	exec := scripted(t, "probe_multiprogram.txt")
	client := newClient(t, exec, ffmpeg.WithProbeSeek(0))
	if _, err := client.GetInfo(context.Background(), writeRecording(t)); err != nil {
		t.Fatalf("GetInfo returned error: %v", err)
	}
	if got := exec.LastArgs()[2]; got != "0" {
		t.Fatalf("seek arg = %q, want 0", got)
	}
}

func TestGetInfoWithoutAudioIsInvalid(t *testing.T) {
	client := newClient(t, scripted(t, "probe_no_audio.txt"))
	path := writeRecording(t)

	_, err := client.GetInfo(context.Background(), path)
	if !errors.Is(err, services.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if err.Error() != `"recording.ts" is invalid!` {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestGetInfoUnreadableDiagnosticsAreInvalid(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{Lines: []string{
		"Input #0, mpegts, from 'recording.ts':",
		"  Duration: 00:1x:02.22, start: 1.400000, bitrate: 15823 kb/s",
	}}
	_, err := newClient(t, exec).GetInfo(context.Background(), writeRecording(t))
	if !errors.Is(err, services.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestGetInfoReportsToolFailure(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{Err: errors.New("exec format error")}
	_, err := newClient(t, exec).GetInfo(context.Background(), writeRecording(t))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestGetInfoReadsThroughCache(t *testing.T) {
	store, err := probecache.Open(filepath.Join(t.TempDir(), "probe.db"))
	if err != nil {
		t.Fatalf("probecache.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	exec := scripted(t, "probe_multiprogram.txt")
	client := newClient(t, exec, ffmpeg.WithCache(store))
	path := writeRecording(t)

	first, err := client.GetInfo(context.Background(), path)
	if err != nil {
		t.Fatalf("first GetInfo: %v", err)
	}
	second, err := client.GetInfo(context.Background(), path)
	if err != nil {
		t.Fatalf("second GetInfo: %v", err)
	}
	if first != second {
		t.Fatalf("cached info %+v differs from probed %+v", second, first)
	}
	if calls := len(exec.Calls()); calls != 1 {
		t.Fatalf("expected one ffmpeg run, got %d", calls)
	}
}

func TestExtractStreamsDefaultTracks(t *testing.T) {
	exec := scripted(t, "probe_multiprogram.txt", "extract_streams.txt")
	client := newClient(t, exec)
	path := writeRecording(t)

	var events []ffdiag.Progress
	out, err := client.ExtractStreams(context.Background(), path, ffmpeg.StreamOptions{
		End:      ffdiag.Unbounded,
		Progress: func(p ffdiag.Progress) { events = append(events, p) },
	})
	if err != nil {
		t.Fatalf("ExtractStreams returned error: %v", err)
	}
	wantDir := strings.TrimSuffix(path, ".ts")
	if out != wantDir {
		t.Fatalf("output dir = %q, want %q", out, wantDir)
	}
	if info, err := os.Stat(out); err != nil || !info.IsDir() {
		t.Fatalf("expected output dir to exist: %v", err)
	}
	if _, err := os.Stat(out + ".lock"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("lock file left beside the output, stat err=%v", err)
	}

	args := exec.LastArgs()
	for _, name := range []string{"video_0.ts", "audio_0.aac", "audio_1.aac"} {
		if !slices.Contains(args, filepath.Join(out, name)) {
			t.Fatalf("args %v missing output %s", args, name)
		}
	}
	if slices.Contains(args, "-to") {
		t.Fatalf("unbounded extraction must not pass -to: %v", args)
	}
	if !slices.Contains(args, "0:a:1") {
		t.Fatalf("expected second audio map in %v", args)
	}

	if len(events) != 6 {
		t.Fatalf("expected 6 progress events, got %d: %+v", len(events), events)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Elapsed <= events[i-1].Elapsed {
			t.Fatalf("progress not strictly increasing at %d: %+v", i, events)
		}
	}
	last := events[len(events)-1]
	if !last.Done || math.Abs(last.Elapsed-902.22) > 1e-9 || last.Total != last.Elapsed {
		t.Fatalf("final event = %+v, want done at 902.22", last)
	}
}

func TestExtractStreamsToWAVWithWindow(t *testing.T) {
	exec := scripted(t, "probe_multiprogram.txt", "extract_streams.txt")
	client := newClient(t, exec)
	outDir := filepath.Join(t.TempDir(), "streams")

	var last ffdiag.Progress
	_, err := client.ExtractStreams(context.Background(), writeRecording(t), ffmpeg.StreamOptions{
		OutputDir: outDir,
		Start:     10,
		End:       120,
		ToWAV:     true,
		Progress:  func(p ffdiag.Progress) { last = p },
	})
	if err != nil {
		t.Fatalf("ExtractStreams returned error: %v", err)
	}
	args := strings.Join(exec.LastArgs(), " ")
	for _, want := range []string{"-ss 10 -to 120 -i", "-af aresample=async=1", filepath.Join(outDir, "audio_1.wav")} {
		if !strings.Contains(args, want) {
			t.Fatalf("args %q missing %q", args, want)
		}
	}
	if last.Total != 120 || last.Elapsed != 120 || !last.Done {
		t.Fatalf("final progress = %+v, want 120 of 120", last)
	}
}

func TestExtractStreamsRemovesOutputOnFailure(t *testing.T) {
	runs := 0
	exec := &testsupport.ScriptedExecutor{Script: func(testsupport.Call) ([]string, error) {
		runs++
		if runs == 1 {
			return probeRun(t, "probe_multiprogram.txt")
		}
		return testsupport.Transcript(t, "extract_streams.txt")[:12], errors.New("disk full")
	}}
	outDir := filepath.Join(t.TempDir(), "streams")

	_, err := newClient(t, exec).ExtractStreams(context.Background(), writeRecording(t), ffmpeg.StreamOptions{OutputDir: outDir})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if _, statErr := os.Stat(outDir); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected output dir removed, stat err=%v", statErr)
	}
}

func TestExtractStreamsInvalidInputRemovesOutput(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "streams")
	_, err := newClient(t, scripted(t, "probe_no_audio.txt")).ExtractStreams(context.Background(), writeRecording(t), ffmpeg.StreamOptions{OutputDir: outDir})
	if !errors.Is(err, services.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if _, statErr := os.Stat(outDir); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected output dir removed, stat err=%v", statErr)
	}
}

func TestExtractStreamsRejectsUnknownAudioTrack(t *testing.T) {
	_, err := newClient(t, scripted(t, "probe_multiprogram.txt")).ExtractStreams(context.Background(), writeRecording(t), ffmpeg.StreamOptions{
		OutputDir:   filepath.Join(t.TempDir(), "streams"),
		AudioTracks: []int{2},
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestExtractStreamsReplacesExistingOutput(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "streams")
	stale := filepath.Join(outDir, "stale.txt")
	testsupport.WriteFile(t, stale, 4)

	_, err := newClient(t, scripted(t, "probe_multiprogram.txt", "extract_streams.txt")).ExtractStreams(context.Background(), writeRecording(t), ffmpeg.StreamOptions{OutputDir: outDir})
	if err != nil {
		t.Fatalf("ExtractStreams returned error: %v", err)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected stale file removed, err=%v", err)
	}
}

func TestExtractStreamsKeepsExtensionlessInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recording")
	testsupport.WriteFile(t, path, 188)
	exec := &testsupport.ScriptedExecutor{}

	_, err := newClient(t, exec).ExtractStreams(context.Background(), path, ffmpeg.StreamOptions{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if info, statErr := os.Stat(path); statErr != nil || !info.Mode().IsRegular() {
		t.Fatalf("input must survive as a regular file: %v", statErr)
	}
	if len(exec.Calls()) != 0 {
		t.Fatal("ffmpeg must not run when the output would replace the input")
	}
}

func TestExtractStreamsRejectsInputAsOutput(t *testing.T) {
	path := writeRecording(t)
	_, err := newClient(t, &testsupport.ScriptedExecutor{}).ExtractStreams(context.Background(), path, ffmpeg.StreamOptions{OutputDir: path})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if info, statErr := os.Stat(path); statErr != nil || info.Size() != 188 {
		t.Fatalf("input was modified: %v", statErr)
	}
}

func TestExtractWavArgs(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{Lines: testsupport.Transcript(t, "extract_streams.txt")}
	output := filepath.Join(t.TempDir(), "wav", "audio.wav")
	path := writeRecording(t)

	if err := newClient(t, exec).ExtractWav(context.Background(), path, output, 0, ffdiag.Unbounded, nil); err != nil {
		t.Fatalf("ExtractWav returned error: %v", err)
	}
	want := []string{"-hide_banner", "-ss", "0", "-i", path, "-af", "aresample=async=1", "-f", "wav", "-y", output}
	if got := exec.LastArgs(); !slices.Equal(got, want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
}

func TestExtractWavRemovesPartialOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), "audio.wav")
	exec := &testsupport.ScriptedExecutor{
		Before: func(testsupport.Call) error {
			return os.WriteFile(output, []byte("RIFF"), 0o644)
		},
		Lines: testsupport.Transcript(t, "probe_no_audio.txt"),
	}
	err := newClient(t, exec).ExtractWav(context.Background(), writeRecording(t), output, 0, 0, nil)
	if !errors.Is(err, services.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if _, statErr := os.Stat(output); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected partial wav removed, stat err=%v", statErr)
	}
}

func TestExtractAreaCrop(t *testing.T) {
	exec := scripted(t, "probe_multiprogram.txt", "extract_streams.txt")
	outDir := filepath.Join(t.TempDir(), "area")
	rect := ffmpeg.NormalizedRect{X: 0.25, Y: 0.5, Width: 0.5, Height: 0.25}

	err := newClient(t, exec).ExtractArea(context.Background(), writeRecording(t), ffmpeg.AreaOptions{
		Rect:      rect,
		OutputDir: outDir,
		FPS:       "1/2",
	})
	if err != nil {
		t.Fatalf("ExtractArea returned error: %v", err)
	}
	args := exec.LastArgs()
	if !slices.Contains(args, "crop=720:270:360:540,fps=1/2") {
		t.Fatalf("unexpected filter in %v", args)
	}
	if args[len(args)-1] != filepath.Join(outDir, "out%08d.bmp") {
		t.Fatalf("unexpected output pattern %q", args[len(args)-1])
	}
}

func TestExtractAreaProgressWithWindow(t *testing.T) {
	exec := scripted(t, "probe_multiprogram.txt", "extract_streams.txt")

	var events []ffdiag.Progress
	err := newClient(t, exec).ExtractArea(context.Background(), writeRecording(t), ffmpeg.AreaOptions{
		Rect:      ffmpeg.FullFrame,
		OutputDir: filepath.Join(t.TempDir(), "area"),
		End:       120,
		Progress:  func(p ffdiag.Progress) { events = append(events, p) },
	})
	if err != nil {
		t.Fatalf("ExtractArea returned error: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("expected progress events")
	}
	for i, event := range events {
		if event.Total != 120 {
			t.Fatalf("event %d total = %v, want 120", i, event.Total)
		}
		if i > 0 && event.Elapsed < events[i-1].Elapsed {
			t.Fatalf("progress decreased at %d: %+v", i, events)
		}
	}
	last := events[len(events)-1]
	if !last.Done || last.Elapsed != 120 {
		t.Fatalf("final event = %+v, want done at 120", last)
	}
	if !slices.Contains(exec.LastArgs(), "-to") {
		t.Fatalf("expected -to in %v", exec.LastArgs())
	}
}

func TestExtractAreaReplacesExistingOutput(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "area")
	stale := filepath.Join(outDir, "out00000001.bmp")
	testsupport.WriteFile(t, stale, 4)

	err := newClient(t, scripted(t, "probe_multiprogram.txt", "extract_streams.txt")).ExtractArea(context.Background(), writeRecording(t), ffmpeg.AreaOptions{
		Rect:      ffmpeg.FullFrame,
		OutputDir: outDir,
	})
	if err != nil {
		t.Fatalf("ExtractArea returned error: %v", err)
	}
	if info, err := os.Stat(outDir); err != nil || !info.IsDir() {
		t.Fatalf("expected output dir to exist: %v", err)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected stale bitmap removed, err=%v", err)
	}
}

func TestExtractAreaRemovesOutputOnFailure(t *testing.T) {
	runs := 0
	exec := &testsupport.ScriptedExecutor{Script: func(testsupport.Call) ([]string, error) {
		runs++
		if runs == 1 {
			return probeRun(t, "probe_multiprogram.txt")
		}
		return testsupport.Transcript(t, "extract_streams.txt")[:12], errors.New("disk full")
	}}
	outDir := filepath.Join(t.TempDir(), "area")

	err := newClient(t, exec).ExtractArea(context.Background(), writeRecording(t), ffmpeg.AreaOptions{
		Rect:      ffmpeg.FullFrame,
		OutputDir: outDir,
	})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if _, statErr := os.Stat(outDir); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected output dir removed, stat err=%v", statErr)
	}
}

func TestExtractAreaRefusesExistingFile(t *testing.T) {
	keep := filepath.Join(t.TempDir(), "keep.ts")
	testsupport.WriteFile(t, keep, 64)
	exec := &testsupport.ScriptedExecutor{}

	err := newClient(t, exec).ExtractArea(context.Background(), writeRecording(t), ffmpeg.AreaOptions{
		Rect:      ffmpeg.FullFrame,
		OutputDir: keep,
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if info, statErr := os.Stat(keep); statErr != nil || info.Size() != 64 {
		t.Fatalf("existing file was modified: %v", statErr)
	}
	if len(exec.Calls()) != 0 {
		t.Fatal("ffmpeg must not run when the output is a file")
	}
}

func TestExtractAreaRejectsRectOutsideFrame(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{}
	err := newClient(t, exec).ExtractArea(context.Background(), writeRecording(t), ffmpeg.AreaOptions{
		Rect:      ffmpeg.NormalizedRect{X: 0.5, Width: 1.2, Height: 1},
		OutputDir: filepath.Join(t.TempDir(), "area"),
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(exec.Calls()) != 0 {
		t.Fatal("ffmpeg must not run for an invalid area")
	}
}

func TestNormalizedRectPixels(t *testing.T) {
	w, h, x, y := ffmpeg.FullFrame.Pixels(1440, 1080)
	if w != 1440 || h != 1080 || x != 0 || y != 0 {
		t.Fatalf("full frame = %d %d %d %d", w, h, x, y)
	}
	w, h, x, y = ffmpeg.NormalizedRect{X: 0.1, Y: 0.1, Width: 0.333, Height: 0.333}.Pixels(1920, 1080)
	if w != 639 || h != 360 || x != 192 || y != 108 {
		t.Fatalf("rounded crop = %d %d %d %d", w, h, x, y)
	}
}

func writeBitmap(t *testing.T, path string, fill color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create bitmap: %v", err)
	}
	defer f.Close()
	if err := bmp.Encode(f, img); err != nil {
		t.Fatalf("encode bitmap: %v", err)
	}
}

func propsTranscript(t *testing.T) []string {
	lines := testsupport.Transcript(t, "extract_streams.txt")[:6]
	lines = append(lines, "Press [q] to stop, [?] for help")
	return append(lines, testsupport.Transcript(t, "showinfo.txt")...)
}

func TestExtractFramePropertiesWithDifference(t *testing.T) {
	black := color.RGBA{A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	red := color.RGBA{R: 255, A: 255}

	var frameDir string
	exec := &testsupport.ScriptedExecutor{
		Before: func(call testsupport.Call) error {
			pattern := call.Args[len(call.Args)-1]
			frameDir = filepath.Dir(pattern)
			for i, fill := range []color.RGBA{black, black, white, red} {
				writeBitmap(t, filepath.Join(frameDir, "out0000000"+string(rune('1'+i))+".bmp"), fill)
			}
			return nil
		},
		Lines: propsTranscript(t),
	}

	frames, err := newClient(t, exec).ExtractFrameProperties(context.Background(), writeRecording(t), ffmpeg.FrameOptions{
		Start: 10,
		End:   ffdiag.Unbounded,
	})
	if err != nil {
		t.Fatalf("ExtractFrameProperties returned error: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames after dropping the negative position, got %d", len(frames))
	}
	wantPTS := []float64{10, 10.0333667, 10.1001}
	wantSAD := []float64{0, 0, 2.0 / 3.0}
	for i, frame := range frames {
		if math.Abs(frame.PTSTime-wantPTS[i]) > 1e-9 {
			t.Fatalf("frame %d pts = %v, want %v", i, frame.PTSTime, wantPTS[i])
		}
		if math.Abs(frame.SAD-wantSAD[i]) > 1e-9 {
			t.Fatalf("frame %d sad = %v, want %v", i, frame.SAD, wantSAD[i])
		}
	}
	if !frames[0].IsKeyframe || frames[0].FrameType != "I" || frames[0].Checksum != "5A3C1F20" {
		t.Fatalf("unexpected first frame %+v", frames[0])
	}
	if _, err := os.Stat(frameDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected frame temp dir removed, stat err=%v", err)
	}
}

func TestExtractFramePropertiesSkipDifference(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{Lines: propsTranscript(t)}
	frames, err := newClient(t, exec).ExtractFrameProperties(context.Background(), writeRecording(t), ffmpeg.FrameOptions{
		End:            0.05,
		SkipDifference: true,
	})
	if err != nil {
		t.Fatalf("ExtractFrameProperties returned error: %v", err)
	}
	args := exec.LastArgs()
	if !slices.Equal(args[len(args)-3:], []string{"-f", "null", "-"}) {
		t.Fatalf("expected null output, got %v", args)
	}
	if len(frames) != 2 {
		t.Fatalf("expected frames inside [0, 0.05], got %d", len(frames))
	}
	for _, frame := range frames {
		if frame.SAD != 0 {
			t.Fatalf("expected zero difference without bitmaps, got %v", frame.SAD)
		}
	}
}

func TestExtractFramePropertiesInvalidInput(t *testing.T) {
	exec := &testsupport.ScriptedExecutor{Lines: testsupport.Transcript(t, "probe_no_audio.txt")}
	_, err := newClient(t, exec).ExtractFrameProperties(context.Background(), writeRecording(t), ffmpeg.FrameOptions{SkipDifference: true})
	if !errors.Is(err, services.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestExtractFramePropertiesRemovesFramesOnFailure(t *testing.T) {
	var frameDir string
	exec := &testsupport.ScriptedExecutor{
		Before: func(call testsupport.Call) error {
			frameDir = filepath.Dir(call.Args[len(call.Args)-1])
			writeBitmap(t, filepath.Join(frameDir, "out00000001.bmp"), color.RGBA{A: 255})
			return nil
		},
		Lines: testsupport.Transcript(t, "probe_no_audio.txt"),
	}

	_, err := newClient(t, exec).ExtractFrameProperties(context.Background(), writeRecording(t), ffmpeg.FrameOptions{})
	if !errors.Is(err, services.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if frameDir == "" {
		t.Fatal("expected a frame directory in the ffmpeg arguments")
	}
	if _, statErr := os.Stat(frameDir); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected frame temp dir removed, stat err=%v", statErr)
	}
}

func TestDetectSilence(t *testing.T) {
	lines := testsupport.Transcript(t, "extract_streams.txt")[:6]
	lines = append(lines,
		"Press [q] to stop, [?] for help",
		"[silencedetect @ 0x5581c2e0] silence_start: 12.5",
		"[silencedetect @ 0x5581c2e0] silence_end: 14.1 | silence_duration: 1.6",
		"size=N/A time=00:01:00.00 bitrate=N/A speed=60x",
		"[silencedetect @ 0x5581c2e0] silence_start: 890",
	)
	exec := &testsupport.ScriptedExecutor{Lines: lines}

	periods, err := newClient(t, exec).DetectSilence(context.Background(), writeRecording(t), ffmpeg.SilenceOptions{})
	if err != nil {
		t.Fatalf("DetectSilence returned error: %v", err)
	}
	want := []ffdiag.SilencePeriod{{StartMS: 12500, EndMS: 14100}, {StartMS: 890000, EndMS: 902220}}
	if !slices.Equal(periods, want) {
		t.Fatalf("periods = %+v, want %+v", periods, want)
	}
	if !slices.Contains(exec.LastArgs(), "silencedetect=noise=-80dB:d=0.8") {
		t.Fatalf("unexpected filter in %v", exec.LastArgs())
	}
}

func TestCancelledContextStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &testsupport.ScriptedExecutor{Lines: testsupport.Transcript(t, "probe_multiprogram.txt")}
	_, err := newClient(t, exec).GetInfo(ctx, writeRecording(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
