package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"tsutils/internal/fileutil"
	"tsutils/internal/logging"
	"tsutils/internal/media/ffdiag"
	"tsutils/internal/services"
	"tsutils/internal/workspace"
)

// StreamOptions controls ExtractStreams.
type StreamOptions struct {
	// OutputDir receives the demuxed tracks. It is destroyed and recreated.
	// Empty means the input path without its extension.
	OutputDir string
	// Start and End bound the window in seconds. End of 0 or
	// ffdiag.Unbounded reads to the end of the input.
	Start float64
	End   float64
	// VideoTracks and AudioTracks select tracks by index within their type.
	// Nil selects video track 0 and every audio track of the probed program.
	VideoTracks []int
	AudioTracks []int
	// ToWAV decodes audio to resampled WAV instead of copying AAC.
	ToWAV    bool
	Progress ffdiag.ProgressFunc
}

// NormalizedRect is an area given as fractions of the frame size.
type NormalizedRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Validate reports whether every component lies in [0,1].
func (r NormalizedRect) Validate() error {
	components := []struct {
		name  string
		value float64
	}{{"x", r.X}, {"y", r.Y}, {"width", r.Width}, {"height", r.Height}}
	for _, comp := range components {
		if math.IsNaN(comp.value) || comp.value < 0 || comp.value > 1 {
			return fmt.Errorf("%w: area %s %v outside [0,1]", services.ErrValidation, comp.name, comp.value)
		}
	}
	return nil
}

// Pixels converts the rect to a crop of a width x height frame, rounding to
// the nearest pixel.
func (r NormalizedRect) Pixels(width, height int) (w, h, x, y int) {
	fw, fh := float64(width), float64(height)
	return int(math.Round(r.Width * fw)), int(math.Round(r.Height * fh)),
		int(math.Round(r.X * fw)), int(math.Round(r.Y * fh))
}

// FullFrame covers the whole picture.
var FullFrame = NormalizedRect{Width: 1, Height: 1}

// AreaOptions controls ExtractArea.
type AreaOptions struct {
	Rect      NormalizedRect
	OutputDir string
	Start     float64
	End       float64
	// FPS is an ffmpeg frame rate expression such as "1/2"; empty keeps
	// every frame.
	FPS      string
	Progress ffdiag.ProgressFunc
}

// prepareOutput resolves the output directory for path, locks it and
// recreates it empty. The directory defaults to path without its extension.
// It never replaces the input or an existing file.
func (c *Client) prepareOutput(ctx context.Context, path, requested string) (string, *workspace.Lock, error) {
	dir := requested
	if dir == "" {
		dir = fileutil.StripExt(path)
	}
	absInput, err := filepath.Abs(path)
	if err != nil {
		return "", nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	if absDir == absInput {
		return "", nil, fmt.Errorf("%w: output directory %q would replace the input", services.ErrValidation, dir)
	}
	if info, err := os.Lstat(dir); err == nil && !info.IsDir() {
		return "", nil, fmt.Errorf("%w: output %q exists and is not a directory", services.ErrValidation, dir)
	}

	lock, err := workspace.Prepare(ctx, c.lockDir, dir)
	if err != nil {
		if errors.Is(err, fileutil.ErrNotDirectory) {
			return "", nil, fmt.Errorf("%w: %w", services.ErrValidation, err)
		}
		return "", nil, fmt.Errorf("prepare output: %w", err)
	}
	return dir, lock, nil
}

// ExtractStreams demuxes the selected tracks of path into OutputDir and
// returns the directory.
func (c *Client) ExtractStreams(ctx context.Context, path string, opts StreamOptions) (string, error) {
	if err := validateWindow(opts.Start, opts.End); err != nil {
		return "", err
	}
	binary, err := c.prepare(path)
	if err != nil {
		return "", err
	}
	outputDir, lock, err := c.prepareOutput(ctx, path, opts.OutputDir)
	if err != nil {
		return "", err
	}
	defer func() { _ = lock.Release() }()

	if err := c.extractStreams(ctx, binary, path, outputDir, opts); err != nil {
		_ = os.RemoveAll(outputDir)
		return "", err
	}
	return outputDir, nil
}

func (c *Client) extractStreams(ctx context.Context, binary, path, outputDir string, opts StreamOptions) error {
	info, err := c.probe(ctx, binary, path)
	if err != nil {
		return err
	}
	videoTracks := opts.VideoTracks
	if videoTracks == nil {
		videoTracks = []int{0}
	}
	audioTracks := opts.AudioTracks
	if audioTracks == nil {
		audioTracks = make([]int, info.SoundTracks)
		for i := range audioTracks {
			audioTracks[i] = i
		}
	}
	for _, idx := range audioTracks {
		if idx < 0 || idx >= info.SoundTracks {
			return fmt.Errorf("%w: audio track %d not in 0..%d", services.ErrValidation, idx, info.SoundTracks-1)
		}
	}
	if len(videoTracks) == 0 && len(audioTracks) == 0 {
		return fmt.Errorf("%w: no tracks selected", services.ErrValidation)
	}

	args := []string{"-hide_banner", "-y"}
	args = append(args, windowArgs(opts.Start, opts.End)...)
	args = append(args, "-i", path)
	for _, idx := range videoTracks {
		args = append(args,
			"-map", "0:v:"+strconv.Itoa(idx), "-c:v", "copy",
			filepath.Join(outputDir, fmt.Sprintf("video_%d.ts", idx)),
		)
	}
	for _, idx := range audioTracks {
		args = append(args, "-map", "0:a:"+strconv.Itoa(idx))
		if opts.ToWAV {
			args = append(args, "-af", "aresample=async=1", filepath.Join(outputDir, fmt.Sprintf("audio_%d.wav", idx)))
		} else {
			args = append(args, "-c:a", "copy", filepath.Join(outputDir, fmt.Sprintf("audio_%d.aac", idx)))
		}
	}

	d := newDispatcher("extract streams", opts.End, opts.Progress, nil)
	if _, err := c.run(ctx, binary, path, args, d, false); err != nil {
		return err
	}
	logging.WithContext(ctx, c.logger).Info("streams extracted",
		logging.Input(path),
		logging.Output(outputDir),
		logging.Int("video_tracks", len(videoTracks)),
		logging.Int("audio_tracks", len(audioTracks)),
	)
	return nil
}

// ExtractWav decodes the first audio track of path into a resampled WAV file
// at output.
func (c *Client) ExtractWav(ctx context.Context, path, output string, start, end float64, progress ffdiag.ProgressFunc) error {
	if err := validateWindow(start, end); err != nil {
		return err
	}
	binary, err := c.prepare(path)
	if err != nil {
		return err
	}
	if output == "" {
		return fmt.Errorf("%w: wav output path required", services.ErrValidation)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	args := []string{"-hide_banner"}
	args = append(args, windowArgs(start, end)...)
	args = append(args, "-i", path, "-af", "aresample=async=1", "-f", "wav", "-y", output)

	d := newDispatcher("extract wav", end, progress, nil)
	if _, err := c.run(ctx, binary, path, args, d, false); err != nil {
		if rmErr := os.Remove(output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			logging.WithContext(ctx, c.logger).Debug("remove partial wav failed", logging.Error(rmErr))
		}
		return err
	}
	return nil
}

// ExtractArea crops opts.Rect out of path and writes it as numbered bitmaps
// into opts.OutputDir.
func (c *Client) ExtractArea(ctx context.Context, path string, opts AreaOptions) error {
	if err := opts.Rect.Validate(); err != nil {
		return err
	}
	if err := validateWindow(opts.Start, opts.End); err != nil {
		return err
	}
	binary, err := c.prepare(path)
	if err != nil {
		return err
	}
	outputDir, lock, err := c.prepareOutput(ctx, path, opts.OutputDir)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	if err := c.extractArea(ctx, binary, path, outputDir, opts); err != nil {
		_ = os.RemoveAll(outputDir)
		return err
	}
	return nil
}

func (c *Client) extractArea(ctx context.Context, binary, path, outputDir string, opts AreaOptions) error {
	info, err := c.probe(ctx, binary, path)
	if err != nil {
		return err
	}
	if !info.HasVideo() {
		return services.Invalid(path)
	}
	w, h, x, y := opts.Rect.Pixels(info.Width, info.Height)
	if w == 0 || h == 0 {
		return fmt.Errorf("%w: area rounds to an empty %dx%d crop", services.ErrValidation, w, h)
	}
	filter := fmt.Sprintf("crop=%d:%d:%d:%d", w, h, x, y)
	if opts.FPS != "" {
		filter += ",fps=" + opts.FPS
	}

	args := []string{"-hide_banner"}
	args = append(args, windowArgs(opts.Start, opts.End)...)
	args = append(args,
		"-i", path,
		"-filter:v", filter,
		filepath.Join(outputDir, c.framePrefix+"%08d.bmp"),
	)

	d := newDispatcher("extract area", opts.End, opts.Progress, nil)
	if _, err := c.run(ctx, binary, path, args, d, false); err != nil {
		return err
	}
	logging.WithContext(ctx, c.logger).Info("area extracted",
		logging.Input(path),
		logging.Output(outputDir),
		logging.String("crop", filter),
	)
	return nil
}
