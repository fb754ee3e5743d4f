package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"

	"tsutils/internal/fileutil"
	"tsutils/internal/logging"
	"tsutils/internal/media/ffdiag"
	"tsutils/internal/media/framediff"
	"tsutils/internal/workspace"
)

// FrameOptions controls ExtractFrameProperties.
type FrameOptions struct {
	Start float64
	End   float64
	// SkipDifference disables bitmap output; every SAD is then 0.
	SkipDifference bool
	Progress       ffdiag.ProgressFunc
}

// ExtractFrameProperties samples showinfo reports for every frame in the
// window. Unless SkipDifference is set, each frame also gets the downsampled
// absolute difference from its predecessor.
func (c *Client) ExtractFrameProperties(ctx context.Context, path string, opts FrameOptions) ([]ffdiag.FrameProperty, error) {
	if err := validateWindow(opts.Start, opts.End); err != nil {
		return nil, err
	}
	binary, err := c.prepare(path)
	if err != nil {
		return nil, err
	}

	args := []string{"-hide_banner"}
	args = append(args, windowArgs(opts.Start, opts.End)...)
	args = append(args,
		"-i", path,
		"-filter:v", "select='gte(t,0)',showinfo",
		"-vsync", "0",
		"-frame_pts", "1",
	)

	var frameDir string
	if opts.SkipDifference {
		args = append(args, "-f", "null", "-")
	} else {
		dir, cleanup, err := workspace.TempDir(workspace.FrameScratchPrefix)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		frameDir = dir
		args = append(args, filepath.Join(frameDir, c.framePrefix+"%08d.bmp"))
	}

	var frames []ffdiag.FrameProperty
	consume := func(line string) error {
		if !ffdiag.IsFrameLine(line) {
			return nil
		}
		frame, err := ffdiag.ParseFrameLine(line, opts.Start)
		if err != nil {
			return err
		}
		frames = append(frames, frame)
		return nil
	}

	d := newDispatcher("extract props", opts.End, opts.Progress, consume)
	info, err := c.run(ctx, binary, path, args, d, false)
	if err != nil {
		return nil, err
	}

	if !opts.SkipDifference {
		bitmaps, err := fileutil.SortedEntries(frameDir, c.framePrefix+"*.bmp")
		if err != nil {
			return nil, fmt.Errorf("list frames: %w", err)
		}
		scores, err := framediff.ComputeSAD(bitmaps)
		if err != nil {
			return nil, fmt.Errorf("frame difference: %w", err)
		}
		if len(scores) != len(frames) {
			logging.WarnWithContext(logging.WithContext(ctx, c.logger), "frame count mismatch", "frame_count_mismatch",
				logging.Int("frames", len(frames)),
				logging.Int("bitmaps", len(scores)),
				logging.String(logging.FieldImpact, "unmatched frames keep a zero difference"),
			)
		}
		for i := range min(len(scores), len(frames)) {
			frames[i].SAD = scores[i]
		}
	}

	end := opts.End
	if ffdiag.IsUnbounded(end) || end <= 0 || end > info.Duration {
		end = info.Duration
	}
	frames = ffdiag.FilterFrames(frames, opts.Start, end)
	logging.WithContext(ctx, c.logger).Info("frame properties extracted",
		logging.Input(path),
		logging.Int("frames", len(frames)),
	)
	return frames, nil
}
