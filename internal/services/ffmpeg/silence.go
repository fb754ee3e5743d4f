package ffmpeg

import (
	"context"
	"fmt"

	"tsutils/internal/logging"
	"tsutils/internal/media/ffdiag"
	"tsutils/internal/services"
)

// SilenceOptions controls DetectSilence.
type SilenceOptions struct {
	Start float64
	End   float64
	// MinSilenceMS is the shortest gap reported. Zero means 800.
	MinSilenceMS int
	// ThresholdDB is the level below which audio counts as silent. Zero
	// means -80.
	ThresholdDB float64
	Progress    ffdiag.ProgressFunc
}

const (
	defaultMinSilenceMS = 800
	defaultThresholdDB  = -80.0
)

// DetectSilence reports silent periods on the first audio track, in
// milliseconds from the start of the input.
func (c *Client) DetectSilence(ctx context.Context, path string, opts SilenceOptions) ([]ffdiag.SilencePeriod, error) {
	if err := validateWindow(opts.Start, opts.End); err != nil {
		return nil, err
	}
	if opts.MinSilenceMS < 0 {
		return nil, fmt.Errorf("%w: minimum silence %dms is negative", services.ErrValidation, opts.MinSilenceMS)
	}
	if opts.MinSilenceMS == 0 {
		opts.MinSilenceMS = defaultMinSilenceMS
	}
	if opts.ThresholdDB == 0 {
		opts.ThresholdDB = defaultThresholdDB
	}
	binary, err := c.prepare(path)
	if err != nil {
		return nil, err
	}

	filter := fmt.Sprintf("silencedetect=noise=%sdB:d=%s",
		ffdiag.FormatSeconds(opts.ThresholdDB), ffdiag.FormatSeconds(float64(opts.MinSilenceMS)/1000))
	args := []string{"-hide_banner"}
	args = append(args, windowArgs(opts.Start, opts.End)...)
	args = append(args,
		"-i", path,
		"-map", "0:a:0",
		"-af", filter,
		"-f", "null", "-",
	)

	parser := ffdiag.NewSilenceParser(opts.Start)
	consume := func(line string) error {
		if !ffdiag.IsSilenceLine(line) {
			return nil
		}
		return parser.Feed(line)
	}

	d := newDispatcher("detect silence", opts.End, opts.Progress, consume)
	info, err := c.run(ctx, binary, path, args, d, false)
	if err != nil {
		return nil, err
	}

	windowEnd := ffdiag.PlannedTotal(info.Duration, opts.End) - opts.Start
	periods := parser.Finish(windowEnd)
	logging.WithContext(ctx, c.logger).Info("silence detected",
		logging.Input(path),
		logging.Int("periods", len(periods)),
		logging.String("threshold", ffdiag.FormatSeconds(opts.ThresholdDB)+"dB"),
	)
	return periods, nil
}
