package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"tsutils/internal/logging"
	"tsutils/internal/media/ffdiag"
)

// progressReporter renders ffmpeg progress as a bar on terminals and as
// sampled log lines otherwise.
type progressReporter struct {
	out     io.Writer
	label   string
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	bar     *progressbar.ProgressBar
	useBar  bool
}

// progressFor returns the callback handed to ffmpeg operations and a function
// that must run once the operation returned. Quiet mode disables progress.
func (c *commandContext) progressFor(cmd *cobra.Command, logger *slog.Logger, label string) (ffdiag.ProgressFunc, func()) {
	if c.quiet {
		return nil, func() {}
	}
	r := &progressReporter{
		out:     cmd.ErrOrStderr(),
		label:   label,
		logger:  logger,
		sampler: logging.NewProgressSampler(10),
	}
	r.useBar = isTerminal(r.out)
	return r.observe, r.close
}

func (r *progressReporter) observe(p ffdiag.Progress) {
	if !r.useBar {
		r.log(p)
		return
	}
	if r.bar == nil {
		limit := millis(p.Total)
		if limit == 0 {
			limit = -1
		}
		r.bar = progressbar.NewOptions64(limit,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetDescription(r.label),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(r.out, "\n") }),
		)
	}
	_ = r.bar.Set64(millis(p.Elapsed))
	if p.Done {
		_ = r.bar.Finish()
	}
}

func (r *progressReporter) log(p ffdiag.Progress) {
	percent := p.Percent()
	if !p.Done && !r.sampler.ShouldLog(percent, p.Stage) {
		return
	}
	r.logger.Info("progress",
		logging.String(logging.FieldProgressStage, p.Stage),
		logging.Float64(logging.FieldProgressPercent, percent),
		logging.String(logging.FieldProgressMessage, ffdiag.FormatTimestamp(p.Elapsed)+" / "+ffdiag.FormatTimestamp(p.Total)),
	)
}

func (r *progressReporter) close() {
	if r.bar != nil && !r.bar.IsFinished() {
		_ = r.bar.Exit()
	}
}

func millis(seconds float64) int64 {
	if seconds <= 0 {
		return 0
	}
	return int64(seconds * 1000)
}
