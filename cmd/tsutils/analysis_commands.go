package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"tsutils/internal/media/ffdiag"
	"tsutils/internal/services/ffmpeg"
)

func newPropsCommand(ctx *commandContext) *cobra.Command {
	var window windowFlags
	var skipDifference bool

	cmd := &cobra.Command{
		Use:   "props <recording.ts>",
		Short: "List per-frame properties and the difference to the previous frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := window.resolve()
			if err != nil {
				return err
			}
			return ctx.withFFmpeg(cmd, "props", func(opCtx context.Context, logger *slog.Logger, client *ffmpeg.Client) error {
				progress, done := ctx.progressFor(cmd, logger, "props")
				frames, err := client.ExtractFrameProperties(opCtx, args[0], ffmpeg.FrameOptions{
					Start:          start,
					End:            end,
					SkipDifference: skipDifference,
					Progress:       progress,
				})
				done()
				if err != nil {
					return err
				}
				if ctx.jsonOutput {
					if frames == nil {
						frames = []ffdiag.FrameProperty{}
					}
					return writeJSON(cmd, frames)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderFrames(frames))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&window.start, "start", "", "Start time in seconds or H:MM:SS")
	cmd.Flags().StringVar(&window.end, "end", "", "End time in seconds or H:MM:SS (default: end of input)")
	cmd.Flags().BoolVar(&skipDifference, "skip-difference", false, "Skip the frame difference (faster, no bitmaps are decoded)")
	return cmd
}

func renderFrames(frames []ffdiag.FrameProperty) string {
	rows := make([][]string, 0, len(frames))
	for _, frame := range frames {
		key := ""
		if frame.IsKeyframe {
			key = "*"
		}
		rows = append(rows, []string{
			strconv.FormatFloat(frame.PTSTime, 'f', 3, 64),
			strconv.FormatInt(frame.Position, 10),
			frame.FrameType,
			key,
			frame.Checksum,
			strconv.FormatFloat(frame.SAD, 'f', 4, 64),
		})
	}
	return renderTable(
		[]string{"PTS", "Position", "Type", "Key", "Checksum", "SAD"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

type silenceResult struct {
	Input   string                 `json:"input"`
	Periods []ffdiag.SilencePeriod `json:"periods"`
}

func newSilenceCommand(ctx *commandContext) *cobra.Command {
	var window windowFlags
	var minSilenceMS int
	var thresholdDB float64

	cmd := &cobra.Command{
		Use:   "silence <recording.ts>",
		Short: "Detect silent periods on the first audio track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := window.resolve()
			if err != nil {
				return err
			}
			opts := ffmpeg.SilenceOptions{
				Start:        start,
				End:          end,
				MinSilenceMS: ctx.config.Silence.MinSilenceMS,
				ThresholdDB:  ctx.config.Silence.ThresholdDB,
			}
			if cmd.Flags().Changed("min") {
				opts.MinSilenceMS = minSilenceMS
			}
			if cmd.Flags().Changed("threshold") {
				opts.ThresholdDB = thresholdDB
			}
			return ctx.withFFmpeg(cmd, "silence", func(opCtx context.Context, logger *slog.Logger, client *ffmpeg.Client) error {
				progress, done := ctx.progressFor(cmd, logger, "silence")
				opts.Progress = progress
				periods, err := client.DetectSilence(opCtx, args[0], opts)
				done()
				if err != nil {
					return err
				}
				if ctx.jsonOutput {
					if periods == nil {
						periods = []ffdiag.SilencePeriod{}
					}
					return writeJSON(cmd, silenceResult{Input: args[0], Periods: periods})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderSilence(periods))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&window.start, "start", "", "Start time in seconds or H:MM:SS")
	cmd.Flags().StringVar(&window.end, "end", "", "End time in seconds or H:MM:SS (default: end of input)")
	cmd.Flags().IntVar(&minSilenceMS, "min", 0, "Minimum silence length in milliseconds (default: silence.min_silence_ms)")
	cmd.Flags().Float64Var(&thresholdDB, "threshold", 0, "Noise threshold in dB (default: silence.threshold_db)")
	return cmd
}

func renderSilence(periods []ffdiag.SilencePeriod) string {
	rows := make([][]string, 0, len(periods))
	for _, period := range periods {
		rows = append(rows, []string{
			ffdiag.FormatTimestamp(float64(period.StartMS) / 1000),
			ffdiag.FormatTimestamp(float64(period.EndMS) / 1000),
			strconv.FormatInt(period.DurationMS(), 10),
		})
	}
	return renderTable(
		[]string{"Start", "End", "Length (ms)"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	)
}
