package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"tsutils/internal/fileutil"
	"tsutils/internal/services/ffmpeg"
)

type outputResult struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

func printOutput(ctx *commandContext, cmd *cobra.Command, input, output string) error {
	if ctx.jsonOutput {
		return writeJSON(cmd, outputResult{Input: input, Output: output})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
	return nil
}

func newStreamCommand(ctx *commandContext) *cobra.Command {
	var window windowFlags
	var outputDir, videoTracks, audioTracks string
	var toWAV bool

	cmd := &cobra.Command{
		Use:   "stream <recording.ts>",
		Short: "Demux video and audio tracks into separate files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := window.resolve()
			if err != nil {
				return err
			}
			videos, err := parseTracks("video", videoTracks)
			if err != nil {
				return err
			}
			audios, err := parseTracks("audio", audioTracks)
			if err != nil {
				return err
			}
			return ctx.withFFmpeg(cmd, "stream", func(opCtx context.Context, logger *slog.Logger, client *ffmpeg.Client) error {
				progress, done := ctx.progressFor(cmd, logger, "stream")
				dir, err := client.ExtractStreams(opCtx, args[0], ffmpeg.StreamOptions{
					OutputDir:   strings.TrimSpace(outputDir),
					Start:       start,
					End:         end,
					VideoTracks: videos,
					AudioTracks: audios,
					ToWAV:       toWAV,
					Progress:    progress,
				})
				done()
				if err != nil {
					return err
				}
				return printOutput(ctx, cmd, args[0], dir)
			})
		},
	}

	cmd.Flags().StringVar(&window.start, "start", "", "Start time in seconds or H:MM:SS")
	cmd.Flags().StringVar(&window.end, "end", "", "End time in seconds or H:MM:SS (default: end of input)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: recording path without extension)")
	cmd.Flags().StringVar(&videoTracks, "video", "", "Comma separated video track indices (default: 0)")
	cmd.Flags().StringVar(&audioTracks, "audio", "", "Comma separated audio track indices (default: all)")
	cmd.Flags().BoolVar(&toWAV, "wav", false, "Decode audio tracks to WAV instead of copying AAC")
	return cmd
}

func newWavCommand(ctx *commandContext) *cobra.Command {
	var window windowFlags
	var output string

	cmd := &cobra.Command{
		Use:   "wav <recording.ts>",
		Short: "Decode the first audio track to a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := window.resolve()
			if err != nil {
				return err
			}
			target := strings.TrimSpace(output)
			if target == "" {
				target = fileutil.StripExt(args[0]) + ".wav"
			}
			return ctx.withFFmpeg(cmd, "wav", func(opCtx context.Context, logger *slog.Logger, client *ffmpeg.Client) error {
				progress, done := ctx.progressFor(cmd, logger, "wav")
				err := client.ExtractWav(opCtx, args[0], target, start, end, progress)
				done()
				if err != nil {
					return err
				}
				return printOutput(ctx, cmd, args[0], target)
			})
		},
	}

	cmd.Flags().StringVar(&window.start, "start", "", "Start time in seconds or H:MM:SS")
	cmd.Flags().StringVar(&window.end, "end", "", "End time in seconds or H:MM:SS (default: end of input)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: recording path with .wav extension)")
	return cmd
}

func newAreaCommand(ctx *commandContext) *cobra.Command {
	var window windowFlags
	var outputDir, rect, fps string

	cmd := &cobra.Command{
		Use:   "area <recording.ts>",
		Short: "Crop an area of the picture into numbered bitmaps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := window.resolve()
			if err != nil {
				return err
			}
			area, err := parseRect(rect)
			if err != nil {
				return err
			}
			rate := strings.TrimSpace(fps)
			if rate == "" {
				rate = ctx.config.Extract.AreaFPS
			}
			dir := strings.TrimSpace(outputDir)
			if dir == "" {
				dir = fileutil.StripExt(args[0])
			}
			return ctx.withFFmpeg(cmd, "area", func(opCtx context.Context, logger *slog.Logger, client *ffmpeg.Client) error {
				progress, done := ctx.progressFor(cmd, logger, "area")
				err := client.ExtractArea(opCtx, args[0], ffmpeg.AreaOptions{
					Rect:      area,
					OutputDir: dir,
					Start:     start,
					End:       end,
					FPS:       rate,
					Progress:  progress,
				})
				done()
				if err != nil {
					return err
				}
				return printOutput(ctx, cmd, args[0], dir)
			})
		},
	}

	cmd.Flags().StringVar(&window.start, "start", "", "Start time in seconds or H:MM:SS")
	cmd.Flags().StringVar(&window.end, "end", "", "End time in seconds or H:MM:SS (default: end of input)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default: recording path without extension)")
	cmd.Flags().StringVar(&rect, "rect", "", "Area as x,y,width,height fractions of the frame (default: whole frame)")
	cmd.Flags().StringVar(&fps, "fps", "", "Sampling rate such as 1/2 (default: extract.area_fps)")
	return cmd
}
