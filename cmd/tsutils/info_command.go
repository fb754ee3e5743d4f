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

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info <recording.ts>",
		Short: "Show duration, resolution, frame rate and audio tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withFFmpeg(cmd, "info", func(opCtx context.Context, _ *slog.Logger, client *ffmpeg.Client) error {
				info, err := client.GetInfo(opCtx, args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput {
					return writeJSON(cmd, info)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderMediaInfo(info))
				return nil
			})
		},
	}
}

func renderMediaInfo(info ffdiag.MediaInfo) string {
	return renderKeyValues([][2]string{
		{"Duration", ffdiag.FormatTimestamp(info.Duration)},
		{"Resolution", fmt.Sprintf("%dx%d", info.Width, info.Height)},
		{"Frame rate", strconv.FormatFloat(info.FPS, 'f', -1, 64)},
		{"SAR", formatRatio(info.SAR)},
		{"DAR", formatRatio(info.DAR)},
		{"Audio tracks", strconv.Itoa(info.SoundTracks)},
	})
}
