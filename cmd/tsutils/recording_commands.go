package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type filesResult struct {
	Input string   `json:"input"`
	Files []string `json:"files"`
}

func printFiles(ctx *commandContext, cmd *cobra.Command, input string, files []string, empty string) error {
	if ctx.jsonOutput {
		if files == nil {
			files = []string{}
		}
		return writeJSON(cmd, filesResult{Input: input, Files: files})
	}
	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintln(out, empty)
		return nil
	}
	for _, file := range files {
		fmt.Fprintln(out, file)
	}
	return nil
}

func newSplitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "split <recording.ts>",
		Short: "Split a recording into its HD/CS parts with TsSplitter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opCtx, logger, err := ctx.begin(cmd, "split")
			if err != nil {
				return err
			}
			client, err := ctx.splitterClient(logger)
			if err != nil {
				return err
			}
			parts, err := client.Split(opCtx, args[0])
			if err != nil {
				return err
			}
			return printFiles(ctx, cmd, args[0], parts, "No parts written")
		},
	}
}

func newTrimCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "trim <recording.ts>",
		Short: "Drop small leading and trailing parts and join the rest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opCtx, logger, err := ctx.begin(cmd, "trim")
			if err != nil {
				return err
			}
			client, err := ctx.splitterClient(logger)
			if err != nil {
				return err
			}
			target, err := client.Trim(opCtx, args[0], strings.TrimSpace(output))
			if err != nil {
				return err
			}
			return printOutput(ctx, cmd, args[0], target)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: <name>_trimmed.ts next to the input)")
	return cmd
}

func newSubtitlesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "subtitles <recording.ts>",
		Short: "Extract ARIB captions as SRT and ASS files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opCtx, logger, err := ctx.begin(cmd, "subtitles")
			if err != nil {
				return err
			}
			client, err := ctx.captionClient(logger)
			if err != nil {
				return err
			}
			files, err := client.Extract(opCtx, args[0])
			if err != nil {
				return err
			}
			return printFiles(ctx, cmd, args[0], files, "No captions found")
		},
	}
}

type epgResult struct {
	Input   string `json:"input"`
	EPG     string `json:"epg"`
	Summary string `json:"summary"`
}

func newEPGCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "epg <recording.ts>",
		Short: "Dump the program guide entry of a recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opCtx, logger, err := ctx.begin(cmd, "epg")
			if err != nil {
				return err
			}
			client, err := ctx.epgClient(logger)
			if err != nil {
				return err
			}
			epgPath, txtPath, err := client.Dump(opCtx, args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput {
				return writeJSON(cmd, epgResult{Input: args[0], EPG: epgPath, Summary: txtPath})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", epgPath)
			fmt.Fprintf(out, "Wrote %s\n", txtPath)
			return nil
		},
	}
}
