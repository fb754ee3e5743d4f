package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tsutils/internal/deps"
	"tsutils/internal/preflight"
	"tsutils/internal/services"
)

type depsReport struct {
	Tools  []deps.Status      `json:"tools"`
	Checks []preflight.Result `json:"checks"`
}

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and writable directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opCtx, _, err := ctx.begin(cmd, "deps")
			if err != nil {
				return err
			}
			cfg := ctx.config
			report := depsReport{
				Tools:  preflight.CheckSystemDeps(cfg, ctx.locator),
				Checks: preflight.RunAll(opCtx, cfg, ctx.executor),
			}

			if ctx.jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printDepsReport(cmd, report)
			}

			for _, status := range report.Tools {
				if !status.Available && !status.Optional {
					return &services.ToolMissingError{Command: status.Command}
				}
			}
			return nil
		},
	}
}

func printDepsReport(cmd *cobra.Command, report depsReport) {
	out := cmd.OutOrStdout()
	colorize := isTerminal(out)

	fmt.Fprintln(out, "Tools:")
	for _, status := range report.Tools {
		kind := statusOK
		message := status.Path
		if !status.Available {
			kind = statusError
			if status.Optional {
				kind = statusWarn
			}
			message = strings.TrimSpace(status.Detail)
			if message == "" {
				message = status.Command + " not found"
			}
		}
		fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
	}

	fmt.Fprintln(out, "Checks:")
	for _, result := range report.Checks {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
}
