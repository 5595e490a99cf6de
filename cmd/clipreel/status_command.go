package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipreel/internal/config"
	"clipreel/internal/deps"
	"clipreel/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check directories and external tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cfg)
			for _, line := range statusLines(cfg, results, colorize) {
				fmt.Fprintln(out, line)
			}
			if blocking := preflight.Blocking(results); len(blocking) > 0 {
				names := make([]string, 0, len(blocking))
				for _, r := range blocking {
					names = append(names, r.Name)
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderStatusLine("Summary", statusError, "failing: "+strings.Join(names, ", "), colorize))
				return nil
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderStatusLine("Summary", statusOK, "Ready", colorize))
			return nil
		},
	}
}

func statusLines(cfg *config.Config, results []preflight.Result, colorize bool) []string {
	lines := renderSectionHeader("Configuration", colorize)
	lines = append(lines,
		renderStatusLine("Capture time", statusInfo, cfg.Workflow.CaptureTime, colorize),
		renderStatusLine("Concat mode", statusInfo, cfg.Encoder.ConcatMode, colorize),
		renderStatusLine("Ledger", statusInfo, cfg.LedgerPath(), colorize),
		renderStatusLine("Run log", statusInfo, cfg.Paths.RunLog, colorize),
	)
	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Checks", colorize)...)
	for _, r := range results {
		lines = append(lines, preflightLine(r, colorize))
	}

	versions := toolVersions(cfg, colorize)
	if len(versions) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Versions", colorize)...)
		lines = append(lines, versions...)
	}
	return lines
}

func toolVersions(cfg *config.Config, colorize bool) []string {
	var lines []string
	for _, status := range preflight.CheckSystemDeps(cfg) {
		if !status.Available {
			continue
		}
		version := versionOf(status.Path)
		if version == "" {
			version = "unknown"
		}
		lines = append(lines, renderStatusLine(status.Name, statusInfo, version, colorize))
	}
	return lines
}

func versionOf(binary string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	version, err := deps.Version(ctx, binary)
	if err != nil {
		return ""
	}
	return version
}
