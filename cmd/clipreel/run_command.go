package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clipreel/internal/config"
	"clipreel/internal/history"
	"clipreel/internal/logging"
	"clipreel/internal/pipeline"
	"clipreel/internal/project"
	"clipreel/internal/runreport"
)

const projectPrompt = "Enter project name (e.g., November 2024): "

func newRunCommand(ctx *commandContext) *cobra.Command {
	var projectFlag string
	var sourceFlag string
	var keepTemp bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Back up new clips and build the project compilation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err = applyRunOverrides(cfg, sourceFlag, keepTemp)
			if err != nil {
				return err
			}

			name := projectFlag
			if !cmd.Flags().Changed("project") {
				name, err = promptProjectName(cmd.InOrStdin(), cmd.OutOrStdout())
				if err != nil {
					return err
				}
			}
			if _, err := project.Normalize(name); err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := executeRun(runCtx, ctx, cfg, name, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			printRunSummary(cmd.OutOrStdout(), cfg, summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectFlag, "project", "p", "", "Project name (prompted when omitted)")
	cmd.Flags().StringVar(&sourceFlag, "source", "", "Override paths.source_dir for this run")
	cmd.Flags().BoolVar(&keepTemp, "keep-temp", false, "Keep the annotated intermediates after a successful compilation")
	return cmd
}

// applyRunOverrides returns a copy of cfg with per-invocation flags applied.
func applyRunOverrides(cfg *config.Config, source string, keepTemp bool) (*config.Config, error) {
	local := *cfg
	if source = strings.TrimSpace(source); source != "" {
		expanded, err := config.ExpandPath(source)
		if err != nil {
			return nil, fmt.Errorf("resolve source path: %w", err)
		}
		local.Paths.SourceDir = expanded
	}
	if keepTemp {
		local.Workflow.KeepTemp = true
	}
	return &local, nil
}

func promptProjectName(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, projectPrompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read project name: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(out)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// executeRun performs one pipeline run with the console logger, history
// store and progress bars wired in. Bars go to progressOut, and only when it
// is a terminal.
func executeRun(ctx context.Context, cmdCtx *commandContext, cfg *config.Config, name string, out, progressOut io.Writer) (pipeline.Summary, error) {
	logger, err := cmdCtx.consoleLogger(cfg, out)
	if err != nil {
		return pipeline.Summary{}, err
	}

	var opts []pipeline.Option
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in `clipreel history`"),
		)
	} else {
		defer store.Close()
		opts = append(opts, pipeline.WithHistory(store))
	}

	if progress := terminalProgress(progressOut); progress != nil {
		defer progress.finish()
		opts = append(opts, progress.options()...)
	}

	return pipeline.NewRunner(cfg, logger, opts...).Run(ctx, name)
}

func printRunSummary(out io.Writer, cfg *config.Config, summary pipeline.Summary) {
	colorize := shouldColorize(out)
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Run summary", colorize) {
		fmt.Fprintln(out, line)
	}

	ingestMsg := fmt.Sprintf("%d copied (%s), %d already backed up", len(summary.Ingest.Copied), humanize.Bytes(uint64(summary.Ingest.Bytes)), len(summary.Ingest.Skipped))
	ingestKind := statusOK
	if n := len(summary.Ingest.Failed); n > 0 {
		ingestMsg += fmt.Sprintf(", %d failed", n)
		ingestKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Backup", ingestKind, ingestMsg, colorize))

	annotateMsg := fmt.Sprintf("%d clips", len(summary.Annotate.Clips))
	annotateKind := statusOK
	if n := len(summary.Annotate.Failed); n > 0 {
		annotateMsg += fmt.Sprintf(", %d failed", n)
		annotateKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Annotated", annotateKind, annotateMsg, colorize))

	switch {
	case summary.Concat.Compiled:
		fmt.Fprintln(out, renderStatusLine("Compilation", statusOK, fmt.Sprintf("%s (%s)", summary.Concat.Output, humanize.Bytes(uint64(summary.Concat.Size))), colorize))
	case summary.Concat.Attempted:
		fmt.Fprintln(out, renderStatusLine("Compilation", statusError, "not produced; see the run log", colorize))
	default:
		fmt.Fprintln(out, renderStatusLine("Compilation", statusInfo, "nothing to concatenate", colorize))
	}

	fmt.Fprintln(out, renderStatusLine("Status", statusKindForRun(summary.Status), string(summary.Status), colorize))
	fmt.Fprintln(out, renderStatusLine("Elapsed", statusInfo, runreport.FormatElapsed(summary.Elapsed), colorize))
	fmt.Fprintln(out, renderStatusLine("Run log", statusInfo, cfg.Paths.RunLog, colorize))
}
