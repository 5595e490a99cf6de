package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clipreel/internal/history"
	"clipreel/internal/runreport"
)

const historyTimeLayout = "2006-01-02 15:04"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRunsTable(runs))
			return nil
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one run and its per-clip outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, history.ErrNotFound) {
					return fmt.Errorf("run %s not found", args[0])
				}
				return err
			}
			clips, err := store.RunClips(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			printRunDetail(cmd.OutOrStdout(), run, clips)
			return nil
		},
	}
}

func renderRunsTable(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.Project,
			run.StartedAt.Local().Format(historyTimeLayout),
			string(run.Status),
			strconv.Itoa(run.Copied),
			strconv.Itoa(run.Annotated),
			humanize.Bytes(uint64(run.BytesCopied)),
			runreport.FormatElapsed(run.Elapsed),
		})
	}
	return renderTable(
		[]string{"ID", "Project", "Started", "Status", "Copied", "Annotated", "Backed up", "Elapsed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}

func printRunDetail(out io.Writer, run history.Run, clips []history.Clip) {
	fmt.Fprintf(out, "Run:        %s\n", run.ID)
	fmt.Fprintf(out, "Project:    %s\n", run.Project)
	fmt.Fprintf(out, "Status:     %s\n", run.Status)
	fmt.Fprintf(out, "Started:    %s\n", formatHistoryTime(run.StartedAt))
	fmt.Fprintf(out, "Finished:   %s\n", formatHistoryTime(run.FinishedAt))
	fmt.Fprintf(out, "Backup:     %d copied (%s), %d skipped, %d failed\n", run.Copied, humanize.Bytes(uint64(run.BytesCopied)), run.Skipped, run.IngestFailed)
	fmt.Fprintf(out, "Annotated:  %d, %d failed\n", run.Annotated, run.AnnotateFailed)
	if run.OutputPath != "" {
		fmt.Fprintf(out, "Output:     %s (compiled: %s)\n", run.OutputPath, yesNo(run.Compiled))
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Error:      %s\n", run.Error)
	}
	if len(clips) == 0 {
		return
	}

	rows := make([][]string, 0, len(clips))
	for _, clip := range clips {
		result := "ok"
		if !clip.OK {
			result = "failed"
		}
		rows = append(rows, []string{clip.Stage, clip.Path, result, clip.Detail})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]string{"Stage", "Path", "Result", "Detail"}, rows, nil))
}

func formatHistoryTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(historyTimeLayout)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
