package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"clipreel/internal/project"
	"clipreel/internal/sdcard"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var projectFlag string
	var sourceFlag string
	var keepTemp bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the pipeline each time the SD card is inserted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := project.Normalize(projectFlag); err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err = applyRunOverrides(cfg, sourceFlag, keepTemp)
			if err != nil {
				return err
			}
			logger, err := ctx.consoleLogger(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			watchCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			poll := time.Duration(cfg.Workflow.WatchPollSeconds) * time.Second
			watcher := sdcard.New(cfg.Paths.SourceDir, poll, logger, func(runCtx context.Context, _ string) error {
				summary, err := executeRun(runCtx, ctx, cfg, projectFlag, out, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				printRunSummary(out, cfg, summary)
				return nil
			})

			err = watcher.Run(watchCtx)
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(out, "Stopped watching")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&projectFlag, "project", "p", "", "Project name for runs started by card insertion (required)")
	cmd.Flags().StringVar(&sourceFlag, "source", "", "Override paths.source_dir")
	cmd.Flags().BoolVar(&keepTemp, "keep-temp", false, "Keep the annotated intermediates after a successful compilation")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
