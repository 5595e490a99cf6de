package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"clipreel/internal/annotate"
	"clipreel/internal/config"
	"clipreel/internal/encoder"
	"clipreel/internal/history"
	"clipreel/internal/ingest"
	"clipreel/internal/ledger"
	"clipreel/internal/logging"
	"clipreel/internal/manifest"
	"clipreel/internal/media/capturetime"
	"clipreel/internal/preflight"
	"clipreel/internal/project"
	"clipreel/internal/runlock"
	"clipreel/internal/runreport"
)

const stderrTailLines = 5

// HistoryRecorder stores run outcomes. *history.Store satisfies it.
type HistoryRecorder interface {
	BeginRun(ctx context.Context, id, project string, startedAt time.Time) error
	RecordClip(ctx context.Context, runID, stage, path string, ok bool, detail string) error
	FinishRun(ctx context.Context, id string, outcome history.Outcome) error
}

// Runner executes pipeline runs for a config.
type Runner struct {
	cfg         *config.Config
	logger      *slog.Logger
	history     HistoryRecorder
	ingestOpts  []ingest.Option
	annotateOpt []annotate.Option
	newID       func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithHistory records runs in h.
func WithHistory(h HistoryRecorder) Option {
	return func(r *Runner) { r.history = h }
}

// WithIngestOptions forwards options (progress hooks) to the ingest stage.
func WithIngestOptions(opts ...ingest.Option) Option {
	return func(r *Runner) { r.ingestOpts = append(r.ingestOpts, opts...) }
}

// WithAnnotateOptions forwards options (progress hooks) to the annotate stage.
func WithAnnotateOptions(opts ...annotate.Option) Option {
	return func(r *Runner) { r.annotateOpt = append(r.annotateOpt, opts...) }
}

// NewRunner builds a Runner. logger is the console logger; each run tees it
// into the run log.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, logger: logger, newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes projectName. The returned error is non-nil only when the run
// could not be set up or was interrupted.
func (r *Runner) Run(ctx context.Context, projectName string) (Summary, error) {
	if r.cfg == nil {
		return Summary{}, errors.New("config is required")
	}
	cfg := r.cfg

	layout, err := project.NewLayout(cfg.Paths.BackupDir, cfg.Paths.CompilationsDir, projectName)
	if err != nil {
		return Summary{}, err
	}
	if err := layout.CheckSource(cfg.Paths.SourceDir); err != nil {
		return Summary{}, err
	}

	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		_ = lock.Release()
	}()

	report, err := runreport.Open(cfg.Paths.RunLog, r.logger)
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		_ = report.Finish()
	}()

	summary := Summary{RunID: r.newID(), Layout: layout}
	logger := report.Logger().With(
		logging.String(logging.FieldRunID, summary.RunID),
		logging.String(logging.FieldProject, layout.Name),
	)
	runLogger := logging.NewComponentLogger(logger, "pipeline")
	runLogger.Info("run started",
		logging.String("source", cfg.Paths.SourceDir),
		logging.String("backup_dir", layout.BackupDir),
		logging.String("output", layout.Output),
		logging.String("run_log", report.Path()),
	)

	r.logPreflight(runLogger)

	if err := layout.Ensure(); err != nil {
		logging.ErrorWithContext(runLogger, "create project directories failed", "setup_failed", logging.Error(err))
		return summary, err
	}

	ldg, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		logging.ErrorWithContext(runLogger, "open ledger failed", "setup_failed", logging.Error(err))
		return summary, err
	}
	defer func() {
		if cerr := ldg.Close(); cerr != nil {
			runLogger.Warn("close ledger failed", logging.Error(cerr))
		}
	}()
	runLogger.Info("ledger loaded", logging.String("path", ldg.Path()), logging.Int("entries", ldg.Len()))

	r.beginHistory(ctx, runLogger, summary.RunID, layout.Name, report.Started())
	finish := func(runErr error) (Summary, error) {
		summary.Elapsed = report.Elapsed()
		interrupted := errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)
		summary.Status = summary.status(interrupted)
		if runErr != nil && !interrupted {
			summary.Status = history.StatusFailed
		}
		r.finishHistory(ctx, runLogger, summary, runErr)
		runLogger.Info("run finished",
			logging.String("status", string(summary.Status)),
			logging.Int("copied", len(summary.Ingest.Copied)),
			logging.Int("annotated", len(summary.Annotate.Clips)),
			logging.Bool("compiled", summary.Concat.Compiled),
		)
		return summary, runErr
	}

	// Ingest
	ingestStage := ingest.NewStage(ldg, cfg.Ingest.Extensions, logger, r.ingestOpts...)
	summary.Ingest, err = ingestStage.Run(ctx, cfg.Paths.SourceDir, layout.BackupDir)
	if err != nil {
		logging.ErrorWithContext(runLogger, "ingest failed", "ingest_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the SD card is mounted at paths.source_dir"),
		)
		return finish(err)
	}
	r.recordIngest(ctx, runLogger, summary.RunID, summary.Ingest)
	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	// Annotate
	resolver, err := capturetime.NewResolver(cfg.Workflow.CaptureTime, cfg.FFprobeBinary(), nil, logger)
	if err != nil {
		return finish(err)
	}
	runner := encoder.NewRunner(encoder.FromConfig(cfg), logger)
	annotateStage := annotate.NewStage(runner, resolver, cfg.Encoder.TextPrefix, cfg.Ingest.Extensions, logger, r.annotateOpt...)
	summary.Annotate, err = annotateStage.Run(ctx, layout.BackupDir, layout.TmpDir)
	if err != nil {
		logging.ErrorWithContext(runLogger, "annotation failed", "annotate_failed", logging.Error(err))
		return finish(err)
	}
	r.recordAnnotate(ctx, runLogger, summary.RunID, summary.Annotate)
	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	// Order + manifest
	collector := manifest.NewCollector(cfg.Ingest.Extensions, resolver, logger)
	entries, err := collector.Collect(ctx, layout.TmpDir, layout.BackupDir, summary.Annotate.Lineage)
	if err != nil {
		logging.ErrorWithContext(runLogger, "collect annotated clips failed", "manifest_failed", logging.Error(err))
		return finish(err)
	}
	if err := manifest.Write(layout.Manifest, entries); err != nil {
		logging.ErrorWithContext(runLogger, "write manifest failed", "manifest_failed", logging.Error(err))
		return finish(err)
	}
	summary.Entries = len(entries)
	logClipOrder(runLogger, entries)

	// Concatenate
	summary.Concat = r.concat(ctx, runLogger, runner, layout, len(entries))
	if summary.Concat.Attempted {
		detail := ""
		if summary.Concat.Err != nil {
			detail = summary.Concat.Err.Error()
		}
		r.record(ctx, runLogger, summary.RunID, history.StageConcat, layout.Output, summary.Concat.Compiled, detail)
	}
	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	summary.TempRemoved = r.cleanup(runLogger, layout, summary.Concat.Compiled)
	return finish(nil)
}

func (r *Runner) concat(ctx context.Context, logger *slog.Logger, runner *encoder.Runner, layout project.Layout, entries int) ConcatOutcome {
	outcome := ConcatOutcome{Output: layout.Output}
	if entries == 0 {
		logging.WarnWithContext(logger, "nothing to concatenate", "concat_skipped",
			logging.String("manifest", layout.Manifest),
			logging.String(logging.FieldImpact, "no compilation produced this run"),
			logging.String(logging.FieldErrorHint, "check the annotation failures above"),
		)
		return outcome
	}

	outcome.Attempted = true
	logger.Info("Concatenating",
		logging.Int("clips", entries),
		logging.String("manifest", layout.Manifest),
		logging.String("output", layout.Output),
		logging.String("mode", runner.Settings().ConcatMode),
	)
	res := runner.Concat(ctx, layout.Manifest, layout.Output)
	outcome.Size = res.OutputSize
	outcome.Stderr = res.StderrTail(stderrTailLines)
	if !res.Succeeded() {
		outcome.Err = res.Failure()
		attrs := []logging.Attr{
			logging.String("output", layout.Output),
			logging.Error(outcome.Err),
			logging.String(logging.FieldErrorHint, "inspect the manifest and annotated clips in the working directory"),
		}
		if outcome.Stderr != "" {
			attrs = append(attrs, logging.String("stderr", outcome.Stderr))
		}
		if res.OutputExists {
			attrs = append(attrs, logging.String("partial_output", layout.Output))
		}
		logging.ErrorWithContext(logger, "concatenation failed", "concat_failed", attrs...)
		return outcome
	}

	outcome.Compiled = true
	logger.Info("Compilation created",
		logging.String("output", layout.Output),
		logging.String("size", humanize.Bytes(uint64(res.OutputSize))),
	)
	return outcome
}

func (r *Runner) cleanup(logger *slog.Logger, layout project.Layout, compiled bool) bool {
	switch {
	case r.cfg.Workflow.KeepTemp:
		logger.Info("keeping working directory", logging.String("tmp_dir", layout.TmpDir), logging.String("reason", "keep_temp"))
		return false
	case !compiled:
		logger.Info("keeping working directory", logging.String("tmp_dir", layout.TmpDir), logging.String("reason", "no compilation"))
		return false
	}
	if err := layout.RemoveTmp(); err != nil {
		logging.WarnWithContext(logger, "remove working directory failed", "cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "annotated clips remain on disk"),
		)
		return false
	}
	logger.Info("removed working directory", logging.String("tmp_dir", layout.TmpDir))
	return true
}

func (r *Runner) logPreflight(logger *slog.Logger) {
	for _, result := range preflight.RunAll(r.cfg) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.Bool("optional", result.Optional),
			logging.String(logging.FieldImpact, "stages that need it will fail"),
		)
	}
}

func logClipOrder(logger *slog.Logger, entries []manifest.Entry) {
	for i, entry := range entries {
		logger.Info("clip order",
			logging.Int("position", i+1),
			logging.String("clip", entry.Path),
			logging.Time("captured", entry.Captured),
		)
	}
}

func (r *Runner) beginHistory(ctx context.Context, logger *slog.Logger, runID, projectName string, started time.Time) {
	if r.history == nil {
		return
	}
	if err := r.history.BeginRun(context.WithoutCancel(ctx), runID, projectName, started); err != nil {
		logging.WarnWithContext(logger, "record run start failed", "history_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run missing from history"),
		)
	}
}

func (r *Runner) finishHistory(ctx context.Context, logger *slog.Logger, summary Summary, runErr error) {
	if r.history == nil {
		return
	}
	outcome := summary.outcome()
	if runErr != nil {
		outcome.Error = runErr.Error()
	}
	if err := r.history.FinishRun(context.WithoutCancel(ctx), summary.RunID, outcome); err != nil {
		logging.WarnWithContext(logger, "record run outcome failed", "history_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history shows the run as unfinished"),
		)
	}
}

func (r *Runner) recordIngest(ctx context.Context, logger *slog.Logger, runID string, result ingest.Result) {
	for _, item := range result.Copied {
		r.record(ctx, logger, runID, history.StageIngest, item.Source.Path, true, item.Dest)
	}
	for _, failure := range result.Failed {
		r.record(ctx, logger, runID, history.StageIngest, failure.Source.Path, false, failure.Err.Error())
	}
}

func (r *Runner) recordAnnotate(ctx context.Context, logger *slog.Logger, runID string, result annotate.Result) {
	for _, clip := range result.Clips {
		r.record(ctx, logger, runID, history.StageAnnotate, clip.Source, true, clip.Output)
	}
	for _, failure := range result.Failed {
		r.record(ctx, logger, runID, history.StageAnnotate, failure.Source, false, failureDetail(failure))
	}
}

func failureDetail(f annotate.Failure) string {
	if f.Stderr == "" {
		return f.Err.Error()
	}
	return fmt.Sprintf("%v: %s", f.Err, f.Stderr)
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, runID, stage, path string, ok bool, detail string) {
	if r.history == nil {
		return
	}
	if err := r.history.RecordClip(context.WithoutCancel(ctx), runID, stage, path, ok, detail); err != nil {
		logger.Warn("record clip failed", logging.String("path", path), logging.Error(err))
	}
}
