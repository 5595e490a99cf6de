package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"clipreel/internal/logging"
)

// Result holds the outcome of a single ffmpeg invocation.
type Result struct {
	Args         []string
	Stderr       string
	Err          error
	OutputExists bool
	OutputSize   int64
}

// Succeeded reports whether ffmpeg exited cleanly and left a non-empty output.
func (r Result) Succeeded() bool {
	return r.Err == nil && r.OutputExists && r.OutputSize > 0
}

// Failure describes why the invocation did not succeed, or nil.
func (r Result) Failure() error {
	switch {
	case r.Err != nil:
		return r.Err
	case !r.OutputExists:
		return errors.New("ffmpeg exited successfully but produced no output file")
	case r.OutputSize == 0:
		return errors.New("ffmpeg produced an empty output file")
	default:
		return nil
	}
}

// StderrTail returns the last n non-empty stderr lines joined by " | ".
func (r Result) StderrTail(n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(r.Stderr), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append(kept, line)
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, " | ")
}

// Runner executes ffmpeg with fixed Settings.
type Runner struct {
	settings Settings
	logger   *slog.Logger
}

// NewRunner returns a Runner for settings.
func NewRunner(settings Settings, logger *slog.Logger) *Runner {
	return &Runner{settings: settings, logger: logging.NewComponentLogger(logger, "encoder")}
}

// Settings returns the runner's settings.
func (r *Runner) Settings() Settings {
	return r.settings
}

// Annotate burns text (already escaped) into in and writes out.
func (r *Runner) Annotate(ctx context.Context, in, out, text string) Result {
	return r.execute(ctx, BuildAnnotateArgs(r.settings, in, out, text), out)
}

// Concat joins the clips listed in manifest into out.
func (r *Runner) Concat(ctx context.Context, manifest, out string) Result {
	return r.execute(ctx, BuildConcatArgs(r.settings, manifest, out), out)
}

func (r *Runner) execute(ctx context.Context, args []string, out string) Result {
	r.logger.Debug("ffmpeg command", logging.String("command", strings.Join(args, " ")))

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("ffmpeg interrupted: %w", ctxErr)
		} else {
			err = fmt.Errorf("ffmpeg: %w", err)
		}
	}

	result := Result{Args: args, Stderr: stderr.String(), Err: err}
	if info, statErr := os.Stat(out); statErr == nil && info.Mode().IsRegular() {
		result.OutputExists = true
		result.OutputSize = info.Size()
	}
	return result
}
