// Package annotate burns each backup clip's capture time into a re-encoded
// copy in the project's working directory.
package annotate

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"clipreel/internal/encoder"
	"clipreel/internal/ingest"
	"clipreel/internal/logging"
	"clipreel/internal/media/capturetime"
	"clipreel/internal/overlay"
	"clipreel/internal/project"
)

const stderrTailLines = 5

// Encoder runs the per-clip ffmpeg call. *encoder.Runner satisfies it.
type Encoder interface {
	Annotate(ctx context.Context, in, out, text string) encoder.Result
}

// Resolver looks up capture times. *capturetime.Resolver satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, path string) (capturetime.Capture, error)
}

// Origin is the backup copy an annotated clip was made from.
type Origin struct {
	Source   string
	Captured time.Time
}

// Lineage maps annotated clip paths to their origins.
type Lineage map[string]Origin

// Clip is a successfully annotated clip.
type Clip struct {
	Source   string
	Output   string
	Captured time.Time
	Text     string
}

// Failure records a clip that could not be annotated.
type Failure struct {
	Source string
	Err    error
	Stderr string
}

// Result summarizes one annotation pass.
type Result struct {
	Clips   []Clip
	Failed  []Failure
	Lineage Lineage
}

// Stage annotates every clip in a project's backup directory.
type Stage struct {
	encoder  Encoder
	resolver Resolver
	prefix   string
	exts     []string
	logger   *slog.Logger
	onStart  func(total int)
	onDone   func(source string, ok bool)
}

// Option configures a Stage.
type Option func(*Stage)

// WithProgress registers hooks called before the first clip and after each.
func WithProgress(start func(total int), done func(source string, ok bool)) Option {
	return func(s *Stage) {
		s.onStart = start
		s.onDone = done
	}
}

// NewStage builds an annotation stage. prefix is prepended to the caption.
func NewStage(enc Encoder, resolver Resolver, prefix string, exts []string, logger *slog.Logger, opts ...Option) *Stage {
	s := &Stage{
		encoder:  enc,
		resolver: resolver,
		prefix:   prefix,
		exts:     exts,
		logger:   logging.NewComponentLogger(logger, "annotate"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type pending struct {
	source   string
	captured time.Time
}

// Run annotates the clips under backupDir (skipping tmpDir) into tmpDir in
// capture order. Only an unreadable backupDir returns an error.
func (s *Stage) Run(ctx context.Context, backupDir, tmpDir string) (Result, error) {
	files, err := ingest.Discover(backupDir, s.exts)
	var partial *ingest.PartialError
	if err != nil && !errors.As(err, &partial) {
		return Result{}, fmt.Errorf("scan backup directory: %w", err)
	}
	if partial != nil {
		for _, problem := range partial.Errs {
			logging.WarnWithContext(s.logger, "unreadable backup entry", "backup_unreadable", logging.Error(problem))
		}
	}

	result := Result{Lineage: make(Lineage)}
	queue := make([]pending, 0, len(files))
	for _, file := range files {
		if withinDir(tmpDir, file.Path) {
			continue
		}
		capture, err := s.resolver.Resolve(ctx, file.Path)
		if err != nil {
			if ctx.Err() != nil {
				return result, nil
			}
			s.fail(&result, file.Path, fmt.Errorf("capture time: %w", err), "")
			continue
		}
		queue = append(queue, pending{source: file.Path, captured: capture.Time})
	}
	slices.SortStableFunc(queue, func(a, b pending) int {
		return cmp.Or(a.captured.Compare(b.captured), strings.Compare(a.source, b.source))
	})

	names := outputNames(queue)
	s.logger.Info("annotating clips", logging.Int("clips", len(queue)), logging.String("tmp_dir", tmpDir))
	if s.onStart != nil {
		s.onStart(len(queue))
	}

	for i, item := range queue {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("annotation interrupted", logging.Error(err))
			break
		}
		out := filepath.Join(tmpDir, names[i])
		text := overlay.Text(item.captured, s.prefix)

		s.logger.Info("Annotating",
			logging.String("source", item.source),
			logging.String("output", out),
			logging.String("caption", text),
		)
		res := s.encoder.Annotate(ctx, item.source, out, overlay.EscapeDrawtext(text))
		if !res.Succeeded() {
			if res.OutputExists {
				_ = os.Remove(out)
			}
			s.fail(&result, item.source, res.Failure(), res.StderrTail(stderrTailLines))
			if s.onDone != nil {
				s.onDone(item.source, false)
			}
			continue
		}

		result.Clips = append(result.Clips, Clip{Source: item.source, Output: out, Captured: item.captured, Text: text})
		result.Lineage[out] = Origin{Source: item.source, Captured: item.captured}
		s.logger.Info("Annotated", logging.String("output", out))
		if s.onDone != nil {
			s.onDone(item.source, true)
		}
	}

	s.logger.Info("annotation complete",
		logging.Int("annotated", len(result.Clips)),
		logging.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func (s *Stage) fail(result *Result, source string, err error, stderr string) {
	attrs := []logging.Attr{
		logging.String("source", source),
		logging.Error(err),
		logging.String(logging.FieldImpact, "clip left out of the compilation"),
	}
	if stderr != "" {
		attrs = append(attrs, logging.String("stderr", stderr))
	}
	logging.WarnWithContext(s.logger, "annotation failed", "annotate_failed", attrs...)
	result.Failed = append(result.Failed, Failure{Source: source, Err: err, Stderr: stderr})
}

func outputNames(queue []pending) []string {
	sources := make([]string, len(queue))
	for i, item := range queue {
		sources[i] = item.source
	}
	return AnnotatedNames(sources)
}

// AnnotatedNames assigns pre_<name> to each source, switching to
// pre_<n>_<name> (n = 2, 3, ...) when an earlier source already claimed the
// name. Comparison ignores case so outputs stay distinct on case-insensitive
// filesystems.
func AnnotatedNames(sources []string) []string {
	names := make([]string, len(sources))
	used := make(map[string]struct{}, len(sources))
	for i, source := range sources {
		base := filepath.Base(source)
		name := project.AnnotatedPrefix + base
		for n := 2; ; n++ {
			if _, taken := used[strings.ToLower(name)]; !taken {
				break
			}
			name = fmt.Sprintf("%s%d_%s", project.AnnotatedPrefix, n, base)
		}
		used[strings.ToLower(name)] = struct{}{}
		names[i] = name
	}
	return names
}

// OriginalNames returns the base names an annotated file name may have been
// derived from, most likely first. It returns nil when name lacks the prefix.
func OriginalNames(name string) []string {
	rest, ok := strings.CutPrefix(name, project.AnnotatedPrefix)
	if !ok || rest == "" {
		return nil
	}
	candidates := []string{rest}
	if digits, base, found := strings.Cut(rest, "_"); found && base != "" && isDigits(digits) {
		candidates = append([]string{base}, candidates...)
	}
	return candidates
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func withinDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
