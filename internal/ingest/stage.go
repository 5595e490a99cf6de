// Package ingest copies unseen clips from the SD card into the project's
// backup directory, mirroring the card's directory layout and recording each
// copied source in the ledger.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"clipreel/internal/fileutil"
	"clipreel/internal/logging"
)

// Ledger is the idempotency record consulted before each copy.
type Ledger interface {
	IsProcessed(path string) bool
	MarkProcessed(path string) error
}

// EventKind classifies a per-file outcome.
type EventKind string

const (
	EventCopied  EventKind = "copied"
	EventSkipped EventKind = "skipped"
	EventFailed  EventKind = "failed"
)

// Event is emitted once per discovered file.
type Event struct {
	Kind   EventKind
	Source SourceFile
	Dest   string
	Err    error
}

// Item pairs a source with its backup copy.
type Item struct {
	Source SourceFile
	Dest   string
}

// Failure records a file that could not be ingested.
type Failure struct {
	Source SourceFile
	Err    error
}

// Result summarizes one ingest pass.
type Result struct {
	Discovered int
	Copied     []Item
	Skipped    []Item
	Failed     []Failure
	Bytes      int64
}

// Stage copies new source files.
type Stage struct {
	ledger  Ledger
	exts    []string
	logger  *slog.Logger
	onEvent func(Event)
	onStart func(total int)
}

// Option configures a Stage.
type Option func(*Stage)

// WithEventHook calls fn after each file is handled.
func WithEventHook(fn func(Event)) Option {
	return func(s *Stage) { s.onEvent = fn }
}

// WithStartHook calls fn with the number of discovered files before copying.
func WithStartHook(fn func(total int)) Option {
	return func(s *Stage) { s.onStart = fn }
}

// NewStage builds an ingest stage.
func NewStage(ledger Ledger, exts []string, logger *slog.Logger, opts ...Option) *Stage {
	s := &Stage{
		ledger: ledger,
		exts:   exts,
		logger: logging.NewComponentLogger(logger, "ingest"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run copies every unseen file under root into destDir. Only a missing or
// unreadable root returns an error; per-file failures are logged and
// reported in the Result.
func (s *Stage) Run(ctx context.Context, root, destDir string) (Result, error) {
	files, err := Discover(root, s.exts)
	var partial *PartialError
	if errors.As(err, &partial) {
		for _, problem := range partial.Errs {
			logging.WarnWithContext(s.logger, "unreadable source entry", "source_unreadable",
				logging.Error(problem),
				logging.String(logging.FieldImpact, "entry skipped"),
			)
		}
	} else if err != nil {
		return Result{}, err
	}

	result := Result{Discovered: len(files)}
	s.logger.Info("scanned source", logging.String("root", root), logging.Int("files", len(files)))
	if s.onStart != nil {
		s.onStart(len(files))
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("ingest interrupted", logging.Error(err))
			break
		}
		dest := filepath.Join(destDir, file.RelPath)

		if s.ledger.IsProcessed(file.Path) {
			s.logger.Debug("Skipped", logging.String("source", file.Path))
			result.Skipped = append(result.Skipped, Item{Source: file, Dest: dest})
			s.emit(Event{Kind: EventSkipped, Source: file, Dest: dest})
			continue
		}

		written, err := s.copyOne(file, dest)
		if err != nil {
			logging.WarnWithContext(s.logger, "copy failed", "copy_failed",
				logging.String("source", file.Path),
				logging.String("dest", dest),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check free space and permissions on the backup drive"),
				logging.String(logging.FieldImpact, "clip not backed up; it will be retried next run"),
			)
			result.Failed = append(result.Failed, Failure{Source: file, Err: err})
			s.emit(Event{Kind: EventFailed, Source: file, Dest: dest, Err: err})
			continue
		}

		result.Bytes += written
		result.Copied = append(result.Copied, Item{Source: file, Dest: dest})
		s.logger.Info("Copied",
			logging.String("source", file.Path),
			logging.String("dest", dest),
			logging.String("size", humanize.Bytes(uint64(written))),
		)
		s.emit(Event{Kind: EventCopied, Source: file, Dest: dest})
	}

	s.logger.Info("ingest complete",
		logging.Int("copied", len(result.Copied)),
		logging.Int("skipped", len(result.Skipped)),
		logging.Int("failed", len(result.Failed)),
		logging.String("bytes", humanize.Bytes(uint64(result.Bytes))),
	)
	return result, nil
}

func (s *Stage) copyOne(file SourceFile, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create backup directory: %w", err)
	}
	written, err := fileutil.CopyPreserving(file.Path, dest)
	if err != nil {
		return 0, err
	}
	if err := s.ledger.MarkProcessed(file.Path); err != nil {
		// The copy is intact; leaving it means the next run overwrites it
		// with identical bytes.
		return 0, fmt.Errorf("record in ledger: %w", err)
	}
	return written, nil
}

func (s *Stage) emit(event Event) {
	if s.onEvent != nil {
		s.onEvent(event)
	}
}
