package pipeline

import (
	"time"

	"clipreel/internal/annotate"
	"clipreel/internal/history"
	"clipreel/internal/ingest"
	"clipreel/internal/project"
)

// Summary describes a finished run.
type Summary struct {
	RunID       string
	Layout      project.Layout
	Ingest      ingest.Result
	Annotate    annotate.Result
	Entries     int
	Concat      ConcatOutcome
	TempRemoved bool
	Elapsed     time.Duration
	Status      history.Status
}

// ConcatOutcome describes the concatenation step.
type ConcatOutcome struct {
	Attempted bool
	Compiled  bool
	Output    string
	Size      int64
	Err       error
	Stderr    string
}

func (s Summary) status(interrupted bool) history.Status {
	failures := len(s.Ingest.Failed) + len(s.Annotate.Failed)
	switch {
	case interrupted:
		return history.StatusInterrupted
	case s.Concat.Attempted && !s.Concat.Compiled:
		return history.StatusFailed
	case !s.Concat.Attempted && failures == 0:
		return history.StatusNothingToDo
	case !s.Concat.Attempted:
		return history.StatusFailed
	case failures > 0:
		return history.StatusPartial
	default:
		return history.StatusSucceeded
	}
}

func (s Summary) outcome() history.Outcome {
	outcome := history.Outcome{
		Status:         s.Status,
		Copied:         len(s.Ingest.Copied),
		Skipped:        len(s.Ingest.Skipped),
		IngestFailed:   len(s.Ingest.Failed),
		Annotated:      len(s.Annotate.Clips),
		AnnotateFailed: len(s.Annotate.Failed),
		BytesCopied:    s.Ingest.Bytes,
		Compiled:       s.Concat.Compiled,
		Elapsed:        s.Elapsed,
	}
	if s.Concat.Attempted {
		outcome.OutputPath = s.Concat.Output
	}
	if s.Concat.Err != nil {
		outcome.Error = s.Concat.Err.Error()
	}
	return outcome
}
