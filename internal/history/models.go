package history

import "time"

// Status is a run's final (or current) state.
type Status string

const (
	StatusRunning     Status = "running"
	StatusSucceeded   Status = "succeeded"
	StatusPartial     Status = "partial"
	StatusNothingToDo Status = "empty"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// Stage names used for clip records.
const (
	StageIngest   = "ingest"
	StageAnnotate = "annotate"
	StageConcat   = "concat"
)

// Outcome is recorded when a run finishes.
type Outcome struct {
	Status         Status
	Copied         int
	Skipped        int
	IngestFailed   int
	Annotated      int
	AnnotateFailed int
	BytesCopied    int64
	OutputPath     string
	Compiled       bool
	Elapsed        time.Duration
	Error          string
}

// Run is a stored run.
type Run struct {
	ID         string
	Project    string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome
}

// Clip is a per-file record within a run.
type Clip struct {
	ID         int64
	RunID      string
	Stage      string
	Path       string
	OK         bool
	Detail     string
	RecordedAt time.Time
}
