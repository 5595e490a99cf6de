// Package runreport keeps the per-run log file and the closing elapsed-time
// summary.
package runreport

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"clipreel/internal/logging"
)

// DefaultFileName is the run log written in the working directory.
const DefaultFileName = "video_compilation.log"

// Report tees log output to the console and the run log.
type Report struct {
	path    string
	file    *os.File
	logger  *slog.Logger
	started time.Time
	now     func() time.Time
	once    sync.Once
	err     error
}

// Open truncates (or creates) the run log at path and returns a Report whose
// Logger writes to both console and the file. A nil console logs to the
// file only.
func Open(path string, console *slog.Logger) (*Report, error) {
	if path == "" {
		path = DefaultFileName
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create run log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	fileHandler, err := logging.NewHandler(logging.Options{Format: "console", Level: "info", Writer: file})
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &Report{
		path:    path,
		file:    file,
		logger:  logging.TeeLogger(console, fileHandler),
		started: time.Now(),
		now:     time.Now,
	}, nil
}

// Path returns the run log location.
func (r *Report) Path() string {
	return r.path
}

// Logger returns the console+file logger.
func (r *Report) Logger() *slog.Logger {
	return r.logger
}

// Started returns when the report was opened.
func (r *Report) Started() time.Time {
	return r.started
}

// Elapsed returns the time since Open.
func (r *Report) Elapsed() time.Duration {
	return r.now().Sub(r.started)
}

// Finish logs the total processing time, then syncs and closes the run log.
// Later calls return the first result.
func (r *Report) Finish() error {
	r.once.Do(func() {
		elapsed := r.Elapsed()
		r.logger.Info("Total processing time: "+FormatElapsed(elapsed),
			logging.Duration("elapsed", elapsed.Round(time.Millisecond)),
		)
		if err := r.file.Sync(); err != nil {
			r.err = fmt.Errorf("sync run log: %w", err)
		}
		if err := r.file.Close(); err != nil && r.err == nil {
			r.err = fmt.Errorf("close run log: %w", err)
		}
		r.logger = logging.NewNop()
	})
	return r.err
}

// FormatElapsed renders d as "1h 2m 3s", truncated to whole seconds.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
