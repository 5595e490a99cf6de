// Package manifest orders annotated clips by their original capture time and
// writes the ffmpeg concat list that joins them.
package manifest

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

	"clipreel/internal/annotate"
	"clipreel/internal/fileutil"
	"clipreel/internal/ingest"
	"clipreel/internal/logging"
	"clipreel/internal/media/capturetime"
)

// Entry is one line of the concat list.
type Entry struct {
	Path     string
	Source   string
	Captured time.Time
}

// Resolver looks up capture times for backup copies that have no lineage.
type Resolver interface {
	Resolve(ctx context.Context, path string) (capturetime.Capture, error)
}

// Collector rebuilds the clip order from the working directory.
type Collector struct {
	exts     []string
	resolver Resolver
	logger   *slog.Logger
}

// NewCollector returns a Collector.
func NewCollector(exts []string, resolver Resolver, logger *slog.Logger) *Collector {
	return &Collector{exts: exts, resolver: resolver, logger: logging.NewComponentLogger(logger, "manifest")}
}

// Collect scans tmpDir's annotated clips and orders them by the capture time
// of the backup copy each was derived from. Clips missing from lineage are
// matched to a backup file in backupDir by stripping the annotated prefix;
// clips whose origin cannot be found are skipped with a warning.
func (c *Collector) Collect(ctx context.Context, tmpDir, backupDir string, lineage annotate.Lineage) ([]Entry, error) {
	files, err := ingest.Discover(tmpDir, c.exts)
	var partial *ingest.PartialError
	if err != nil && !errors.As(err, &partial) {
		return nil, fmt.Errorf("scan working directory: %w", err)
	}

	var index map[string][]string
	entries := make([]Entry, 0, len(files))
	for _, file := range files {
		if origin, ok := lineage[file.Path]; ok {
			entries = append(entries, Entry{Path: file.Path, Source: origin.Source, Captured: origin.Captured})
			continue
		}

		if index == nil {
			index = c.indexBackups(backupDir, tmpDir)
		}
		entry, ok := c.recover(ctx, file.Path, index)
		if !ok {
			logging.WarnWithContext(c.logger, "annotated clip has no known origin", "manifest_orphan",
				logging.String("path", file.Path),
				logging.String(logging.FieldImpact, "clip left out of the compilation"),
				logging.String(logging.FieldErrorHint, "delete the working directory to rebuild it"),
			)
			continue
		}
		entries = append(entries, entry)
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Or(a.Captured.Compare(b.Captured), strings.Compare(a.Path, b.Path))
	})
	return entries, nil
}

// indexBackups maps base names to backup copies outside tmpDir.
func (c *Collector) indexBackups(backupDir, tmpDir string) map[string][]string {
	index := make(map[string][]string)
	files, err := ingest.Discover(backupDir, c.exts)
	var partial *ingest.PartialError
	if err != nil && !errors.As(err, &partial) {
		c.logger.Warn("scan backup directory failed", logging.Error(err))
		return index
	}
	for _, file := range files {
		if rel, err := filepath.Rel(tmpDir, file.Path); err == nil && !strings.HasPrefix(rel, "..") {
			continue
		}
		name := filepath.Base(file.Path)
		index[name] = append(index[name], file.Path)
	}
	return index
}

func (c *Collector) recover(ctx context.Context, annotated string, index map[string][]string) (Entry, bool) {
	for _, name := range annotate.OriginalNames(filepath.Base(annotated)) {
		sources := index[name]
		if len(sources) != 1 {
			continue
		}
		capture, err := c.resolver.Resolve(ctx, sources[0])
		if err != nil {
			c.logger.Debug("capture time lookup failed", logging.String("path", sources[0]), logging.Error(err))
			continue
		}
		c.logger.Debug("recovered origin",
			logging.String("path", annotated),
			logging.String("source", sources[0]),
		)
		return Entry{Path: annotated, Source: sources[0], Captured: capture.Time}, true
	}
	return Entry{}, false
}

// QuotePath renders path as a concat-list file directive.
func QuotePath(path string) string {
	return "file '" + strings.ReplaceAll(path, "'", `'\''`) + "'"
}

// Render returns the manifest text for entries.
func Render(entries []Entry) []byte {
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(QuotePath(entry.Path))
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Write atomically replaces the manifest at path. Entry paths must be
// absolute.
func Write(path string, entries []Entry) error {
	for _, entry := range entries {
		if !filepath.IsAbs(entry.Path) {
			return fmt.Errorf("manifest entry %q is not absolute", entry.Path)
		}
		if strings.ContainsAny(entry.Path, "\n\r") {
			return fmt.Errorf("manifest entry %q contains a line break", entry.Path)
		}
	}
	if err := fileutil.WriteFileAtomic(path, Render(entries), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Len counts the entries in an existing manifest.
func Len(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "file ") {
			count++
		}
	}
	return count, nil
}
