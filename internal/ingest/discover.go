package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// SourceFile is a clip found on the card.
type SourceFile struct {
	Path    string
	RelPath string
	Size    int64
	ModTime time.Time
}

// PartialError collects entries the walk could not read. Discover returns it
// alongside the files it did find.
type PartialError struct {
	Errs []error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%d unreadable entries: %v", len(e.Errs), errors.Join(e.Errs...))
}

func (e *PartialError) Unwrap() []error {
	return e.Errs
}

// MatchExtension reports whether name ends in one of exts, ignoring case.
// exts carry their leading dot.
func MatchExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	if ext == "" {
		return false
	}
	for _, want := range exts {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// Discover walks root and returns the regular files matching exts sorted by
// relative path. A missing or unreadable root is an error; unreadable
// entries below it are reported through a *PartialError and skipped.
func Discover(root string, exts []string) ([]SourceFile, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve source root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("source root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root %s is not a directory", absRoot)
	}
	if len(exts) == 0 {
		exts = []string{".mp4"}
	}

	var (
		files    []SourceFile
		problems []error
	)
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			problems = append(problems, fmt.Errorf("%s: %w", path, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !MatchExtension(d.Name(), exts) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", path, err))
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", path, err))
			return nil
		}
		files = append(files, SourceFile{
			Path:    path,
			RelPath: rel,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan source root: %w", walkErr)
	}

	slices.SortStableFunc(files, func(a, b SourceFile) int {
		return strings.Compare(a.RelPath, b.RelPath)
	})
	if len(problems) > 0 {
		return files, &PartialError{Errs: problems}
	}
	return files, nil
}
