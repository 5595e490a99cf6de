// Package project validates project names and derives the on-disk layout
// for a project's backups, working files and compilation.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// TmpDirName is the working directory inside a project's backup dir.
	TmpDirName = "tmp"
	// ManifestName is the concat manifest inside the working directory.
	ManifestName = "file_list.txt"
	// CompilationsDirName is the default compilations directory name.
	CompilationsDirName = "Compilations"
	// AnnotatedPrefix is prepended to annotated clip names.
	AnnotatedPrefix = "pre_"
	// OutputExt is the compilation file extension.
	OutputExt = ".mp4"
)

// ErrInvalidName reports a project name that cannot be used.
var ErrInvalidName = errors.New("invalid project name")

// ErrOverlapsSource reports a project backup dir that shares files with the
// source card.
var ErrOverlapsSource = errors.New("project backup dir overlaps source dir")

var reservedNames = []string{CompilationsDirName, TmpDirName}

// Normalize trims and NFC-normalizes name and rejects names that would
// escape or collide with the backup layout.
func Normalize(name string) (string, error) {
	cleaned := norm.NFC.String(strings.TrimSpace(name))
	switch {
	case cleaned == "":
		return "", fmt.Errorf("%w: name is empty", ErrInvalidName)
	case cleaned == "." || cleaned == "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidName, cleaned)
	case strings.ContainsAny(cleaned, `/\`+"\x00"):
		return "", fmt.Errorf("%w: %q contains a path separator or NUL", ErrInvalidName, cleaned)
	}
	for _, reserved := range reservedNames {
		if strings.EqualFold(cleaned, reserved) {
			return "", fmt.Errorf("%w: %q is reserved", ErrInvalidName, cleaned)
		}
	}
	return cleaned, nil
}

// Layout locates everything a run reads or writes for one project.
type Layout struct {
	Name            string
	BackupRoot      string
	BackupDir       string
	TmpDir          string
	Manifest        string
	CompilationsDir string
	Output          string
}

// NewLayout normalizes name and derives its paths. An empty compilationsDir
// means <backupRoot>/Compilations.
func NewLayout(backupRoot, compilationsDir, name string) (Layout, error) {
	normalized, err := Normalize(name)
	if err != nil {
		return Layout{}, err
	}
	if strings.TrimSpace(backupRoot) == "" {
		return Layout{}, errors.New("backup root is empty")
	}
	if compilationsDir == "" {
		compilationsDir = filepath.Join(backupRoot, CompilationsDirName)
	}
	backupDir := filepath.Join(backupRoot, normalized)
	tmpDir := filepath.Join(backupDir, TmpDirName)
	return Layout{
		Name:            normalized,
		BackupRoot:      backupRoot,
		BackupDir:       backupDir,
		TmpDir:          tmpDir,
		Manifest:        filepath.Join(tmpDir, ManifestName),
		CompilationsDir: compilationsDir,
		Output:          filepath.Join(compilationsDir, normalized+OutputExt),
	}, nil
}

// CheckSource rejects a layout whose backup dir is sourceDir, lies inside
// it, or contains it. Any of those would make ingest copy clips onto
// themselves and annotate pick the card's clips up as backups.
func (l Layout) CheckSource(sourceDir string) error {
	if strings.TrimSpace(sourceDir) == "" {
		return nil
	}
	backup, err := filepath.Abs(l.BackupDir)
	if err != nil {
		return err
	}
	source, err := filepath.Abs(sourceDir)
	if err != nil {
		return err
	}
	if within(backup, source) || within(source, backup) {
		return fmt.Errorf("%w: %s and %s", ErrOverlapsSource, backup, source)
	}
	return nil
}

// within reports whether child is parent or a path below it. Both must be
// absolute.
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Ensure creates the compilations and working directories (and with them
// the project backup dir).
func (l Layout) Ensure() error {
	for _, dir := range []string{l.CompilationsDir, l.TmpDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// RemoveTmp deletes the working directory and everything in it.
func (l Layout) RemoveTmp() error {
	if err := os.RemoveAll(l.TmpDir); err != nil {
		return fmt.Errorf("remove %s: %w", l.TmpDir, err)
	}
	return nil
}
