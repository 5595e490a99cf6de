// Package ledger records which source clips have already been copied off the
// SD card. The ledger is an append-only text file with one absolute source
// path per line; a path present in the file is never copied again.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileName is the ledger's name inside the backup root.
const FileName = ".processed_files.txt"

// Ledger is an open processed-files ledger.
type Ledger struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	seen    map[string]struct{}
	entries []string
}

// Open loads the ledger at path and opens it for appending. A missing file is
// an empty ledger; the file is created on open.
func Open(path string) (*Ledger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ledger path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	l := &Ledger{path: path, seen: make(map[string]struct{})}
	if err := l.load(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	l.file = file
	return l, nil
}

func (l *Ledger) load() error {
	file, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		l.remember(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ledger: %w", err)
	}
	return nil
}

func (l *Ledger) remember(path string) {
	if _, ok := l.seen[path]; ok {
		return
	}
	l.seen[path] = struct{}{}
	l.entries = append(l.entries, path)
}

// Path returns the ledger file location.
func (l *Ledger) Path() string {
	return l.path
}

// IsProcessed reports whether path is recorded. Matching is an exact
// full-line comparison.
func (l *Ledger) IsProcessed(path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[path]
	return ok
}

// MarkProcessed appends path to the ledger and syncs it to disk. Paths
// already present are left alone.
func (l *Ledger) MarkProcessed(path string) error {
	if path == "" || strings.ContainsAny(path, "\n\r") {
		return fmt.Errorf("ledger: invalid path %q", path)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return errors.New("ledger is closed")
	}
	if _, ok := l.seen[path]; ok {
		return nil
	}
	if _, err := l.file.WriteString(path + "\n"); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("sync ledger: %w", err)
	}
	l.remember(path)
	return nil
}

// Entries returns recorded paths in file order.
func (l *Ledger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// Len returns the number of recorded paths.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close releases the append handle. Calling Close more than once is safe.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
