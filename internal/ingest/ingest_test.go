package ingest_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipreel/internal/ingest"
	"clipreel/internal/ledger"
	"clipreel/internal/logging"
)

func writeFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
}

func openLedger(t *testing.T, dir string) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(filepath.Join(dir, ledger.FileName))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestDiscoverFiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "C.MP4"), "c", time.Time{})
	writeFile(t, filepath.Join(root, "A.mp4"), "a", time.Time{})
	writeFile(t, filepath.Join(root, "notes.txt"), "n", time.Time{})
	writeFile(t, filepath.Join(root, "a", "B.mp4"), "b", time.Time{})

	files, err := ingest.Discover(root, []string{".mp4"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	var rels []string
	for _, f := range files {
		rels = append(rels, f.RelPath)
		if !filepath.IsAbs(f.Path) {
			t.Errorf("expected absolute path, got %q", f.Path)
		}
	}
	want := []string{"A.mp4", filepath.Join("a", "B.mp4"), filepath.Join("b", "C.MP4")}
	if strings.Join(rels, ",") != strings.Join(want, ",") {
		t.Fatalf("RelPaths = %v, want %v", rels, want)
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	if _, err := ingest.Discover(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestMatchExtension(t *testing.T) {
	exts := []string{".mp4", ".mov"}
	cases := map[string]bool{
		"clip.mp4":  true,
		"CLIP.MOV":  true,
		"clip.mkv":  false,
		"mp4":       false,
		"clip.mp4x": false,
	}
	for name, want := range cases {
		if got := ingest.MatchExtension(name, exts); got != want {
			t.Errorf("MatchExtension(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestRunCopiesMirrorsAndPreservesTimes(t *testing.T) {
	root := t.TempDir()
	backup := t.TempDir()
	dest := filepath.Join(backup, "Test")
	mtime := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(root, "100MEDIA", "A.mp4"), "aaaa", mtime)
	writeFile(t, filepath.Join(root, "B.mp4"), "bb", mtime.Add(-time.Hour))

	l := openLedger(t, backup)
	var events []ingest.Event
	var buf bytes.Buffer
	logger, _ := logging.New(logging.Options{Writer: &buf})
	stage := ingest.NewStage(l, []string{".mp4"}, logger, ingest.WithEventHook(func(e ingest.Event) {
		events = append(events, e)
	}))

	result, err := stage.Run(context.Background(), root, dest)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Copied) != 2 || len(result.Skipped) != 0 || len(result.Failed) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Bytes != 6 {
		t.Fatalf("Bytes = %d, want 6", result.Bytes)
	}
	if len(events) != 2 || events[0].Kind != ingest.EventCopied {
		t.Fatalf("unexpected events: %+v", events)
	}

	copied := filepath.Join(dest, "100MEDIA", "A.mp4")
	data, err := os.ReadFile(copied)
	if err != nil || string(data) != "aaaa" {
		t.Fatalf("mirrored copy missing or wrong: %q, %v", data, err)
	}
	info, err := os.Stat(copied)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Fatalf("mtime = %v, want %v", info.ModTime(), mtime)
	}
	if got := strings.Count(buf.String(), "ingest: Copied"); got != 2 {
		t.Fatalf("expected 2 Copied log lines, got %d in %q", got, buf.String())
	}
	for _, src := range []string{filepath.Join(root, "100MEDIA", "A.mp4"), filepath.Join(root, "B.mp4")} {
		if !l.IsProcessed(src) {
			t.Errorf("expected %s in ledger", src)
		}
	}
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	root := t.TempDir()
	backup := t.TempDir()
	dest := filepath.Join(backup, "Test")
	writeFile(t, filepath.Join(root, "A.mp4"), "a", time.Time{})
	writeFile(t, filepath.Join(root, "B.mp4"), "b", time.Time{})

	ledgerPath := filepath.Join(backup, ledger.FileName)
	first := openLedger(t, backup)
	if _, err := ingest.NewStage(first, nil, nil).Run(context.Background(), root, dest); err != nil {
		t.Fatal(err)
	}
	_ = first.Close()
	before, err := os.ReadFile(ledgerPath)
	if err != nil {
		t.Fatal(err)
	}

	// A backup copy removed between runs must not be recreated.
	if err := os.Remove(filepath.Join(dest, "A.mp4")); err != nil {
		t.Fatal(err)
	}

	second := openLedger(t, backup)
	result, err := ingest.NewStage(second, nil, nil).Run(context.Background(), root, dest)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Copied) != 0 || len(result.Skipped) != 2 {
		t.Fatalf("second run result: %+v", result)
	}
	_ = second.Close()
	after, err := os.ReadFile(ledgerPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatalf("ledger changed:\nbefore=%q\nafter=%q", before, after)
	}
	if _, err := os.Stat(filepath.Join(dest, "A.mp4")); !os.IsNotExist(err) {
		t.Fatalf("skipped file should not be copied again, stat err = %v", err)
	}
}

type failingLedger struct {
	marked []string
}

func (f *failingLedger) IsProcessed(string) bool { return false }

func (f *failingLedger) MarkProcessed(path string) error {
	if strings.HasSuffix(path, "A.mp4") {
		return errors.New("disk full")
	}
	f.marked = append(f.marked, path)
	return nil
}

func TestRunContinuesAfterFailure(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(t.TempDir(), "Test")
	writeFile(t, filepath.Join(root, "A.mp4"), "a", time.Time{})
	writeFile(t, filepath.Join(root, "B.mp4"), "b", time.Time{})

	fl := &failingLedger{}
	result, err := ingest.NewStage(fl, nil, nil).Run(context.Background(), root, dest)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Failed) != 1 || len(result.Copied) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Failed[0].Source.RelPath != "A.mp4" {
		t.Fatalf("unexpected failure: %+v", result.Failed[0])
	}
	if len(fl.marked) != 1 || !strings.HasSuffix(fl.marked[0], "B.mp4") {
		t.Fatalf("marked = %v", fl.marked)
	}
}

func TestRunMissingSourceRoot(t *testing.T) {
	l := openLedger(t, t.TempDir())
	if _, err := ingest.NewStage(l, nil, nil).Run(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir()); err == nil {
		t.Fatal("expected error for missing source root")
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "A.mp4"), "a", time.Time{})
	l := openLedger(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := ingest.NewStage(l, nil, nil).Run(ctx, root, t.TempDir())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Copied) != 0 {
		t.Fatalf("expected no copies after cancellation, got %+v", result)
	}
}
