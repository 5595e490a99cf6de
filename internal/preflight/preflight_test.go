package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"clipreel/internal/config"
	"clipreel/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
	if result := CheckReadableDirectory("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckWritableTargetMissingDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "Compilations")
	result := CheckWritableTarget("Compilations", target)
	if !result.Passed {
		t.Fatalf("expected creatable target to pass, got: %s", result.Detail)
	}
}

func TestCheckFontFile(t *testing.T) {
	font := filepath.Join(t.TempDir(), "Arial.ttf")
	if err := os.WriteFile(font, []byte("font"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckFontFile(font); !r.Passed {
		t.Fatalf("expected font check to pass: %s", r.Detail)
	}
	if r := CheckFontFile(filepath.Dir(font)); r.Passed {
		t.Fatal("expected directory to fail font check")
	}
	if r := CheckFontFile(filepath.Join(filepath.Dir(font), "missing.ttf")); r.Passed {
		t.Fatal("expected missing font to fail")
	}
}

func TestRunAllWithStubbedBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	results := RunAll(cfg)
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d: %+v", len(results), results)
	}
	if blocking := Blocking(results); len(blocking) != 0 {
		t.Fatalf("expected all checks to pass, blocking: %+v", blocking)
	}
}

func TestRunAllReportsMissingSourceAndFFmpeg(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.SourceDir = filepath.Join(t.TempDir(), "no-card")
	cfg.Encoder.FFmpegBinary = "clearly-not-present-ffmpeg"
	cfg.Encoder.FFprobeBinary = "clearly-not-present-ffprobe"

	blocking := Blocking(RunAll(cfg))
	names := map[string]bool{}
	for _, r := range blocking {
		names[r.Name] = true
	}
	if !names["Source directory"] || !names["FFmpeg"] {
		t.Fatalf("expected source and ffmpeg failures, got %+v", blocking)
	}
	if names["FFprobe"] {
		t.Fatal("ffprobe should be optional under the filesystem capture policy")
	}
	if cfg.Workflow.CaptureTime != config.CaptureTimeFilesystem {
		t.Fatalf("unexpected capture policy %q", cfg.Workflow.CaptureTime)
	}
}
