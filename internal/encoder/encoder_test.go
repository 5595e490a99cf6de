package encoder

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"clipreel/internal/config"
	"clipreel/internal/overlay"
	"clipreel/internal/testsupport"
)

func defaultSettings() Settings {
	cfg := config.Default()
	return FromConfig(&cfg)
}

func TestBuildAnnotateArgs(t *testing.T) {
	s := defaultSettings()
	args := BuildAnnotateArgs(s, "/backup/Test/A.mp4", "/backup/Test/tmp/pre_A.mp4", overlay.EscapeDrawtext("January 01, 2024 at 10:00am"))

	want := []string{
		"ffmpeg", "-hide_banner", "-nostdin", "-y", "-loglevel", "error",
		"-i", "/backup/Test/A.mp4",
		"-vf", `drawtext=text=January 01\, 2024 at 10\\:00am:x=100:y=100:fontcolor=white:fontsize=24:box=1:boxcolor=black@0.5`,
		"-c:v", "libx264", "-crf", "23", "-preset", "fast",
		"-c:a", "aac",
		"/backup/Test/tmp/pre_A.mp4",
	}
	if !slices.Equal(args, want) {
		t.Fatalf("args mismatch\n got: %q\nwant: %q", args, want)
	}
}

func TestDrawtextFilterFontFileAndNoBox(t *testing.T) {
	s := defaultSettings()
	s.FontFile = "/Library/Fonts/Arial Bold.ttf"
	s.Box = false
	s.X, s.Y = 10, 20

	got := DrawtextFilter(s, "hi")
	want := "drawtext=fontfile=/Library/Fonts/Arial Bold.ttf:text=hi:x=10:y=20:fontcolor=white:fontsize=24"
	if got != want {
		t.Fatalf("DrawtextFilter = %q, want %q", got, want)
	}

	s.FontFile = `C:\Fonts\arial.ttf`
	if got := DrawtextFilter(s, "hi"); !strings.HasPrefix(got, `drawtext=fontfile=C\\:\\\\Fonts\\\\arial.ttf:`) {
		t.Fatalf("font file not escaped: %q", got)
	}
}

func TestDrawtextFilterParsesBackToItsOptions(t *testing.T) {
	s := defaultSettings()
	s.FontFile = "/fonts/My: Font's,1.ttf"
	caption := "Nick's clip: January 05, 2024 at 9:07am (100%)"

	name, opts, err := testsupport.ParseFilterOptions(DrawtextFilter(s, overlay.EscapeDrawtext(caption)))
	if err != nil {
		t.Fatal(err)
	}
	if name != "drawtext" {
		t.Fatalf("filter name = %q", name)
	}
	if opts["fontfile"] != s.FontFile {
		t.Fatalf("fontfile = %q, want %q", opts["fontfile"], s.FontFile)
	}
	text, err := testsupport.ExpandDrawtext(opts["text"])
	if err != nil {
		t.Fatal(err)
	}
	if text != caption {
		t.Fatalf("text = %q, want %q", text, caption)
	}
	for key, want := range map[string]string{"x": "100", "y": "100", "fontcolor": "white", "fontsize": "24", "box": "1"} {
		if opts[key] != want {
			t.Errorf("%s = %q, want %q", key, opts[key], want)
		}
	}
}

func TestBuildConcatArgsModes(t *testing.T) {
	s := defaultSettings()
	s.Binary = "/opt/ffmpeg/bin/ffmpeg"

	reencode := BuildConcatArgs(s, "/tmp/file_list.txt", "/out/Test.mp4")
	wantReencode := []string{
		"/opt/ffmpeg/bin/ffmpeg", "-hide_banner", "-nostdin", "-y", "-loglevel", "error",
		"-f", "concat", "-safe", "0", "-i", "/tmp/file_list.txt",
		"-c:v", "libx264", "-crf", "23", "-preset", "fast", "-c:a", "aac",
		"/out/Test.mp4",
	}
	if !slices.Equal(reencode, wantReencode) {
		t.Fatalf("reencode args\n got: %q\nwant: %q", reencode, wantReencode)
	}

	s.ConcatMode = ConcatCopy
	copyArgs := BuildConcatArgs(s, "/tmp/file_list.txt", "/out/Test.mp4")
	if !slices.Contains(copyArgs, "copy") || slices.Contains(copyArgs, "libx264") {
		t.Fatalf("copy mode should stream copy, got %q", copyArgs)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunnerAnnotateSuccess(t *testing.T) {
	s := defaultSettings()
	s.Binary = writeScript(t, "for last; do :; done\nprintf 'encoded' > \"$last\"\n")
	out := filepath.Join(t.TempDir(), "pre_A.mp4")

	result := NewRunner(s, nil).Annotate(context.Background(), "in.mp4", out, "text")
	if !result.Succeeded() {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.OutputSize != int64(len("encoded")) {
		t.Fatalf("OutputSize = %d", result.OutputSize)
	}
	if result.Failure() != nil {
		t.Fatalf("Failure = %v", result.Failure())
	}
}

func TestRunnerReportsExitFailure(t *testing.T) {
	s := defaultSettings()
	s.Binary = writeScript(t, "echo 'line one' >&2\necho '' >&2\necho 'Invalid data found when processing input' >&2\nexit 1\n")
	out := filepath.Join(t.TempDir(), "pre_A.mp4")

	result := NewRunner(s, nil).Annotate(context.Background(), "in.mp4", out, "text")
	if result.Succeeded() || result.Err == nil {
		t.Fatalf("expected failure, got %+v", result)
	}
	if got := result.StderrTail(2); got != "line one | Invalid data found when processing input" {
		t.Fatalf("StderrTail = %q", got)
	}
	if got := result.StderrTail(1); got != "Invalid data found when processing input" {
		t.Fatalf("StderrTail(1) = %q", got)
	}
}

func TestRunnerConcatRequiresOutput(t *testing.T) {
	s := defaultSettings()
	s.Binary = writeScript(t, "exit 0\n")
	out := filepath.Join(t.TempDir(), "Test.mp4")

	result := NewRunner(s, nil).Concat(context.Background(), "file_list.txt", out)
	if result.Err != nil {
		t.Fatalf("unexpected process error: %v", result.Err)
	}
	if result.OutputExists || result.Succeeded() {
		t.Fatalf("expected missing output to fail, got %+v", result)
	}
	if result.Failure() == nil {
		t.Fatal("expected Failure to explain missing output")
	}
}

func TestRunnerEmptyOutputFails(t *testing.T) {
	s := defaultSettings()
	s.Binary = writeScript(t, "for last; do :; done\n: > \"$last\"\n")
	out := filepath.Join(t.TempDir(), "Test.mp4")

	result := NewRunner(s, nil).Concat(context.Background(), "file_list.txt", out)
	if !result.OutputExists || result.Succeeded() {
		t.Fatalf("expected empty output to fail, got %+v", result)
	}
}
