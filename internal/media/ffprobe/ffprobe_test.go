package ffprobe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCreationTimePrefersStreamTags(t *testing.T) {
	result, err := Parse([]byte(`{
		"streams": [
			{"index": 0, "codec_type": "video", "tags": {"creation_time": "2024-01-01T09:00:00.000000Z"}},
			{"index": 1, "codec_type": "audio"}
		],
		"format": {"duration": "12.5", "tags": {"creation_time": "2024-06-01T00:00:00.000000Z"}}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, ok := result.CreationTime()
	if !ok {
		t.Fatal("expected creation time")
	}
	want := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("CreationTime = %v, want %v", got, want)
	}
	if !result.HasVideo() {
		t.Fatal("expected video stream")
	}
	if result.DurationSeconds() != 12.5 {
		t.Fatalf("DurationSeconds = %v", result.DurationSeconds())
	}
}

func TestCreationTimeFallsBackToFormat(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "video", Tags: map[string]string{"creation_time": "garbage"}}},
		Format:  Format{Tags: map[string]string{"CREATION_TIME": "2023-05-06T07:08:09Z"}},
	}
	got, ok := result.CreationTime()
	if !ok {
		t.Fatal("expected creation time from format tags")
	}
	if want := time.Date(2023, time.May, 6, 7, 8, 9, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("CreationTime = %v, want %v", got, want)
	}
}

func TestCreationTimeMissingOrZero(t *testing.T) {
	cases := []Result{
		{},
		{Format: Format{Tags: map[string]string{"encoder": "Lavf"}}},
		{Format: Format{Tags: map[string]string{"creation_time": "1970-01-01T00:00:00.000000Z"}}},
	}
	for i, result := range cases {
		if _, ok := result.CreationTime(); ok {
			t.Errorf("case %d: expected no creation time", i)
		}
	}
}

func TestDurationSecondsInvalid(t *testing.T) {
	for _, value := range []string{"", "bad", "-3"} {
		if got := (Result{Format: Format{Duration: value}}).DurationSeconds(); got != 0 {
			t.Errorf("DurationSeconds(%q) = %v, want 0", value, got)
		}
	}
}

func TestInspectRunsBinary(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ffprobe")
	body := "#!/bin/sh\ncat <<'JSON'\n{\"streams\":[{\"codec_type\":\"video\",\"tags\":{\"creation_time\":\"2024-01-01T10:00:00.000000Z\"}}],\"format\":{}}\nJSON\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}

	result, err := Inspect(context.Background(), script, filepath.Join(dir, "clip.mp4"))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if _, ok := result.CreationTime(); !ok {
		t.Fatal("expected creation time from stub output")
	}
}

func TestInspectReportsFailure(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 'Invalid data found' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := Inspect(context.Background(), script, "clip.mp4"); err == nil {
		t.Fatal("expected error from failing ffprobe")
	}
	if _, err := Inspect(context.Background(), script, " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
