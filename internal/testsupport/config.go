package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"clipreel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The source directory is created empty; everything else is left for the
// code under test to create.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceDir = filepath.Join(base, "sdcard", "DCIM")
	cfgVal.Paths.BackupDir = filepath.Join(base, "backup")
	cfgVal.Paths.CompilationsDir = filepath.Join(base, "backup", "Compilations")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.RunLog = filepath.Join(base, "video_compilation.log")
	cfgVal.Workflow.CaptureTime = config.CaptureTimeFilesystem

	if err := os.MkdirAll(cfgVal.Paths.SourceDir, 0o755); err != nil {
		t.Fatalf("mkdir source dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithCaptureTime overrides the capture time policy.
func WithCaptureTime(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.CaptureTime = policy
	}
}

// WithKeepTemp sets workflow.keep_temp.
func WithKeepTemp(keep bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.KeepTemp = keep
	}
}

// WithFakeFFmpeg installs FakeFFmpeg as the configured ffmpeg binary.
func WithFakeFFmpeg() ConfigOption {
	return WithFFmpegScript(FakeFFmpeg)
}

// WithFFmpegScript writes script as an executable and points
// encoder.ffmpeg_binary at it.
func WithFFmpegScript(script string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Encoder.FFmpegBinary = writeScript(b.t, filepath.Join(b.baseDir, "bin", "ffmpeg"), script)
	}
}

// WithFFprobeScript writes script as an executable and points
// encoder.ffprobe_binary at it.
func WithFFprobeScript(script string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Encoder.FFprobeBinary = writeScript(b.t, filepath.Join(b.baseDir, "bin", "ffprobe"), script)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "path-bin")
		for _, name := range names {
			writeScript(b.t, filepath.Join(binDir, name), "#!/bin/sh\nexit 0\n")
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

func writeScript(t testing.TB, path, script string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", path, err)
	}
	return path
}
