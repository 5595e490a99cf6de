package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clipreel/internal/config"
	"clipreel/internal/testsupport"
)

var (
	morningClip   = time.Date(2024, time.November, 2, 9, 0, 0, 0, time.Local)
	afternoonClip = time.Date(2024, time.November, 2, 15, 30, 0, 0, time.Local)
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("CLIPREEL_SOURCE_DIR", "")
	t.Setenv("CLIPREEL_BACKUP_DIR", "")

	configPath := filepath.Join(base, "clipreel.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func (env *cliTestEnv) seedCard(t *testing.T) {
	t.Helper()
	testsupport.WriteClip(t, filepath.Join(env.cfg.Paths.SourceDir, "100GOPRO", "GX010001.mp4"), 48, afternoonClip)
	testsupport.WriteClip(t, filepath.Join(env.cfg.Paths.SourceDir, "100GOPRO", "GX010002.mp4"), 24, morningClip)
}

func runCLI(t *testing.T, args []string, configPath string, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var in io.Reader = strings.NewReader(stdin)
	cmd.SetIn(in)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\nsource_dir = %q\nbackup_dir = %q\ncompilations_dir = %q\nstate_dir = %q\nrun_log = %q\n\n",
		cfg.Paths.SourceDir,
		cfg.Paths.BackupDir,
		cfg.Paths.CompilationsDir,
		cfg.Paths.StateDir,
		cfg.Paths.RunLog,
	)
	b.WriteString("[encoder]\n")
	if cfg.Encoder.FFmpegBinary != "" {
		fmt.Fprintf(&b, "ffmpeg_binary = %q\n", cfg.Encoder.FFmpegBinary)
	}
	fmt.Fprintf(&b, "\n[workflow]\ncapture_time = %q\nkeep_temp = %t\n", cfg.Workflow.CaptureTime, cfg.Workflow.KeepTemp)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
