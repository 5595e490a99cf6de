package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeEncoder()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("CLIPREEL_SOURCE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.SourceDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("CLIPREEL_BACKUP_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.BackupDir = strings.TrimSpace(value)
	}

	var err error
	if c.Paths.SourceDir, err = expandPath(strings.TrimSpace(c.Paths.SourceDir)); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if c.Paths.BackupDir, err = expandPath(strings.TrimSpace(c.Paths.BackupDir)); err != nil {
		return fmt.Errorf("paths.backup_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CompilationsDir) == "" && c.Paths.BackupDir != "" {
		c.Paths.CompilationsDir = filepath.Join(c.Paths.BackupDir, defaultCompilationsName)
	}
	if c.Paths.CompilationsDir, err = expandPath(strings.TrimSpace(c.Paths.CompilationsDir)); err != nil {
		return fmt.Errorf("paths.compilations_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.RunLog) == "" {
		c.Paths.RunLog = defaultRunLog
	}
	if c.Paths.RunLog, err = expandPath(strings.TrimSpace(c.Paths.RunLog)); err != nil {
		return fmt.Errorf("paths.run_log: %w", err)
	}
	return nil
}

func (c *Config) normalizeIngest() {
	exts := make([]string, 0, len(c.Ingest.Extensions))
	seen := make(map[string]struct{}, len(c.Ingest.Extensions))
	for _, ext := range c.Ingest.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = []string{defaultExtension}
	}
	c.Ingest.Extensions = exts
}

func (c *Config) normalizeEncoder() {
	c.Encoder.FFmpegBinary = strings.TrimSpace(c.Encoder.FFmpegBinary)
	c.Encoder.FFprobeBinary = strings.TrimSpace(c.Encoder.FFprobeBinary)
	c.Encoder.VideoCodec = strings.TrimSpace(c.Encoder.VideoCodec)
	if c.Encoder.VideoCodec == "" {
		c.Encoder.VideoCodec = defaultVideoCodec
	}
	c.Encoder.AudioCodec = strings.TrimSpace(c.Encoder.AudioCodec)
	if c.Encoder.AudioCodec == "" {
		c.Encoder.AudioCodec = defaultAudioCodec
	}
	c.Encoder.Preset = strings.ToLower(strings.TrimSpace(c.Encoder.Preset))
	if c.Encoder.Preset == "" {
		c.Encoder.Preset = defaultPreset
	}
	if c.Encoder.FontSize <= 0 {
		c.Encoder.FontSize = defaultFontSize
	}
	c.Encoder.FontColor = strings.TrimSpace(c.Encoder.FontColor)
	if c.Encoder.FontColor == "" {
		c.Encoder.FontColor = defaultFontColor
	}
	c.Encoder.BoxColor = strings.TrimSpace(c.Encoder.BoxColor)
	if c.Encoder.BoxColor == "" {
		c.Encoder.BoxColor = defaultBoxColor
	}
	c.Encoder.FontFile = strings.TrimSpace(c.Encoder.FontFile)
	if c.Encoder.FontFile != "" {
		if expanded, err := expandPath(c.Encoder.FontFile); err == nil {
			c.Encoder.FontFile = expanded
		}
	}
	c.Encoder.ConcatMode = strings.ToLower(strings.TrimSpace(c.Encoder.ConcatMode))
	if c.Encoder.ConcatMode == "" {
		c.Encoder.ConcatMode = defaultConcatMode
	}
}

func (c *Config) normalizeWorkflow() {
	c.Workflow.CaptureTime = strings.ToLower(strings.TrimSpace(c.Workflow.CaptureTime))
	if c.Workflow.CaptureTime == "" {
		c.Workflow.CaptureTime = defaultCaptureTime
	}
	if c.Workflow.WatchPollSeconds <= 0 {
		c.Workflow.WatchPollSeconds = defaultWatchPollSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
