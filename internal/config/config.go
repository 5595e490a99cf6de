package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directory layout used by a run.
type Paths struct {
	SourceDir       string `toml:"source_dir"`
	BackupDir       string `toml:"backup_dir"`
	CompilationsDir string `toml:"compilations_dir"`
	StateDir        string `toml:"state_dir"`
	RunLog          string `toml:"run_log"`
}

// Ingest contains configuration for source discovery.
type Ingest struct {
	Extensions []string `toml:"extensions"`
}

// Encoder contains the ffmpeg invocation settings shared by the annotate and
// concatenate steps.
type Encoder struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	VideoCodec    string `toml:"video_codec"`
	AudioCodec    string `toml:"audio_codec"`
	CRF           int    `toml:"crf"`
	Preset        string `toml:"preset"`
	FontFile      string `toml:"font_file"`
	FontSize      int    `toml:"font_size"`
	FontColor     string `toml:"font_color"`
	X             int    `toml:"x"`
	Y             int    `toml:"y"`
	Box           bool   `toml:"box"`
	BoxColor      string `toml:"box_color"`
	TextPrefix    string `toml:"text_prefix"`
	// ConcatMode is "reencode" (same quality/preset as annotation) or "copy"
	// (stream copy, faster but requires identical stream parameters).
	ConcatMode string `toml:"concat_mode"`
}

// Workflow contains run behaviour switches.
type Workflow struct {
	// CaptureTime selects how a clip's original creation time is resolved:
	// "metadata" reads the container creation_time tag and falls back to the
	// filesystem, "filesystem" uses file timestamps only.
	CaptureTime      string `toml:"capture_time"`
	KeepTemp         bool   `toml:"keep_temp"`
	WatchPollSeconds int    `toml:"watch_poll_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipreel.
//
// Configuration sections by subsystem:
//   - Paths: SD card source, backup tree, compilations, state and run log
//   - Ingest: which files count as clips
//   - Encoder: ffmpeg binaries, quality, overlay style and concat mode
//   - Workflow: capture time policy, temp retention and watch polling
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Ingest   Ingest   `toml:"ingest"`
	Encoder  Encoder  `toml:"encoder"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipreel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories clipreel owns outright. The backup
// and compilation trees are created per run by the project layout so a
// missing cloud mount surfaces as a run failure instead of a config failure.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.StateDir, err)
	}
	return nil
}

// LedgerPath returns the processed-files ledger location inside the backup tree.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.BackupDir, ".processed_files.txt")
}

// HistoryPath returns the run history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the single-run lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "clipreel.lock")
}

// FFmpegBinary returns the ffmpeg executable used for annotation and concatenation.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Encoder.FFmpegBinary); bin != "" {
		return bin
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable used for capture time lookup.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Encoder.FFprobeBinary); bin != "" {
		return bin
	}
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
