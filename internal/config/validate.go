package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.SourceDir == "" {
		return errors.New("paths.source_dir must be set")
	}
	if c.Paths.BackupDir == "" {
		return errors.New("paths.backup_dir must be set")
	}
	if c.Paths.CompilationsDir == "" {
		return errors.New("paths.compilations_dir must be set")
	}
	if c.Paths.SourceDir == c.Paths.BackupDir {
		return errors.New("paths.source_dir and paths.backup_dir must differ")
	}
	if rel, err := filepath.Rel(c.Paths.SourceDir, c.Paths.BackupDir); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("paths.backup_dir %q must not live inside paths.source_dir", c.Paths.BackupDir)
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.CRF < 0 || c.Encoder.CRF > 51 {
		return fmt.Errorf("encoder.crf must be between 0 and 51, got %d", c.Encoder.CRF)
	}
	switch c.Encoder.ConcatMode {
	case ConcatModeReencode, ConcatModeCopy:
	default:
		return fmt.Errorf("encoder.concat_mode must be %q or %q, got %q", ConcatModeReencode, ConcatModeCopy, c.Encoder.ConcatMode)
	}
	if c.Encoder.X < 0 || c.Encoder.Y < 0 {
		return errors.New("encoder.x and encoder.y must be non-negative")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	switch c.Workflow.CaptureTime {
	case CaptureTimeMetadata, CaptureTimeFilesystem:
	default:
		return fmt.Errorf("workflow.capture_time must be %q or %q, got %q", CaptureTimeMetadata, CaptureTimeFilesystem, c.Workflow.CaptureTime)
	}
	return nil
}
