package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"clipreel/internal/config"
	"clipreel/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes every check for cfg.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{
		CheckReadableDirectory("Source directory", cfg.Paths.SourceDir),
		CheckWritableTarget("Backup directory", cfg.Paths.BackupDir),
		CheckWritableTarget("Compilations directory", cfg.Paths.CompilationsDir),
		CheckWritableTarget("State directory", cfg.Paths.StateDir),
	}
	if cfg.Encoder.FontFile != "" {
		results = append(results, CheckFontFile(cfg.Encoder.FontFile))
	}
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, FromDependency(status))
	}
	return results
}

// CheckSystemDeps evaluates the external binaries for cfg. ffprobe is
// optional when capture times come from the filesystem.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for annotation and concatenation",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Reads capture times from clip metadata",
			Optional:    cfg.Workflow.CaptureTime == config.CaptureTimeFilesystem,
		},
	})
}

// FromDependency converts a dependency status into a Result.
func FromDependency(status deps.Status) Result {
	detail := status.Detail
	if status.Available {
		detail = status.Path
	}
	return Result{Name: status.Name, Passed: status.Available, Detail: detail, Optional: status.Optional}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
// SD cards are often mounted read-only, so write access is not required.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckWritableTarget passes when path is a writable directory, or when it
// does not exist yet and its nearest existing ancestor is writable.
func CheckWritableTarget(name, path string) Result {
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}

	ancestor := filepath.Dir(path)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break
		}
		ancestor = parent
	}
	parentCheck := CheckDirectoryAccess(name, ancestor)
	if !parentCheck.Passed {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot be created under %s)", path, ancestor)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckFontFile verifies the configured drawtext font exists.
func CheckFontFile(path string) Result {
	const name = "Overlay font"
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a regular file)", path)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// Blocking returns the failed results that are not optional.
func Blocking(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
