// Package capturetime resolves when a clip was originally recorded.
package capturetime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clipreel/internal/fileutil"
	"clipreel/internal/logging"
	"clipreel/internal/media/ffprobe"
)

const (
	// PolicyMetadata reads the container creation_time tag and falls back to
	// the filesystem.
	PolicyMetadata = "metadata"
	// PolicyFilesystem uses filesystem timestamps only.
	PolicyFilesystem = "filesystem"
)

// Source names where a capture time came from.
type Source string

const (
	SourceMetadata   Source = "metadata"
	SourceFilesystem Source = "filesystem"
)

// Probe inspects a media file. ffprobe.Inspect satisfies it.
type Probe func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Resolver looks up capture times under a policy.
type Resolver struct {
	policy string
	binary string
	probe  Probe
	logger *slog.Logger
}

// Capture is a resolved capture time.
type Capture struct {
	Time   time.Time
	Source Source
}

// NewResolver builds a Resolver. An empty policy means PolicyMetadata; a nil
// probe uses ffprobe.Inspect.
func NewResolver(policy, ffprobeBinary string, probe Probe, logger *slog.Logger) (*Resolver, error) {
	policy = strings.ToLower(strings.TrimSpace(policy))
	switch policy {
	case "":
		policy = PolicyMetadata
	case PolicyMetadata, PolicyFilesystem:
	default:
		return nil, fmt.Errorf("capture time policy: unsupported value %q", policy)
	}
	if probe == nil {
		probe = ffprobe.Inspect
	}
	return &Resolver{
		policy: policy,
		binary: ffprobeBinary,
		probe:  probe,
		logger: logging.NewComponentLogger(logger, "capturetime"),
	}, nil
}

// Policy returns the active policy.
func (r *Resolver) Policy() string {
	return r.policy
}

// Resolve returns the capture time of path in local time.
func (r *Resolver) Resolve(ctx context.Context, path string) (Capture, error) {
	if r.policy == PolicyMetadata {
		result, err := r.probe(ctx, r.binary, path)
		if err == nil {
			if ts, ok := result.CreationTime(); ok {
				return Capture{Time: ts.Local(), Source: SourceMetadata}, nil
			}
			r.logger.Debug("no creation_time tag, using filesystem time", logging.String("path", path))
		} else {
			if ctx.Err() != nil {
				return Capture{}, ctx.Err()
			}
			r.logger.Debug("ffprobe failed, using filesystem time",
				logging.String("path", path),
				logging.Error(err),
			)
		}
	}
	ts, err := Filesystem(path)
	if err != nil {
		return Capture{}, err
	}
	return Capture{Time: ts, Source: SourceFilesystem}, nil
}

// Filesystem returns the earlier of path's birth and modification times in
// local time.
func Filesystem(path string) (time.Time, error) {
	times, err := fileutil.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("capture time: %w", err)
	}
	return times.Created().Local(), nil
}
