//go:build !linux && !darwin

package fileutil

import (
	"fmt"
	"os"
	"time"
)

// Stat reports the modification time for path; birth time is not available
// on this platform.
func Stat(path string) (Times, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Times{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return Times{Access: info.ModTime(), Modify: info.ModTime()}, nil
}

func accessTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
