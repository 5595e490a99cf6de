//go:build linux

package fileutil

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Stat reports access, modification and (where the filesystem records it)
// birth time for path using statx.
func Stat(path string) (Times, error) {
	var stx unix.Statx_t
	mask := unix.STATX_ATIME | unix.STATX_MTIME | unix.STATX_BTIME
	if err := unix.Statx(unix.AT_FDCWD, path, 0, mask, &stx); err != nil {
		info, statErr := os.Stat(path)
		if statErr != nil {
			return Times{}, fmt.Errorf("stat %s: %w", path, statErr)
		}
		return Times{Access: accessTime(info), Modify: info.ModTime()}, nil
	}
	times := Times{
		Access: statxTime(stx.Atime),
		Modify: statxTime(stx.Mtime),
	}
	if stx.Mask&unix.STATX_BTIME != 0 {
		times.Birth = statxTime(stx.Btime)
	}
	return times, nil
}

func statxTime(ts unix.StatxTimestamp) time.Time {
	return time.Unix(ts.Sec, int64(ts.Nsec))
}

func accessTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok && st != nil {
		return time.Unix(st.Atim.Unix())
	}
	return info.ModTime()
}
