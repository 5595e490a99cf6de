//go:build darwin

package fileutil

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Stat reports access, modification and birth time for path.
func Stat(path string) (Times, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Times{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return Times{
		Access: time.Unix(st.Atim.Unix()),
		Modify: time.Unix(st.Mtim.Unix()),
		Birth:  time.Unix(st.Btim.Unix()),
	}, nil
}

func accessTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok && st != nil {
		return time.Unix(st.Atimespec.Unix())
	}
	return info.ModTime()
}
