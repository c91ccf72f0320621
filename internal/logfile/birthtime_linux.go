//go:build linux

package logfile

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// creationTime returns the birth time of path, falling back to the
// modification time on filesystems that do not record it.
func creationTime(path string) (time.Time, error) {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME|unix.STATX_MTIME, &stx)
	if err == nil && stx.Mask&unix.STATX_BTIME != 0 {
		return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), nil
	}

	info, serr := os.Lstat(path)
	if serr != nil {
		return time.Time{}, serr
	}
	return info.ModTime(), nil
}
