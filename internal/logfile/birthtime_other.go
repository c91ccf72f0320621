//go:build !linux

package logfile

import (
	"os"
	"time"
)

// creationTime returns the modification time of path.
func creationTime(path string) (time.Time, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}
