// +build !windows

package pathutil

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// StatTimes lstat's path and returns its modification and change times, in
// seconds since the Unix epoch. Change time is the POSIX ctime: the last time
// the inode's metadata (not necessarily its content) changed. It has no
// equivalent on Windows; see stat_windows.go.
func StatTimes(path string) (mtimeSeconds, ctimeSeconds int64, err error) {
	var metadata unix.Stat_t
	if err = unix.Lstat(path, &metadata); err != nil {
		return 0, 0, errors.Wrap(err, "unable to stat path")
	}

	mtime, ctime := extractTimes(&metadata)
	return mtime.Sec, ctime.Sec, nil
}
