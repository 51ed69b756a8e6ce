// +build windows

package pathutil

import (
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// StatTimes stats path and returns its modification and change times, in
// seconds since the Unix epoch. Windows has no POSIX ctime notion, so this
// returns the same last-write time for both; watched-file records on Windows
// therefore cannot distinguish a pure metadata change (e.g. a permission
// change) from a content write. This is a documented platform limitation.
func StatTimes(path string) (mtimeSeconds, ctimeSeconds int64, err error) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, 0, errors.Wrap(err, "unable to stat path")
	}

	attributes, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return 0, 0, errors.New("unable to extract Windows file attributes")
	}

	seconds := attributes.LastWriteTime.Nanoseconds() / 1e9
	return seconds, seconds, nil
}
