// +build darwin

package pathutil

import (
	"golang.org/x/sys/unix"
)

// extractTimes is a convenience function for extracting the modification and
// change time specifications from a Stat_t structure. Darwin names these
// fields differently than other POSIX platforms.
func extractTimes(metadata *unix.Stat_t) (mtime, ctime unix.Timespec) {
	return metadata.Mtimespec, metadata.Ctimespec
}
