// +build !windows,!darwin

package pathutil

import (
	"golang.org/x/sys/unix"
)

// extractTimes is a convenience function for extracting the modification and
// change time specifications from a Stat_t structure. It's necessary since
// not all POSIX platforms use the same struct field names for these values.
func extractTimes(metadata *unix.Stat_t) (mtime, ctime unix.Timespec) {
	return metadata.Mtim, metadata.Ctim
}
