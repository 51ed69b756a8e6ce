package watch

import (
	"strings"
	"time"
)

// Flag represents a single bit in the set of flags carried by an Event. Flags
// are combinable: an Event carries a Flag value that is the bitwise OR of one
// or more of the constants below.
type Flag uint32

const (
	// FlagPlatformSpecific is a catch-all for backend-native signals with no
	// portable meaning.
	FlagPlatformSpecific Flag = 1 << iota
	// FlagCreated indicates that a path was created.
	FlagCreated
	// FlagUpdated indicates that a path's content was modified.
	FlagUpdated
	// FlagRemoved indicates that a path was removed.
	FlagRemoved
	// FlagRenamed indicates that a path was renamed (source side).
	FlagRenamed
	// FlagOwnerModified indicates that a path's owner or group changed.
	FlagOwnerModified
	// FlagAttributeModified indicates that a path's metadata (other than
	// ownership) changed.
	FlagAttributeModified
	// FlagIsFile classifies the event's path as a regular file.
	FlagIsFile
	// FlagIsDir classifies the event's path as a directory.
	FlagIsDir
	// FlagIsSymLink classifies the event's path as a symbolic link.
	FlagIsSymLink
	// FlagLink indicates a change to a path's hard link count.
	FlagLink
)

// flagNames gives the stable wire-level name for each flag, in the order
// that Flag.String enumerates them.
var flagNames = []struct {
	flag Flag
	name string
}{
	{FlagPlatformSpecific, "PlatformSpecific"},
	{FlagCreated, "Created"},
	{FlagUpdated, "Updated"},
	{FlagRemoved, "Removed"},
	{FlagRenamed, "Renamed"},
	{FlagOwnerModified, "OwnerModified"},
	{FlagAttributeModified, "AttributeModified"},
	{FlagIsFile, "IsFile"},
	{FlagIsDir, "IsDir"},
	{FlagIsSymLink, "IsSymLink"},
	{FlagLink, "Link"},
}

// Has reports whether f contains every bit set in other.
func (f Flag) Has(other Flag) bool {
	return f&other == other
}

// Empty reports whether f has no flags set.
func (f Flag) Empty() bool {
	return f == 0
}

// String renders f as its space-separated textual form, listing flag names
// in taxonomy order.
func (f Flag) String() string {
	var names []string
	for _, entry := range flagNames {
		if f.Has(entry.flag) {
			names = append(names, entry.name)
		}
	}
	return strings.Join(names, " ")
}

// Mask returns the numeric form of f: the sum of the ordinals of its set
// flags, for wire consumers that want a plain integer rather than a bitmask
// object.
func (f Flag) Mask() uint64 {
	var sum uint64
	for _, entry := range flagNames {
		if f.Has(entry.flag) {
			sum += uint64(entry.flag)
		}
	}
	return sum
}

// Event is an immutable record of a single filesystem change. Once
// constructed, an Event's fields must not be mutated; consumers that need to
// retain one past the callback's return should treat it as a value to copy,
// not a pointer to alias.
type Event struct {
	// Path is the absolute path the event pertains to.
	Path string
	// Time is the wall-clock time the event's batch was stamped, truncated
	// to second resolution.
	Time time.Time
	// Flags is the non-empty set of flags describing the change.
	Flags Flag
}

// newEvent constructs an Event, truncating t to second resolution per the
// wire contract ("wall-clock seconds since epoch").
func newEvent(path string, t time.Time, flags Flag) Event {
	return Event{
		Path:  path,
		Time:  time.Unix(t.Unix(), 0),
		Flags: flags,
	}
}
