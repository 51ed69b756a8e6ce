// Package watch monitors filesystem paths and emits a portable stream of
// change events to a consumer callback. It abstracts over a stat-polling
// backend (PollMonitor) and a BSD/Darwin kqueue backend (KqueueMonitor)
// behind a single Monitor contract, and provides a Factory (New) that
// selects the best backend compiled in for the host.
//
// A per-platform kernel stream adapter (e.g. a native FSEvents-style
// notification stream) is not implemented by this package; such an adapter
// would sit behind the same Monitor interface and would translate its
// native flag bitmask into the portable Flag taxonomy according to the
// following table, preserved here for any future adapter to implement
// against without re-deriving it:
//
//	native signal           -> portable flag
//	item-created            -> FlagCreated
//	item-removed             -> FlagRemoved
//	item-renamed             -> FlagRenamed
//	item-modified            -> FlagUpdated
//	item-changed-owner       -> FlagOwnerModified
//	item-xattr-changed       -> FlagAttributeModified
//	item-is-file             -> FlagIsFile
//	item-is-dir              -> FlagIsDir
//	item-is-symlink          -> FlagIsSymLink
//	must-rescan, kernel-dropped, user-dropped, history-done, root-changed,
//	ids-wrapped, mount, unmount, inode-meta-mod, finder-info-mod, none
//	                         -> FlagPlatformSpecific
package watch
