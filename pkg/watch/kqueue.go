// +build darwin dragonfly freebsd netbsd openbsd

package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/fswatcher-go/fswatcher/pkg/must"
)

// fd is a raw file descriptor adapted to io.Closer so that it can be closed
// through must.Close, which logs rather than silently dropping a close
// failure on an owned descriptor.
type fd int

// Close implements io.Closer.
func (f fd) Close() error {
	return unix.Close(int(f))
}

// openMode is used to open a path for the sole purpose of registering it
// with the kernel event queue; the descriptor is never read from or written
// to.
const openMode = unix.O_RDONLY | unix.O_NONBLOCK | unix.O_CLOEXEC

// noteInterest is the full set of NOTE_* categories the monitor registers
// interest in, per the spec's "delete, write, extend, attribute, link,
// rename, revoke" list.
const noteInterest = unix.NOTE_DELETE | unix.NOTE_WRITE | unix.NOTE_EXTEND |
	unix.NOTE_ATTRIB | unix.NOTE_LINK | unix.NOTE_RENAME | unix.NOTE_REVOKE

// descriptorEntry is the Descriptor Entry data model: a bijective pairing of
// path and descriptor, plus the file mode captured at watch time.
type descriptorEntry struct {
	path        string
	descriptor  int
	isDirectory bool
	isSymlink   bool
}

// KqueueMonitor is the descriptor-per-file watcher driven by a BSD/Darwin
// kqueue. It maintains an accurate descriptor table as the watched tree
// mutates, translating native kevent notifications into portable Events.
type KqueueMonitor struct {
	*base

	kq        int
	closepipe [2]int
	pipeOnce  sync.Once

	tableMu           sync.Mutex
	descriptorsByPath map[string]int
	pathsByDescriptor map[int]descriptorEntry
	toRemove          map[int]struct{}
	toRescan          map[int]struct{}
}

// NewKqueueMonitor constructs a kernel-queue monitor. Run must be called
// exactly once. It returns ErrBackendUnavailable only via the factory on
// platforms where this file is not compiled; on platforms where it is
// compiled, construction always succeeds (failure to open the kqueue itself
// surfaces from Run as ErrResourceExhausted).
func NewKqueueMonitor(options Options, handler EventHandler, metrics *Metrics) (*KqueueMonitor, error) {
	b, err := newBase(options, handler, metrics)
	if err != nil {
		return nil, err
	}
	return &KqueueMonitor{
		base:              b,
		descriptorsByPath: make(map[string]int),
		pathsByDescriptor: make(map[int]descriptorEntry),
		toRemove:          make(map[int]struct{}),
		toRescan:          make(map[int]struct{}),
	}, nil
}

// Run implements Monitor.Run.
func (m *KqueueMonitor) Run() error {
	if err := m.markRunning(); err != nil {
		return err
	}
	if err := m.compileFilters(); err != nil {
		return err
	}

	kq, closepipe, err := newKqueueHandle()
	if err != nil {
		return errors.Wrap(ErrResourceExhausted, err.Error())
	}
	m.kq = kq
	m.closepipe = closepipe
	defer func() {
		// Close every descriptor still watched through the same drain that
		// handles removals, then release the queue and the self-pipe read end.
		m.tableMu.Lock()
		for descriptor := range m.pathsByDescriptor {
			m.toRemove[descriptor] = struct{}{}
		}
		m.tableMu.Unlock()
		m.drainRemovals()
		must.Close(fd(m.kq), m.logger)
		must.Close(fd(m.closepipe[0]), m.logger)
	}()

	for _, root := range m.options.Paths {
		m.scanRoot(root)
	}

	timeout := m.options.effectiveLatency(MinSpinLatency)

	for {
		if m.isShuttingDown() {
			return nil
		}

		// 1. Drain to_remove: close each descriptor, erase from all tables.
		m.drainRemovals()

		// 2. Drain to_rescan: re-run scan on each directory still live.
		m.drainRescans()

		// 3. If no roots remain, terminate.
		m.tableMu.Lock()
		remaining := len(m.descriptorsByPath)
		m.tableMu.Unlock()
		if remaining == 0 {
			return nil
		}

		// 4. Wait on the kernel queue.
		kevents, err := m.wait(timeout)
		if err != nil {
			if err == errShutdownRequested {
				return nil
			}
			return errors.Wrap(ErrBackendFatal, err.Error())
		}

		// 5-6. Translate raw events, apply table-maintenance policy, and
		// build the outgoing batch.
		batch := m.translate(kevents)

		// 7. Deliver.
		if err := m.deliver(batch); err != nil {
			return err
		}
		m.metrics.observeCycle()
		m.tableMu.Lock()
		m.metrics.setOpenDescriptors(len(m.pathsByDescriptor))
		m.tableMu.Unlock()
	}
}

// Shutdown implements Monitor.Shutdown, additionally interrupting a blocked
// kevent wait by closing the write end of the self-pipe registered in
// newKqueueHandle.
func (m *KqueueMonitor) Shutdown() {
	m.base.Shutdown()
	m.pipeOnce.Do(func() {
		if m.closepipe[1] != 0 {
			unix.Close(m.closepipe[1])
		}
	})
}

// newKqueueHandle opens a kernel event queue and registers a self-pipe on it
// so that a blocking wait can be interrupted by closing the pipe, rather than
// only ever timing out.
func newKqueueHandle() (kq int, closepipe [2]int, err error) {
	kq, err = unix.Kqueue()
	if err != nil {
		return -1, closepipe, err
	}

	if err = unix.Pipe(closepipe[:]); err != nil {
		unix.Close(kq)
		return -1, closepipe, err
	}
	unix.CloseOnExec(closepipe[0])
	unix.CloseOnExec(closepipe[1])

	changes := make([]unix.Kevent_t, 1)
	unix.SetKevent(&changes[0], closepipe[0], unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE)
	if _, err = unix.Kevent(kq, changes, nil, nil); err != nil {
		unix.Close(kq)
		unix.Close(closepipe[0])
		unix.Close(closepipe[1])
		return -1, closepipe, err
	}

	return kq, closepipe, nil
}

// errShutdownRequested is a sentinel returned by wait to distinguish a
// self-pipe wakeup (orderly shutdown) from a genuine kqueue failure.
var errShutdownRequested = errors.New("shutdown requested")

// wait blocks on the kernel event queue for up to timeout seconds, returning
// the batch of raw kevents it observed (excluding the self-pipe wakeup
// event, which instead yields errShutdownRequested).
func (m *KqueueMonitor) wait(timeout float64) ([]unix.Kevent_t, error) {
	spec := unix.NsecToTimespec(int64(timeout * float64(time.Second)))
	buffer := make([]unix.Kevent_t, 64)

	for {
		n, err := unix.Kevent(m.kq, nil, buffer, &spec)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return nil, err
		}

		result := make([]unix.Kevent_t, 0, n)
		for i := 0; i < n; i++ {
			if int(buffer[i].Ident) == m.closepipe[0] {
				return nil, errShutdownRequested
			}
			result = append(result, buffer[i])
		}
		return result, nil
	}
}

// scanRoot performs the initial add-watch traversal of a configured root,
// using an explicit work stack as the polling monitor does.
func (m *KqueueMonitor) scanRoot(root string) {
	m.scan(root, 0)
}

// scan adds a watch for path and, if it is a directory, its immediate
// children (recursively, if configured). Re-scanning an already-watched
// path is a no-op for that path, so calling scan again on a directory only
// discovers new children, per the rescan contract.
func (m *KqueueMonitor) scan(path string, depth int) {
	stack := []scanItem{{path: path, depth: depth}}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		m.tableMu.Lock()
		_, alreadyWatched := m.descriptorsByPath[item.path]
		m.tableMu.Unlock()

		info, err := os.Lstat(item.path)
		if err != nil {
			if !os.IsNotExist(err) {
				m.logger.Warnf("unable to stat '%s': %s", item.path, err.Error())
			}
			continue
		}

		if !m.accept(item.path) {
			continue
		}

		var entry descriptorEntry
		if !alreadyWatched {
			entry, err = m.addWatch(item.path, info)
			if err != nil {
				m.logger.Warnf("unable to watch '%s': %s", item.path, err.Error())
				continue
			}
		} else {
			m.tableMu.Lock()
			entry = m.pathsByDescriptor[m.descriptorsByPath[item.path]]
			m.tableMu.Unlock()
		}

		if entry.isDirectory && (item.depth == 0 || m.options.Recursive) {
			children, err := os.ReadDir(item.path)
			if err != nil {
				m.logger.Warnf("unable to read directory '%s': %s", item.path, err.Error())
				continue
			}
			for _, child := range children {
				name := child.Name()
				if name == "." || name == ".." {
					continue
				}
				stack = append(stack, scanItem{
					path:  filepath.Join(item.path, name),
					depth: item.depth + 1,
				})
			}
		}
	}
}

// addWatch opens path and registers it with the kernel event queue,
// inserting it into all three descriptor tables. Calling addWatch on an
// already-watched path is a no-op (idempotence of add-watch).
func (m *KqueueMonitor) addWatch(path string, info os.FileInfo) (descriptorEntry, error) {
	m.tableMu.Lock()
	if fd, ok := m.descriptorsByPath[path]; ok {
		entry := m.pathsByDescriptor[fd]
		m.tableMu.Unlock()
		return entry, nil
	}
	m.tableMu.Unlock()

	fd, err := unix.Open(path, openMode, 0)
	if err != nil {
		return descriptorEntry{}, err
	}

	changes := make([]unix.Kevent_t, 1)
	unix.SetKevent(&changes[0], fd, unix.EVFILT_VNODE, unix.EV_ADD|unix.EV_CLEAR|unix.EV_ENABLE)
	changes[0].Fflags = noteInterest
	if _, err := unix.Kevent(m.kq, changes, nil, nil); err != nil {
		unix.Close(fd)
		return descriptorEntry{}, err
	}

	entry := descriptorEntry{
		path:        path,
		descriptor:  fd,
		isDirectory: info.IsDir(),
		isSymlink:   info.Mode()&os.ModeSymlink != 0,
	}

	m.tableMu.Lock()
	m.descriptorsByPath[path] = fd
	m.pathsByDescriptor[fd] = entry
	m.tableMu.Unlock()

	return entry, nil
}

// drainRemovals closes and erases every descriptor queued in to_remove.
// This is the single close site for owned descriptors, preventing the
// double-close bug the design notes warn about.
func (m *KqueueMonitor) drainRemovals() {
	m.tableMu.Lock()
	pending := m.toRemove
	m.toRemove = make(map[int]struct{})
	m.tableMu.Unlock()

	for fd := range pending {
		m.tableMu.Lock()
		entry, ok := m.pathsByDescriptor[fd]
		if ok {
			delete(m.pathsByDescriptor, fd)
			delete(m.descriptorsByPath, entry.path)
		}
		m.tableMu.Unlock()

		unix.Close(fd)
	}
}

// drainRescans re-scans every directory queued in to_rescan that is still
// live, discovering new children without disturbing existing watches.
// Children discovered this way are watched from then on; no Created event is
// emitted for them.
func (m *KqueueMonitor) drainRescans() {
	m.tableMu.Lock()
	pending := m.toRescan
	m.toRescan = make(map[int]struct{})
	m.tableMu.Unlock()

	for fd := range pending {
		m.tableMu.Lock()
		entry, ok := m.pathsByDescriptor[fd]
		m.tableMu.Unlock()
		if !ok {
			continue
		}
		// A root keeps depth 0 so that its immediate children are discovered
		// even when the monitor is not recursive.
		depth := 1
		for _, root := range m.options.Paths {
			if root == entry.path {
				depth = 0
				break
			}
		}
		m.scan(entry.path, depth)
	}
}

// translate converts a batch of raw kevents into portable Events, applying
// the per-flag table-maintenance policy (queuing removals and rescans) along
// the way.
func (m *KqueueMonitor) translate(kevents []unix.Kevent_t) []Event {
	if len(kevents) == 0 {
		return nil
	}

	currentTime := time.Now()
	batch := make([]Event, 0, len(kevents))

	for _, kevent := range kevents {
		fd := int(kevent.Ident)

		m.tableMu.Lock()
		entry, known := m.pathsByDescriptor[fd]
		m.tableMu.Unlock()
		if !known {
			continue
		}

		flags := translateNoteMask(uint32(kevent.Fflags))
		if flags.Empty() {
			continue
		}

		if entry.isSymlink {
			flags |= FlagIsSymLink
		} else if entry.isDirectory {
			flags |= FlagIsDir
		} else {
			flags |= FlagIsFile
		}

		batch = append(batch, newEvent(entry.path, currentTime, flags))

		removal := flags.Has(FlagRemoved) || flags.Has(FlagRenamed)
		if removal {
			m.tableMu.Lock()
			m.toRemove[fd] = struct{}{}
			m.tableMu.Unlock()

			if entry.isDirectory {
				m.enqueueParentRescan(entry.path)
			}
		} else if entry.isDirectory && (flags.Has(FlagUpdated) || flags.Has(FlagAttributeModified) || flags.Has(FlagOwnerModified)) {
			m.tableMu.Lock()
			m.toRescan[fd] = struct{}{}
			m.tableMu.Unlock()
		}
	}

	return batch
}

// enqueueParentRescan queues the parent directory of path (if it is
// currently watched) for a rescan, so that a replacement created at the same
// name is discovered on the next cycle.
func (m *KqueueMonitor) enqueueParentRescan(path string) {
	parent := filepath.Dir(path)

	m.tableMu.Lock()
	defer m.tableMu.Unlock()

	if fd, ok := m.descriptorsByPath[parent]; ok {
		m.toRescan[fd] = struct{}{}
	}
}

// translateNoteMask translates a kqueue NOTE_* fflags mask into the portable
// flag set.
func translateNoteMask(mask uint32) Flag {
	var flags Flag
	if mask&unix.NOTE_DELETE != 0 {
		flags |= FlagRemoved
	}
	if mask&unix.NOTE_REVOKE != 0 {
		flags |= FlagRemoved
	}
	if mask&unix.NOTE_WRITE != 0 {
		flags |= FlagUpdated
	}
	if mask&unix.NOTE_EXTEND != 0 {
		flags |= FlagUpdated
	}
	if mask&unix.NOTE_ATTRIB != 0 {
		flags |= FlagAttributeModified
	}
	if mask&unix.NOTE_LINK != 0 {
		flags |= FlagLink
	}
	if mask&unix.NOTE_RENAME != 0 {
		flags |= FlagRenamed
	}
	// A removal takes precedence over a write: if it's gone, it's gone.
	if flags.Has(FlagRemoved) {
		flags &^= FlagUpdated
	}
	return flags
}
