package watch

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fswatcher-go/fswatcher/pkg/pathutil"
	"github.com/fswatcher-go/fswatcher/pkg/timeutil"
)

// fileRecord is the Watched-File Record tracked by the polling monitor:
// modification and change times, in seconds since the epoch.
type fileRecord struct {
	mtime int64
	ctime int64
}

// scanMode tags a scan as either the initial scan (populates previous,
// synthesizes no events) or a steady-state scan (populates new and diffs
// against previous). This replaces the initial/intermediate scan-callback
// function-pointer split with a single tagged parameter, since the two
// differ only in whether they populate previous or new and whether they
// synthesize events.
type scanMode int

const (
	scanInitial scanMode = iota
	scanSteady
)

// scanItem is one entry on the explicit traversal work stack. depth is
// tracked so that non-recursive monitors expand only the root's immediate
// children, never grandchildren.
type scanItem struct {
	path  string
	depth int
}

// PollMonitor is a stat-snapshot differ: it produces the monitor's event
// vocabulary from periodic stat snapshots when no kernel mechanism is
// available, or when explicitly requested via Options.
type PollMonitor struct {
	*base
}

// NewPollMonitor constructs a polling monitor. Run must be called exactly
// once.
func NewPollMonitor(options Options, handler EventHandler, metrics *Metrics) (*PollMonitor, error) {
	b, err := newBase(options, handler, metrics)
	if err != nil {
		return nil, err
	}
	return &PollMonitor{base: b}, nil
}

// Run implements Monitor.Run.
func (m *PollMonitor) Run() error {
	if err := m.markRunning(); err != nil {
		return err
	}
	if err := m.compileFilters(); err != nil {
		return err
	}

	// Initial scan: populate previous, synthesize no events.
	previous := make(map[string]fileRecord)
	for _, root := range m.options.Paths {
		m.scan(root, previous, scanInitial, nil, time.Time{}, nil)
	}

	interval := time.Duration(m.options.effectiveLatency(MinPollLatency) * float64(time.Second))
	timer := time.NewTimer(interval)
	defer timeutil.StopAndDrainTimer(timer)

	for {
		select {
		case <-m.shutdown:
			return nil
		case <-timer.C:
		}

		currentTime := time.Now()
		next := make(map[string]fileRecord)
		var batch []Event

		for _, root := range m.options.Paths {
			m.scan(root, next, scanSteady, previous, currentTime, &batch)
		}

		// Anything left in previous no longer exists.
		for path := range previous {
			batch = append(batch, newEvent(path, currentTime, FlagRemoved))
		}

		if err := m.deliver(batch); err != nil {
			return err
		}
		m.metrics.observeCycle()

		// Swap: previous is discarded, next is promoted, a fresh next is
		// allocated on the next iteration.
		previous = next

		timer.Reset(interval)
	}
}

// scan performs one traversal of root using an explicit work stack (so that
// arbitrarily deep trees cannot overflow the call stack), populating records
// and, in scanSteady mode, diffing against previous and appending synthesized
// events to batch.
func (m *PollMonitor) scan(
	root string,
	records map[string]fileRecord,
	mode scanMode,
	previous map[string]fileRecord,
	currentTime time.Time,
	batch *[]Event,
) {
	stack := []scanItem{{path: root, depth: 0}}
	expanded := make(map[string]bool)

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// Prevent re-visiting a path already recorded this cycle.
		if _, exists := records[item.path]; exists {
			continue
		}

		info, err := os.Lstat(item.path)
		if err != nil {
			// Transient stat failure (including non-existence): drop this
			// path for the cycle without aborting the cycle. Non-existence
			// is routine and is not logged.
			if !os.IsNotExist(err) {
				m.logger.Warnf("unable to stat '%s': %s", item.path, err.Error())
			}
			continue
		}

		classification := classify(info)
		targetInfo := info
		expandPath := item.path

		if classification == FlagIsSymLink {
			if !m.options.FollowSymlinks {
				// Record and classify the link itself; do not descend.
			} else if target, err := filepath.EvalSymlinks(item.path); err == nil {
				if resolved, err := os.Stat(target); err == nil {
					targetInfo = resolved
					expandPath = target
					if resolved.IsDir() {
						classification = FlagIsDir
					} else {
						classification = FlagIsFile
					}
				}
			}
		}

		if !m.accept(item.path) {
			continue
		}

		mtimeSeconds, ctimeSeconds, err := pathutil.StatTimes(item.path)
		if err != nil {
			continue
		}
		record := fileRecord{mtime: mtimeSeconds, ctime: ctimeSeconds}
		records[item.path] = record

		// The root path itself is tracked for presence, so its removal and
		// reappearance are still detected as Removed/Created, but its
		// mtime/ctime are never diffed against the previous snapshot: a root
		// is the thing being watched, not a watched child, and its own
		// metadata routinely changes as an incidental side effect of
		// children being added or removed beneath it. Diffing it for
		// Updated/AttributeModified would turn every child create/remove
		// into an extra, redundant event on the root.
		if mode == scanSteady {
			m.diff(item.path, record, classification, previous, currentTime, batch, item.depth == 0)
		}

		if targetInfo.IsDir() && (item.depth == 0 || m.options.Recursive) {
			// A directory reached again through a followed symbolic link is
			// not expanded a second time, which guards against symlink
			// cycles during recursive follow.
			if expanded[expandPath] {
				continue
			}
			expanded[expandPath] = true

			entries, err := os.ReadDir(expandPath)
			if err != nil {
				m.logger.Warnf("unable to read directory '%s': %s", expandPath, err.Error())
				continue
			}
			for _, entry := range entries {
				name := entry.Name()
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

// diff compares a freshly recorded path against the previous snapshot and
// appends the resulting event (if any) to batch. A path absent from previous
// always yields Created, regardless of suppressMetadataDiff, so that a root
// which disappears and later reappears still generates a Created event. When
// suppressMetadataDiff is set (the root path itself), an existing entry is
// consumed from previous but never compared for Updated/AttributeModified.
func (m *PollMonitor) diff(
	path string,
	record fileRecord,
	classification Flag,
	previous map[string]fileRecord,
	currentTime time.Time,
	batch *[]Event,
	suppressMetadataDiff bool,
) {
	previousRecord, existed := previous[path]
	if !existed {
		*batch = append(*batch, newEvent(path, currentTime, FlagCreated|classification))
		return
	}

	// Consumed: this path accounts for one entry of previous.
	delete(previous, path)

	if suppressMetadataDiff {
		return
	}

	var flags Flag
	if record.mtime > previousRecord.mtime {
		flags |= FlagUpdated
	}
	if record.ctime > previousRecord.ctime {
		flags |= FlagAttributeModified
	}

	if flags != 0 {
		*batch = append(*batch, newEvent(path, currentTime, flags|classification))
	}
}

// classify derives the Is* flag describing a path's type from its FileInfo.
func classify(info os.FileInfo) Flag {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return FlagIsSymLink
	case info.IsDir():
		return FlagIsDir
	default:
		return FlagIsFile
	}
}
